package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"talentlens/internal/logger"
	"talentlens/internal/sources/tally"
)

// handleWebhook ingests a Tally form submission. Outcomes: "received" for a
// new candidate (analysis kicks off in the background), "duplicate" when the
// submission is already stored, "no-fields" when nothing usable was sent.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload tally.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	cand := tally.ParseFields(payload.Data.Fields, payload.Data.SubmissionID)
	if cand == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "no-fields"})
		return
	}

	bucketID, err := s.store.ResolveFormBucket(payload.Data.FormID, payload.Data.FormName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	key := cand.Key()
	if s.store.ContainsKey(bucketID, key) {
		s.logger.Info("duplicate webhook submission", logger.CandidateFields(bucketID, key)...)
		respondJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if _, err := s.store.Upsert(bucketID, cand); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		if err := s.analyzer.AnalyzeCandidate(context.Background(), bucketID, key); err != nil {
			fields := append(logger.CandidateFields(bucketID, key), zap.Error(err))
			s.logger.Warn("webhook candidate analysis failed", fields...)
		}
	}()

	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "received",
		"candidate": cand.Name,
		"bucket":    bucketID,
	})
}
