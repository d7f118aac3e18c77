package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"talentlens/internal/store"
	"talentlens/internal/talent"
)

type createRoleRequest struct {
	Name        string `json:"name"`
	JD          string `json:"jd"`
	CTC         string `json:"ctc"`
	Positions   int    `json:"positions"`
	TallyLink   string `json:"tally_link"`
	TallyFormID string `json:"tally_form_id"`
	SheetURL    string `json:"sheet_url"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, _ *http.Request) {
	roles := make([]*talent.Bucket, 0)
	for _, b := range s.store.ListBuckets() {
		if b.Kind == talent.BucketRole {
			roles = append(roles, b)
		}
	}
	respondJSON(w, http.StatusOK, roles)
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Positions <= 0 {
		req.Positions = 1
	}

	id, err := s.store.CreateBucket(&talent.Bucket{
		Kind:        talent.BucketRole,
		Name:        req.Name,
		JD:          req.JD,
		CTC:         req.CTC,
		Positions:   req.Positions,
		TallyLink:   req.TallyLink,
		TallyFormID: req.TallyFormID,
		SheetURL:    req.SheetURL,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	bucket, err := s.store.GetBucket(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, bucket)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	bucket, err := s.store.GetBucket(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, bucket)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteBucket(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := talent.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !talent.ValidStatus(status) {
		respondError(w, http.StatusBadRequest, "status must be selected, waitlisted, or rejected")
		return
	}

	err := s.store.SetStatus(chi.URLParam(r, "id"), chi.URLParam(r, "key"), status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "role or candidate not found")
	case errors.Is(err, store.ErrCapacityExceeded):
		respondError(w, http.StatusConflict, "all positions are filled")
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetBucket(id); errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}

	// Analysis outlives the request.
	go func() {
		if err := s.analyzer.AnalyzeBucket(context.Background(), id); err != nil {
			s.logger.Warn("bucket analysis failed", zap.String("bucket", id), zap.Error(err))
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	added, err := s.importer.ImportBucket(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"imported": added})
}
