package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
)

var exportColumns = []string{"Username", "Name", "Location", "Followers", "Score", "Decision", "Skills", "Profile URL"}

// handleExport serves the last scan's results as JSON or CSV. Before any
// scan has produced results there is nothing to export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	results := s.getLastScan()
	if len(results) == 0 {
		respondError(w, http.StatusNotFound, "no scan results to export")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="candidates.csv"`)

		writer := csv.NewWriter(w)
		writer.Write(exportColumns)
		for _, c := range results {
			score, decision := "", ""
			if c.Evaluation != nil {
				score = fmt.Sprintf("%d", c.Evaluation.OverallScore)
				decision = string(c.Evaluation.Recommendation.Decision)
			}
			writer.Write([]string{
				c.Username,
				c.Name,
				c.Location,
				c.Followers,
				score,
				decision,
				strings.Join(c.Skills, "; "),
				c.ProfileURL,
			})
		}
		writer.Flush()
		return
	}

	respondJSON(w, http.StatusOK, results)
}
