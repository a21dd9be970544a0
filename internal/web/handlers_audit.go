package web

import (
	"net/http"

	"github.com/JonMunkholm/devicebulk/internal/core"
)

// StatusResponse reports whether the server can take a batch right now.
type StatusResponse struct {
	Root    string             `json:"root"`
	Tables  int                `json:"tables"`
	Limiter core.LimiterStatus `json:"limiter"`
	Batches int                `json:"batches"` // Results held in history
}

// handleHistory lists recent batch results, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.History())
}

// handleStatus returns the batch slot state, for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, StatusResponse{
		Root:    s.service.Root(),
		Tables:  len(s.service.WorkingSet().Names()),
		Limiter: s.service.LimiterStatus(),
		Batches: len(s.service.History()),
	})
}

// handleAudit lists audit entries from the audit database. ?limit= defaults to 50.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.RecentAudit(r.Context(), parseIntParam(r, "limit", 50))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, entries)
}
