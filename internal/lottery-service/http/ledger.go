package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ledger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Ledger(r.Context())
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) ledgerSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.LedgerSummary(r.Context())
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) ledgerByPhase(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.LedgerByPhase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": e})
}
