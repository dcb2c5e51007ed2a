package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/dto"
)

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.ListPhases(r.Context())
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phases": dto.NewPhases(ps)})
}

func (s *Server) activePhase(w http.ResponseWriter, r *http.Request) {
	ph, err := s.svc.ActivePhase(r.Context())
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": dto.NewPhase(ph)})
}

func (s *Server) getPhase(w http.ResponseWriter, r *http.Request) {
	ph, err := s.svc.GetPhase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": dto.NewPhase(ph)})
}

func (s *Server) createPhase(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePhaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	limit := decimal.Zero
	if req.GlobalLimit != nil {
		limit = *req.GlobalLimit
	}
	ph, err := s.svc.CreatePhase(r.Context(), req.Name, limit)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"phase": dto.NewPhase(ph)})
}

func (s *Server) activatePhase(w http.ResponseWriter, r *http.Request) {
	ph, err := s.svc.ActivatePhase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": dto.NewPhase(ph)})
}

func (s *Server) setGlobalLimit(w http.ResponseWriter, r *http.Request) {
	var req dto.GlobalLimitRequest
	if !s.decode(w, r, &req) {
		return
	}
	ph, err := s.svc.SetGlobalLimit(r.Context(), chi.URLParam(r, "id"), req.GlobalLimit)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": dto.NewPhase(ph)})
}

// closePhase aceita corpo vazio (fechamento sem número sorteado)
func (s *Server) closePhase(w http.ResponseWriter, r *http.Request) {
	var req dto.ClosePhaseRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	entry, err := s.svc.ClosePhase(r.Context(), chi.URLParam(r, "id"), req.WinningNumber)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": entry})
}

func (s *Server) deletePhase(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePhase(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
