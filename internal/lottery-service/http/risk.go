package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/dto"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
)

func (s *Server) risk(w http.ResponseWriter, r *http.Request) {
	rv, err := s.svc.Risk(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// excess: ?sort=excess ordena pelo maior excesso; padrão é por número
func (s *Server) excess(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = service.SortByNumber
	}
	if sortBy != service.SortByNumber && sortBy != service.SortByExcess {
		writeError(w, http.StatusBadRequest, "sort must be number or excess")
		return
	}
	rep, err := s.svc.Excess(r.Context(), chi.URLParam(r, "id"), sortBy)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) clearExcess(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.ClearExcess(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	resp := dto.ClearExcessResponse{
		Cleared:        !plan.Empty(),
		Corrections:    plan.Corrections,
		TotalReduction: plan.TotalReduction.String(),
	}
	if plan.Empty() {
		resp.Message = "no excess volume found"
	} else if s.metrics != nil {
		s.metrics.ExcessCleared.Add(float64(len(plan.Corrections)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// export gera a planilha em memória para poder responder erro como JSON
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), id, &buf); err != nil {
		s.httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="excess-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	dr, err := s.svc.Audit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": dr, "drifted": dr.Drifted()})
}

func (s *Server) listLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := s.svc.ListLimits(r.Context(), chi.URLParam(r, "phaseId"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"limits": limits})
}

func (s *Server) setLimit(w http.ResponseWriter, r *http.Request) {
	var req dto.SetLimitRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := []service.LimitInput{{Number: req.Number, MaxAmount: req.MaxAmount}}
	if err := s.svc.SetLimits(r.Context(), req.PhaseID, in); err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": 1})
}

func (s *Server) bulkLimits(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkLimitRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := make([]service.LimitInput, len(req.Limits))
	for i, l := range req.Limits {
		in[i] = service.LimitInput{Number: l.Number, MaxAmount: l.MaxAmount}
	}
	if err := s.svc.SetLimits(r.Context(), req.PhaseID, in); err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(in)})
}
