package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ova-3d-platform/internal/core/notation"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/dto"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
)

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.ListBets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

func (s *Server) myBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.MyBets(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

func (s *Server) accepted(rows []repo.Bet) {
	if s.metrics != nil {
		s.metrics.BetsAccepted.Add(float64(len(rows)))
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	rows, err := s.svc.SubmitBets(r.Context(), principal(r), req.PhaseID,
		[]service.BetInput{{Number: req.Number, Amount: req.Amount}})
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.accepted(rows)
	writeJSON(w, http.StatusCreated, map[string]any{"bet": rows[0]})
}

func (s *Server) bulkBets(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := make([]service.BetInput, len(req.Bets))
	for i, b := range req.Bets {
		in[i] = service.BetInput{Number: b.Number, Amount: b.Amount}
	}
	rows, err := s.svc.SubmitBets(r.Context(), principal(r), req.PhaseID, in)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.accepted(rows)
	writeJSON(w, http.StatusCreated, map[string]any{"bets": rows})
}

// parseText só interpreta; nada é gravado
func (s *Server) parseText(w http.ResponseWriter, r *http.Request) {
	var req dto.ParseRequest
	if !s.decode(w, r, &req) {
		return
	}
	entries := service.ParseText(req.Source, req.Text)
	if entries == nil {
		entries = []notation.Entry{}
	}
	writeJSON(w, http.StatusOK, dto.ParseResponse{Entries: entries, Total: notation.Total(entries).String()})
}

func (s *Server) textBets(w http.ResponseWriter, r *http.Request) {
	var req dto.TextBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	entries, rows, err := s.svc.SubmitText(r.Context(), principal(r), req.PhaseID, req.Source, req.Text)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.accepted(rows)
	writeJSON(w, http.StatusCreated, dto.TextBetResponse{Entries: entries, Bets: rows})
}

func (s *Server) updateBet(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	b, err := s.svc.UpdateBetAmount(r.Context(), principal(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bet": b})
}

func (s *Server) voidBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.VoidBet(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bet": b})
}
