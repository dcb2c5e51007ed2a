package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/dto"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.svc.CreateUser(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), service.UserPatch{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Balance:  req.Balance,
	})
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userHistory(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.UserHistory(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}
