package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
)

// Server expõe a API REST do lottery-service
type Server struct {
	log      *zap.Logger
	svc      *service.Service
	tokens   auth.JWT
	validate *validator.Validate
	metrics  *Metrics
}

func NewServer(log *zap.Logger, svc *service.Service, tokens auth.JWT, m *Metrics) *Server {
	return &Server{log: log, svc: svc, tokens: tokens, validate: validator.New(), metrics: m}
}

// Router monta as rotas; tudo exceto login exige bearer token, (A) = admin
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Post("/api/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/auth/me", s.me)

		r.Route("/api/phases", func(r chi.Router) {
			r.Get("/", s.listPhases)
			r.Get("/active", s.activePhase)
			r.Get("/{id}", s.getPhase)
			r.With(adminOnly).Post("/", s.createPhase)
			r.With(adminOnly).Post("/{id}/activate", s.activatePhase)
			r.With(adminOnly).Post("/{id}/close", s.closePhase)
			r.With(adminOnly).Patch("/{id}/limit", s.setGlobalLimit)
			r.With(adminOnly).Delete("/{id}", s.deletePhase)
		})

		r.Route("/api/bets", func(r chi.Router) {
			r.Get("/phase/{id}", s.listBets)
			r.Get("/phase/{id}/my", s.myBets)
			r.Post("/", s.placeBet)
			r.Post("/bulk", s.bulkBets)
			r.Post("/parse", s.parseText)
			r.Post("/text", s.textBets)
			r.With(adminOnly).Patch("/{id}", s.updateBet)
			r.With(adminOnly).Delete("/{id}", s.voidBet)
		})

		r.Route("/api/risk", func(r chi.Router) {
			r.Get("/phase/{id}", s.risk)
			r.Get("/phase/{id}/excess", s.excess)
			r.Get("/phase/{id}/export", s.export)
			r.With(adminOnly).Post("/phase/{id}/clear-excess", s.clearExcess)
			r.With(adminOnly).Get("/phase/{id}/audit", s.audit)
			r.Get("/limits/{phaseId}", s.listLimits)
			r.With(adminOnly).Post("/limits", s.setLimit)
			r.With(adminOnly).Post("/limits/bulk", s.bulkLimits)
		})

		r.Route("/api/ledger", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", s.ledger)
			r.Get("/summary", s.ledgerSummary)
			r.Get("/phase/{id}", s.ledgerByPhase)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.With(adminOnly).Get("/", s.listUsers)
			r.With(adminOnly).Post("/", s.createUser)
			r.With(adminOnly).Put("/{id}", s.updateUser)
			r.With(adminOnly).Delete("/{id}", s.deleteUser)
			r.Get("/{id}/history", s.userHistory)
		})
	})
	return r
}

// observe registra latência/status por rota (padrão chi) e loga erros 5xx
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			s.metrics.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}
		if status >= 500 {
			s.log.Warn("request failed", zap.String("method", r.Method), zap.String("route", route), zap.Int("status", status))
		}
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpError traduz erros de repo/service em status HTTP num lugar só
func (s *Server) httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNoEntries):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidNumber),
		errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrPhaseNotActive),
		errors.Is(err, repo.ErrPhaseSettled),
		errors.Is(err, repo.ErrAlreadySettled),
		errors.Is(err, repo.ErrDuplicateName),
		errors.Is(err, repo.ErrInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode lê o JSON e roda as tags validate; em falha já responde 400
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			fields := make(map[string]string, len(ves))
			for _, ve := range ves {
				fields[ve.Field()] = ve.Tag()
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload", "fields": fields})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}
