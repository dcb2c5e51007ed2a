package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthCheck é uma dependência verificada pelo /healthz (pg, redis...)
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler expõe /metrics e /healthz
func Handler(checks ...HealthCheck) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				http.Error(w, fmt.Sprintf("%s: %v", c.Name, err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartMetricsServer sobe o servidor de métricas numa goroutine
func StartMetricsServer(log *zap.Logger, port string, checks ...HealthCheck) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics/health listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	return srv
}
