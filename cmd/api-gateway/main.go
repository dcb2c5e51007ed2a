package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/shared/config"
	"github.com/radieske/ova-3d-platform/internal/shared/logger"
	"github.com/radieske/ova-3d-platform/internal/shared/metrics"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	lottery, err := rp(cfg.LotteryURL)
	if err != nil {
		log.Fatal("invalid LOTTERY_URL", zap.String("url", cfg.LotteryURL), zap.Error(err))
	}

	mux := http.NewServeMux()
	// toda a API (/api/*) -> lottery-service, caminho preservado
	mux.Handle("/api/", lottery)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr), zap.String("lottery", cfg.LotteryURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
