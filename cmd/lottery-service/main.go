package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	httpapi "github.com/radieske/ova-3d-platform/internal/lottery-service/http"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/lock"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/producer"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
	"github.com/radieske/ova-3d-platform/internal/shared/cache"
	"github.com/radieske/ova-3d-platform/internal/shared/config"
	"github.com/radieske/ova-3d-platform/internal/shared/db"
	"github.com/radieske/ova-3d-platform/internal/shared/kafka"
	"github.com/radieske/ova-3d-platform/internal/shared/logger"
	"github.com/radieske/ova-3d-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Dependências: Postgres (fonte da verdade), Redis (quadro + lock), Kafka (eventos)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	betsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSubmitted)
	defer betsWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPhaseSettled)
	defer settledWriter.Close()

	tokens := auth.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.JWTTTL}
	svc := service.New(
		log,
		repo.NewPostgres(pg),
		producer.NewKafkaPublisher(betsWriter, settledWriter),
		lock.NewPhaseLocker(redisClient, log),
		cache.NewBoardCache(redisClient, cfg.BoardCacheTTL),
		tokens,
	)
	api := httpapi.NewServer(log, svc, tokens, httpapi.NewMetrics(prometheus.DefaultRegisterer))

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.HealthCheck{Name: "postgres", Check: pg.PingContext},
		metrics.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("lottery-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("lottery-service stopped")
}
