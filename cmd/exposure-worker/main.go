package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/exposure-worker/audit"
	"github.com/radieske/ova-3d-platform/internal/exposure-worker/consumer"
	"github.com/radieske/ova-3d-platform/internal/exposure-worker/cronrunner"
	"github.com/radieske/ova-3d-platform/internal/exposure-worker/repository"
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

	boards := cache.NewBoardCache(redisClient, cfg.BoardCacheTTL)
	readRepo := repository.NewPostgresRepo(pg)

	// Um consumer group para os dois tópicos; a partição segue a fase
	reader := kafka.NewReader(cfg.KafkaBrokers, "exposure-worker", cfg.TopicBetsSubmitted, cfg.TopicPhaseSettled)
	defer reader.Close()

	var dlq consumer.DLQ
	if cfg.TopicBetsSubmittedDLQ != "" {
		dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSubmittedDLQ)
		defer dlqWriter.Close()
		dlq = func(ctx context.Context, key string, v any) error {
			return kafka.WriteJSON(ctx, dlqWriter, key, v)
		}
	}

	// Métricas Prometheus
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "exposure_messages_consumed_total", Help: "mensagens consumidas"})
	refreshed := prometheus.NewCounter(prometheus.CounterOpts{Name: "exposure_boards_refreshed_total", Help: "quadros recalculados e gravados no cache"})
	dead := prometheus.NewCounter(prometheus.CounterOpts{Name: "exposure_dlq_total", Help: "eventos enviados para a DLQ"})
	drifts := prometheus.NewCounter(prometheus.CounterOpts{Name: "exposure_counter_drift_total", Help: "fases com contadores divergentes"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "exposure_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, refreshed, dead, drifts, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Repo:         readRepo,
		Cache:        boards,
		SettledTopic: cfg.TopicPhaseSettled,
		DLQ:          dlq,
		Retries:      3,
		Backoff:      300 * time.Millisecond,
		OnConsumed:   func() { consumed.Inc() },
		OnRefreshed:  func() { refreshed.Inc() },
		OnDLQ:        func() { dead.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	auditor := &audit.Auditor{
		Log:     log,
		Repo:    readRepo,
		Cache:   boards,
		OnDrift: func(string) { drifts.Inc() },
		OnError: func(stage string) { errorsBy.WithLabelValues("audit_" + stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.HealthCheck{Name: "postgres", Check: pg.PingContext},
		metrics.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)
	defer metricsSrv.Close()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := cronrunner.New(log, ctx)
	if _, err := runner.Add(cfg.AuditCron, func(ctx context.Context) {
		rep, err := auditor.Run(ctx)
		if err != nil {
			log.Warn("audit failed", zap.Error(err))
			return
		}
		log.Debug("audit done", zap.Int("checked", rep.Checked), zap.Strings("repaired", rep.Repaired))
	}); err != nil {
		log.Fatal("invalid audit cron", zap.String("cron", cfg.AuditCron), zap.Error(err))
	}
	runner.Start()
	defer runner.Stop()

	log.Info("exposure-worker started",
		zap.String("consume", cfg.TopicBetsSubmitted),
		zap.String("settled", cfg.TopicPhaseSettled),
		zap.String("audit", cfg.AuditCron),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("exposure-worker stopped")
}
