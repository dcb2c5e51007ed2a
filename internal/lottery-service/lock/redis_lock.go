package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PhaseLocker serializa submissões em lote por fase entre instâncias da API.
// É best effort: sem lock, a transação com FOR UPDATE no Postgres ainda serializa.
type PhaseLocker struct {
	client *redislock.Client
	log    *zap.Logger
	TTL    time.Duration // validade do lock
	Wait   time.Duration // quanto esperar pelo lock antes de seguir sem ele
}

func NewPhaseLocker(rdb *redis.Client, log *zap.Logger) *PhaseLocker {
	return &PhaseLocker{
		client: redislock.New(rdb),
		log:    log,
		TTL:    30 * time.Second,
		Wait:   5 * time.Second,
	}
}

func key(phaseID string) string { return "lock:phase:" + phaseID }

// Acquire retorna sempre uma função de release (no-op quando o lock não foi obtido)
func (l *PhaseLocker) Acquire(ctx context.Context, phaseID string) (release func()) {
	wctx, cancel := context.WithTimeout(ctx, l.Wait)
	defer cancel()

	lk, err := l.client.Obtain(wctx, key(phaseID), l.TTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			l.log.Warn("could not obtain phase lock; proceeding without redis lock", zap.String("phaseId", phaseID))
		} else {
			l.log.Warn("error obtaining phase lock; proceeding without redis lock", zap.String("phaseId", phaseID), zap.Error(err))
		}
		return func() {}
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn("failed to release phase lock", zap.String("phaseId", phaseID), zap.Error(err))
		}
	}
}
