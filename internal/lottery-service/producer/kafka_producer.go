package producer

import (
	"context"
	"time"

	"github.com/radieske/ova-3d-platform/internal/shared/kafka"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do lottery-service; a chave é o id da fase
type KafkaPublisher struct {
	Bets    *kafka.Writer
	Settled *kafka.Writer
}

func NewKafkaPublisher(bets, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Bets: bets, Settled: settled}
}

func (p *KafkaPublisher) PublishBetsSubmitted(ctx context.Context, e events.BetsSubmitted) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return kafka.WriteJSON(ctx, p.Bets, e.PhaseID, e)
}

func (p *KafkaPublisher) PublishPhaseSettled(ctx context.Context, e events.PhaseSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return kafka.WriteJSON(ctx, p.Settled, e.PhaseID, e)
}
