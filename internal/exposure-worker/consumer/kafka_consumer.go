package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/shared/cache"
	"github.com/radieske/ova-3d-platform/internal/shared/kafka"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

// MessageReader é o pedaço do kafka.Reader que o Processor usa
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// BetSource lê as apostas de uma fase
type BetSource interface {
	PhaseBets(ctx context.Context, phaseID string) ([]exposure.Bet, error)
}

// Boards é o cache de quadros de exposição (gravação condicionada à versão)
type Boards interface {
	Version(ctx context.Context, phaseID string) (int64, error)
	SetAt(ctx context.Context, snap cache.BoardSnapshot, version int64) (bool, error)
	Invalidate(ctx context.Context, phaseID string) error
}

// DLQ recebe o payload original quando as tentativas se esgotam
type DLQ func(ctx context.Context, key string, v any) error

// Processor consome bets_submitted e phase_settled. Em bets_submitted recalcula
// o quadro da fase e grava no cache; em phase_settled descarta o quadro.
type Processor struct {
	Log          *zap.Logger
	Reader       MessageReader
	Repo         BetSource
	Cache        Boards
	SettledTopic string
	DLQ          DLQ

	Retries int           // tentativas extras antes da DLQ
	Backoff time.Duration // espera base entre tentativas (multiplicada pela tentativa)
	Now     func() time.Time

	OnConsumed  func()       // métricas (counter++)
	OnRefreshed func()       // métricas
	OnDLQ       func()       // métricas
	OnError     func(string) // métricas por estágio
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; erros ficam em log e métricas
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	if p.SettledTopic != "" && m.Topic == p.SettledTopic {
		p.handleSettled(ctx, m)
		return
	}

	var ev events.BetsSubmitted
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.PhaseID == "" {
		p.Log.Warn("invalid bets_submitted message", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("decode")
		return
	}

	err := p.refresh(ctx, ev.PhaseID)
	for i := 0; err != nil && i < p.Retries; i++ {
		time.Sleep(p.Backoff * time.Duration(i+1))
		err = p.refresh(ctx, ev.PhaseID)
	}
	if err == nil {
		if p.OnRefreshed != nil {
			p.OnRefreshed()
		}
		p.Log.Debug("board refreshed", zap.String("phaseId", ev.PhaseID), zap.String("reason", ev.Reason), zap.Int("count", ev.Count))
		return
	}

	p.Log.Error("board refresh failed", zap.String("phaseId", ev.PhaseID), zap.Error(err))
	p.fail("refresh")
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ(ctx, ev.PhaseID, ev); err != nil {
		p.Log.Error("dlq publish failed", zap.String("phaseId", ev.PhaseID), zap.Error(err))
		p.fail("dlq")
		return
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
}

func (p *Processor) refresh(ctx context.Context, phaseID string) error {
	version, err := p.Cache.Version(ctx, phaseID)
	if err != nil {
		return fmt.Errorf("board version: %w", err)
	}
	bets, err := p.Repo.PhaseBets(ctx, phaseID)
	if err != nil {
		return fmt.Errorf("load bets: %w", err)
	}
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now()
	}
	stored, err := p.Cache.SetAt(ctx, cache.NewBoardSnapshot(phaseID, bets, now), version)
	if err != nil {
		return fmt.Errorf("cache board: %w", err)
	}
	if !stored {
		// outra mudança chegou no meio; a mensagem dela recalcula
		p.Log.Debug("stale board dropped", zap.String("phaseId", phaseID), zap.Int64("version", version))
	}
	return nil
}

func (p *Processor) handleSettled(ctx context.Context, m kafka.Message) {
	var ev events.PhaseSettled
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.PhaseID == "" {
		p.Log.Warn("invalid phase_settled message", zap.Error(err))
		p.fail("decode")
		return
	}
	if err := p.Cache.Invalidate(ctx, ev.PhaseID); err != nil {
		p.Log.Warn("board invalidate failed", zap.String("phaseId", ev.PhaseID), zap.Error(err))
		p.fail("cache")
	}
	p.Log.Info("phase settled",
		zap.String("phaseId", ev.PhaseID),
		zap.String("winningNumber", ev.WinningNumber),
		zap.String("totalIn", ev.TotalIn),
		zap.String("totalOut", ev.TotalOut),
		zap.String("profit", ev.Profit),
	)
}
