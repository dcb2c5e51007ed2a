package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

func (s *Service) ListPhases(ctx context.Context) ([]repo.Phase, error) {
	return s.store.ListPhases(ctx)
}

func (s *Service) GetPhase(ctx context.Context, id string) (repo.Phase, error) {
	return s.store.GetPhase(ctx, id)
}

func (s *Service) ActivePhase(ctx context.Context) (repo.Phase, error) {
	return s.store.ActivePhase(ctx)
}

// CreatePhase cria a fase já ativa; as demais são desativadas
func (s *Service) CreatePhase(ctx context.Context, name string, globalLimit decimal.Decimal) (repo.Phase, error) {
	if globalLimit.IsNegative() {
		return repo.Phase{}, ErrInvalidLimit
	}
	ph, err := s.store.CreatePhase(ctx, strings.TrimSpace(name), globalLimit)
	if err != nil {
		return repo.Phase{}, err
	}
	s.log.Info("phase created", zap.String("phaseId", ph.ID), zap.String("name", ph.Name))
	return ph, nil
}

func (s *Service) ActivatePhase(ctx context.Context, id string) (repo.Phase, error) {
	ph, err := s.store.ActivatePhase(ctx, id)
	if err != nil {
		return repo.Phase{}, err
	}
	s.log.Info("phase activated", zap.String("phaseId", id))
	return ph, nil
}

func (s *Service) SetGlobalLimit(ctx context.Context, id string, limit decimal.Decimal) (repo.Phase, error) {
	if limit.IsNegative() {
		return repo.Phase{}, ErrInvalidLimit
	}
	return s.store.SetGlobalLimit(ctx, id, limit)
}

func (s *Service) DeletePhase(ctx context.Context, id string) error {
	if err := s.store.DeletePhase(ctx, id); err != nil {
		return err
	}
	if s.boards != nil {
		_ = s.boards.Invalidate(ctx, id)
	}
	return nil
}

// parseWinning aceita vazio (sem vencedor) ou um número direto de 1 a 3 dígitos
func parseWinning(raw string) (*slot.Slot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	w, err := slot.Normalize(raw)
	if err != nil || !w.IsDirect() {
		return nil, fmt.Errorf("%w: winning number %q", ErrInvalidNumber, raw)
	}
	return &w, nil
}

// ClosePhase liquida a fase (pagamento ×80 no número vencedor) e grava o ledger
func (s *Service) ClosePhase(ctx context.Context, id, winningNumber string) (settlement.Entry, error) {
	winning, err := parseWinning(winningNumber)
	if err != nil {
		return settlement.Entry{}, err
	}

	entry, err := s.store.ClosePhase(ctx, id, winning, settlement.Settle)
	if err != nil {
		return settlement.Entry{}, err
	}
	s.log.Info("phase settled",
		zap.String("phaseId", id),
		zap.String("totalIn", entry.TotalIn.String()),
		zap.String("totalOut", entry.TotalOut.String()),
		zap.String("profit", entry.Profit.String()),
	)

	if s.boards != nil {
		_ = s.boards.Invalidate(ctx, id)
	}
	if s.pub != nil {
		ev := events.PhaseSettled{
			PhaseID:  id,
			TotalIn:  entry.TotalIn.StringFixed(2),
			TotalOut: entry.TotalOut.StringFixed(2),
			Profit:   entry.Profit.StringFixed(2),
		}
		if winning != nil {
			ev.WinningNumber = winning.String()
		}
		if err := s.pub.PublishPhaseSettled(ctx, ev); err != nil {
			s.log.Warn("publish phase_settled failed", zap.String("phaseId", id), zap.Error(err))
		}
	}
	return entry, nil
}
