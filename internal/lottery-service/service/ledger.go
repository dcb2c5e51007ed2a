package service

import (
	"context"

	"github.com/radieske/ova-3d-platform/internal/core/settlement"
)

func (s *Service) Ledger(ctx context.Context) ([]settlement.Entry, error) {
	return s.store.ListLedger(ctx)
}

func (s *Service) LedgerSummary(ctx context.Context) (settlement.Summary, error) {
	entries, err := s.store.ListLedger(ctx)
	if err != nil {
		return settlement.Summary{}, err
	}
	return settlement.Summarize(entries), nil
}

func (s *Service) LedgerByPhase(ctx context.Context, phaseID string) (settlement.Entry, error) {
	return s.store.LedgerByPhase(ctx, phaseID)
}
