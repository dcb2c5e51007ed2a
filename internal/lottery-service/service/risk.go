package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/export"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/shared/cache"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

// Ordenações do relatório de excesso
const (
	SortByNumber = "number"
	SortByExcess = "excess"
)

// Board devolve o quadro da fase: do cache quando houver, senão recalcula e grava
func (s *Service) Board(ctx context.Context, phaseID string) (cache.BoardSnapshot, error) {
	if _, err := s.store.GetPhase(ctx, phaseID); err != nil {
		return cache.BoardSnapshot{}, err
	}
	var (
		version   int64
		cacheable bool
	)
	if s.boards != nil {
		snap, ok, err := s.boards.Get(ctx, phaseID)
		if err != nil {
			s.log.Warn("board cache get failed", zap.String("phaseId", phaseID), zap.Error(err))
		} else if ok {
			return snap, nil
		}
		// a versão é lida antes das apostas; se mudar até o SetAt o snapshot não é gravado
		if version, err = s.boards.Version(ctx, phaseID); err != nil {
			s.log.Warn("board cache version failed", zap.String("phaseId", phaseID), zap.Error(err))
		} else {
			cacheable = true
		}
	}

	bets, err := s.store.PhaseBets(ctx, phaseID)
	if err != nil {
		return cache.BoardSnapshot{}, err
	}
	snap := cache.NewBoardSnapshot(phaseID, bets, time.Now().UTC())
	if cacheable {
		stored, err := s.boards.SetAt(ctx, snap, version)
		if err != nil {
			s.log.Warn("board cache set failed", zap.String("phaseId", phaseID), zap.Error(err))
		} else if !stored {
			s.log.Debug("stale board not cached", zap.String("phaseId", phaseID), zap.Int64("version", version))
		}
	}
	return snap, nil
}

// Risk é a visão de risco: tabuleiro completo, números quentes e totais
type Risk struct {
	PhaseID    string               `json:"phaseId"`
	Board      []exposure.Row       `json:"board"`
	Hot        []exposure.HotNumber `json:"hot"`
	Adjustment decimal.Decimal      `json:"adjustment"`
	BoardTotal decimal.Decimal      `json:"boardTotal"`
	TotalBets  int                  `json:"totalBets"`
	Volume     decimal.Decimal      `json:"totalVolume"`
	ComputedAt time.Time            `json:"computedAt"`
}

func (s *Service) Risk(ctx context.Context, phaseID string) (Risk, error) {
	snap, err := s.Board(ctx, phaseID)
	if err != nil {
		return Risk{}, err
	}
	board := snap.Board()
	return Risk{
		PhaseID:    phaseID,
		Board:      board.Rows(),
		Hot:        snap.Hot,
		Adjustment: board.Adjustment,
		BoardTotal: snap.BoardTotal,
		TotalBets:  snap.TotalBets,
		Volume:     snap.Volume,
		ComputedAt: snap.ComputedAt,
	}, nil
}

// ExcessReport lista os números acima do limite e o excesso total (inclui EXC)
type ExcessReport struct {
	PhaseID          string               `json:"phaseId"`
	Rows             []exposure.ExcessRow `json:"rows"`
	ExcessAdjustment decimal.Decimal      `json:"excessAdjustment"`
	TotalExcess      decimal.Decimal      `json:"totalExcess"`
}

func (s *Service) Excess(ctx context.Context, phaseID, sortBy string) (ExcessReport, error) {
	snap, err := s.Board(ctx, phaseID)
	if err != nil {
		return ExcessReport{}, err
	}
	limits, err := s.store.PhaseLimits(ctx, phaseID)
	if err != nil {
		return ExcessReport{}, err
	}
	board := snap.Board()
	rows := exposure.Report(&board, limits)
	if sortBy == SortByExcess {
		exposure.SortByExcess(rows)
	}
	if rows == nil {
		rows = []exposure.ExcessRow{}
	}
	return ExcessReport{
		PhaseID:          phaseID,
		Rows:             rows,
		ExcessAdjustment: board.ExcessAdjustment,
		TotalExcess:      exposure.TotalExcess(&board, limits),
	}, nil
}

// clearPlan é executado pelo repositório com as apostas e limites lidos sob lock
func clearPlan(bets []exposure.Bet, limits exposure.Limits) exposure.ClearPlan {
	board := exposure.Aggregate(bets)
	return exposure.Clear(&board, limits)
}

// ClearExcess grava uma correção negativa por número acima do limite.
// Plano vazio não é erro: nada é gravado.
func (s *Service) ClearExcess(ctx context.Context, p auth.Principal, phaseID string) (exposure.ClearPlan, error) {
	if s.locker != nil {
		release := s.locker.Acquire(ctx, phaseID)
		defer release()
	}

	plan, err := s.store.ApplyCorrections(ctx, phaseID, repo.Actor{UserID: p.UserID, Role: p.Role}, clearPlan)
	if err != nil {
		return exposure.ClearPlan{}, err
	}
	if plan.Empty() {
		return plan, nil
	}
	s.log.Info("excess cleared",
		zap.String("phaseId", phaseID),
		zap.Int("corrections", len(plan.Corrections)),
		zap.String("totalReduction", plan.TotalReduction.String()),
	)
	s.changed(ctx, phaseID, p.UserID, events.ReasonClearExcess, len(plan.Corrections), plan.TotalReduction.Neg())
	return plan, nil
}

// Export grava o manifesto (excesso por número + tabuleiro) em xlsx
func (s *Service) Export(ctx context.Context, phaseID string, w io.Writer) error {
	ph, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return err
	}
	rep, err := s.Excess(ctx, phaseID, SortByNumber)
	if err != nil {
		return err
	}
	snap, err := s.Board(ctx, phaseID)
	if err != nil {
		return err
	}
	board := snap.Board()
	return export.WriteXLSX(w, export.Manifest{
		PhaseName:   ph.Name,
		Excess:      rep.Rows,
		TotalExcess: rep.TotalExcess.StringFixed(2),
		Board:       board.Rows(),
	})
}

// Audit recalcula os contadores da fase a partir das apostas e compara com os gravados
func (s *Service) Audit(ctx context.Context, phaseID string) (exposure.Drift, error) {
	ph, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return exposure.Drift{}, err
	}
	bets, err := s.store.PhaseBets(ctx, phaseID)
	if err != nil {
		return exposure.Drift{}, err
	}
	d := exposure.CheckDrift(ph.TotalBets, ph.TotalVolume, bets)
	if d.Drifted() {
		s.log.Warn("phase counters drifted",
			zap.String("phaseId", phaseID),
			zap.Int("cachedBets", d.CachedBets),
			zap.Int("actualBets", d.ActualBets),
			zap.String("cachedVolume", d.CachedVolume.String()),
			zap.String("actualVolume", d.ActualVolume.String()),
		)
	}
	return d, nil
}

// LimitInput é um limite ainda não validado
type LimitInput struct {
	Number    string
	MaxAmount decimal.Decimal
}

func (s *Service) ListLimits(ctx context.Context, phaseID string) ([]repo.NumberLimit, error) {
	if _, err := s.store.GetPhase(ctx, phaseID); err != nil {
		return nil, err
	}
	return s.store.ListLimits(ctx, phaseID)
}

// SetLimits grava limites por número; só números diretos, valores >= 0
func (s *Service) SetLimits(ctx context.Context, phaseID string, in []LimitInput) error {
	limits := make([]repo.NumberLimit, 0, len(in))
	for _, l := range in {
		n, err := slot.Normalize(l.Number)
		if err != nil || !n.IsDirect() {
			return fmt.Errorf("%w: %q", ErrInvalidNumber, l.Number)
		}
		if l.MaxAmount.IsNegative() {
			return ErrInvalidLimit
		}
		limits = append(limits, repo.NumberLimit{PhaseID: phaseID, Number: n, MaxAmount: l.MaxAmount})
	}
	if len(limits) == 0 {
		return nil
	}
	return s.store.UpsertLimits(ctx, phaseID, limits)
}
