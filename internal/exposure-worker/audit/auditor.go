package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/exposure-worker/repository"
)

type Repo interface {
	OpenPhases(ctx context.Context) ([]repository.PhaseCounters, error)
	PhaseBets(ctx context.Context, phaseID string) ([]exposure.Bet, error)
	RepairCounters(ctx context.Context, phaseID string) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, phaseID string) error
}

// Auditor confere os contadores persistidos de cada fase aberta contra as
// apostas e corrige os que divergirem.
type Auditor struct {
	Log   *zap.Logger
	Repo  Repo
	Cache Invalidator

	OnDrift func(phaseID string)
	OnError func(string)
}

// Report resume uma rodada de auditoria
type Report struct {
	Checked  int
	Repaired []string
}

func (a *Auditor) fail(stage string) {
	if a.OnError != nil {
		a.OnError(stage)
	}
}

// Run audita todas as fases abertas; falha numa fase não interrompe as demais
func (a *Auditor) Run(ctx context.Context) (Report, error) {
	var rep Report
	phases, err := a.Repo.OpenPhases(ctx)
	if err != nil {
		a.fail("list")
		return rep, err
	}
	for _, ph := range phases {
		bets, err := a.Repo.PhaseBets(ctx, ph.ID)
		if err != nil {
			a.Log.Warn("audit load bets failed", zap.String("phaseId", ph.ID), zap.Error(err))
			a.fail("load")
			continue
		}
		rep.Checked++

		dr := exposure.CheckDrift(ph.TotalBets, ph.TotalVolume, bets)
		if !dr.Drifted() {
			continue
		}
		a.Log.Warn("phase counters drifted",
			zap.String("phaseId", ph.ID),
			zap.String("phase", ph.Name),
			zap.Int("cachedBets", dr.CachedBets),
			zap.Int("actualBets", dr.ActualBets),
			zap.String("cachedVolume", dr.CachedVolume.String()),
			zap.String("actualVolume", dr.ActualVolume.String()),
		)
		if a.OnDrift != nil {
			a.OnDrift(ph.ID)
		}
		if err := a.Repo.RepairCounters(ctx, ph.ID); err != nil {
			a.Log.Error("repair counters failed", zap.String("phaseId", ph.ID), zap.Error(err))
			a.fail("repair")
			continue
		}
		if a.Cache != nil {
			if err := a.Cache.Invalidate(ctx, ph.ID); err != nil {
				a.Log.Warn("board invalidate failed", zap.String("phaseId", ph.ID), zap.Error(err))
			}
		}
		rep.Repaired = append(rep.Repaired, ph.ID)
	}
	return rep, nil
}
