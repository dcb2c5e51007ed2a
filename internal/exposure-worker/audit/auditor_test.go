package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/exposure-worker/repository"
)

type fakeRepo struct {
	phases   []repository.PhaseCounters
	bets     map[string][]exposure.Bet
	repaired []string
	loadErr  string
}

func (r *fakeRepo) OpenPhases(context.Context) ([]repository.PhaseCounters, error) {
	return r.phases, nil
}

func (r *fakeRepo) PhaseBets(_ context.Context, id string) ([]exposure.Bet, error) {
	if id == r.loadErr {
		return nil, errors.New("boom")
	}
	return r.bets[id], nil
}

func (r *fakeRepo) RepairCounters(_ context.Context, id string) error {
	r.repaired = append(r.repaired, id)
	return nil
}

type invalidations []string

func (i *invalidations) Invalidate(_ context.Context, id string) error {
	*i = append(*i, id)
	return nil
}

func bet(n int, amount int64) exposure.Bet {
	return exposure.Bet{Slot: slot.MustDirect(n), Amount: decimal.NewFromInt(amount)}
}

func TestRunRepairsOnlyDriftedPhases(t *testing.T) {
	repo := &fakeRepo{
		phases: []repository.PhaseCounters{
			{ID: "ok", TotalBets: 2, TotalVolume: decimal.NewFromInt(300)},
			{ID: "drift", TotalBets: 1, TotalVolume: decimal.NewFromInt(100)},
			{ID: "broken"},
		},
		bets: map[string][]exposure.Bet{
			"ok":    {bet(1, 100), bet(2, 200)},
			"drift": {bet(1, 100), bet(5, 50)},
		},
		loadErr: "broken",
	}
	var inv invalidations
	var drifted, stages []string
	a := &Auditor{
		Log:     zap.NewNop(),
		Repo:    repo,
		Cache:   &inv,
		OnDrift: func(id string) { drifted = append(drifted, id) },
		OnError: func(s string) { stages = append(stages, s) },
	}

	rep, err := a.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Checked != 2 || len(rep.Repaired) != 1 || rep.Repaired[0] != "drift" {
		t.Fatalf("report=%+v", rep)
	}
	if len(repo.repaired) != 1 || len(inv) != 1 || len(drifted) != 1 {
		t.Fatalf("repaired=%v invalidated=%v drifted=%v", repo.repaired, inv, drifted)
	}
	if len(stages) != 1 || stages[0] != "load" {
		t.Fatalf("stages=%v", stages)
	}
}
