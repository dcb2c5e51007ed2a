package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

func TestMemorySingleActivePhase(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.CreatePhase(ctx, "A", decimal.Zero)
	b, _ := m.CreatePhase(ctx, "B", decimal.Zero)

	if _, err := m.CreatePhase(ctx, "A", decimal.Zero); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err=%v want ErrDuplicateName", err)
	}
	if _, err := m.ActivatePhase(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	phases, _ := m.ListPhases(ctx)
	active := 0
	for _, p := range phases {
		if p.Active {
			active++
			if p.ID != a.ID {
				t.Fatalf("active=%s want %s", p.ID, a.ID)
			}
		}
	}
	if active != 1 {
		t.Fatalf("active phases=%d want 1", active)
	}
	if got, _ := m.GetPhase(ctx, b.ID); got.State() != "INACTIVE" {
		t.Fatalf("state=%s want INACTIVE", got.State())
	}
}

func TestMemoryCountersAreClamped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ph, _ := m.CreatePhase(ctx, "A", decimal.Zero)
	_, err := m.InsertBets(ctx, ph.ID, Actor{UserID: "u", Role: RoleAdmin}, []exposure.Bet{
		{Slot: slot.Adjustment(), Amount: decimal.NewFromInt(-20_000_000)},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := m.GetPhase(ctx, ph.ID)
	if got.TotalBets != 1 || !got.TotalVolume.Equal(exposure.VolumeFloor) {
		t.Fatalf("counters=%d/%s", got.TotalBets, got.TotalVolume)
	}
}

func TestMemorySettledPhaseIsImmutable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ph, _ := m.CreatePhase(ctx, "A", decimal.Zero)
	rows, _ := m.InsertBets(ctx, ph.ID, Actor{UserID: "u", Role: RoleCollector}, []exposure.Bet{
		{Slot: slot.MustDirect(1), Amount: decimal.NewFromInt(10)},
	})
	if _, err := m.ClosePhase(ctx, ph.ID, nil, settlement.Settle); err != nil {
		t.Fatal(err)
	}

	if _, err := m.ClosePhase(ctx, ph.ID, nil, settlement.Settle); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second close err=%v", err)
	}
	if _, err := m.DeleteBet(ctx, rows[0].ID); !errors.Is(err, ErrPhaseSettled) {
		t.Fatalf("void err=%v", err)
	}
	if _, err := m.ActivatePhase(ctx, ph.ID); !errors.Is(err, ErrPhaseSettled) {
		t.Fatalf("activate err=%v", err)
	}
	if _, err := m.InsertBets(ctx, ph.ID, Actor{}, []exposure.Bet{{Slot: slot.MustDirect(2), Amount: decimal.NewFromInt(1)}}); !errors.Is(err, ErrPhaseSettled) {
		t.Fatalf("insert err=%v", err)
	}
}

func TestMemoryDeleteSettledPhaseCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ph, _ := m.CreatePhase(ctx, "A", decimal.Zero)
	other, _ := m.CreatePhase(ctx, "B", decimal.Zero)
	rows, _ := m.InsertBets(ctx, other.ID, Actor{UserID: "u", Role: RoleAdmin}, []exposure.Bet{
		{Slot: slot.MustDirect(7), Amount: decimal.NewFromInt(5)},
	})
	if _, err := m.ActivatePhase(ctx, ph.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.InsertBets(ctx, ph.ID, Actor{UserID: "u", Role: RoleAdmin}, []exposure.Bet{
		{Slot: slot.MustDirect(1), Amount: decimal.NewFromInt(10)},
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpsertLimits(ctx, ph.ID, []NumberLimit{{PhaseID: ph.ID, Number: slot.MustDirect(1), MaxAmount: decimal.NewFromInt(5)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ClosePhase(ctx, ph.ID, nil, settlement.Settle); err != nil {
		t.Fatal(err)
	}

	if err := m.DeletePhase(ctx, ph.ID); err != nil {
		t.Fatalf("delete settled phase err=%v", err)
	}
	if _, err := m.GetPhase(ctx, ph.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get err=%v want ErrNotFound", err)
	}
	if _, err := m.LedgerByPhase(ctx, ph.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ledger err=%v want ErrNotFound", err)
	}
	if ledger, _ := m.ListLedger(ctx); len(ledger) != 0 {
		t.Fatalf("ledger=%+v want empty", ledger)
	}
	for _, b := range m.bets {
		if b.PhaseID == ph.ID {
			t.Fatalf("bet %s of deleted phase kept", b.ID)
		}
	}
	if _, ok := m.limits[ph.ID]; ok {
		t.Fatalf("limits of deleted phase kept")
	}
	if _, err := m.GetBet(ctx, rows[0].ID); err != nil {
		t.Fatalf("other phase bet gone: %v", err)
	}
	if err := m.DeletePhase(ctx, ph.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err=%v want ErrNotFound", err)
	}
}
