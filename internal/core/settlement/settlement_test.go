package settlement

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

func bet(number string, amount int64) exposure.Bet {
	s, err := slot.Parse(number)
	if err != nil {
		panic(err)
	}
	return exposure.Bet{Slot: s, Amount: decimal.NewFromInt(amount)}
}

func TestSettleWithWinningNumber(t *testing.T) {
	win := slot.MustDirect(123)
	r := Settle([]exposure.Bet{bet("123", 1000), bet("456", 2000)}, &win)
	if r.TotalIn.Cmp(decimal.NewFromInt(3000)) != 0 {
		t.Fatalf("totalIn=%s want 3000", r.TotalIn)
	}
	if r.TotalOut.Cmp(decimal.NewFromInt(80000)) != 0 {
		t.Fatalf("totalOut=%s want 80000", r.TotalOut)
	}
	if r.Profit.Cmp(decimal.NewFromInt(-77000)) != 0 {
		t.Fatalf("profit=%s want -77000", r.Profit)
	}
}

func TestSettleIgnoresReductionsAndCountsAdjustments(t *testing.T) {
	win := slot.MustDirect(123)
	r := Settle([]exposure.Bet{
		bet("123", 1000),
		bet("123", -400), // correção de excesso
		bet("ADJ", 500),
		bet("EXC", 100),
		bet("ADJ", -50),
	}, &win)
	if r.TotalIn.Cmp(decimal.NewFromInt(1600)) != 0 {
		t.Fatalf("totalIn=%s want 1600", r.TotalIn)
	}
	if r.TotalOut.Cmp(decimal.NewFromInt(80000)) != 0 {
		t.Fatalf("totalOut=%s want 80000", r.TotalOut)
	}
}

func TestSettleWithoutWinner(t *testing.T) {
	r := Settle([]exposure.Bet{bet("001", 10)}, nil)
	if !r.TotalOut.IsZero() || r.Profit.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("result=%+v", r)
	}
	adj := slot.Adjustment()
	if r := Settle([]exposure.Bet{bet("ADJ", 10)}, &adj); !r.TotalOut.IsZero() {
		t.Fatalf("reserved code cannot win: %+v", r)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Entry{
		{TotalIn: decimal.NewFromInt(100), TotalOut: decimal.NewFromInt(80), Profit: decimal.NewFromInt(20)},
		{TotalIn: decimal.NewFromInt(50), TotalOut: decimal.Zero, Profit: decimal.NewFromInt(50)},
	})
	if s.Phases != 2 || s.TotalIn.Cmp(decimal.NewFromInt(150)) != 0 || s.TotalProfit.Cmp(decimal.NewFromInt(70)) != 0 {
		t.Fatalf("summary=%+v", s)
	}
}
