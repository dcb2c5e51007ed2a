package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// Result é o fechamento de uma fase
type Result struct {
	TotalIn       decimal.Decimal `json:"totalIn"`
	TotalOut      decimal.Decimal `json:"totalOut"`
	Profit        decimal.Decimal `json:"profit"`
	WinningNumber *slot.Slot      `json:"winningNumber,omitempty"`
}

// Settle calcula entradas, pagamento e lucro da fase.
// Só valores positivos contam (reduções e estornos ficam de fora); ADJ e EXC
// entram no TotalIn. Sem número vencedor o pagamento é zero.
func Settle(bets []exposure.Bet, winning *slot.Slot) Result {
	in := decimal.Zero
	staked := decimal.Zero
	for _, b := range bets {
		if !b.Amount.IsPositive() {
			continue
		}
		in = in.Add(b.Amount)
		if winning != nil && winning.IsDirect() && b.Slot == *winning {
			staked = staked.Add(b.Amount)
		}
	}

	out := staked.Mul(exposure.PayoutMultiplier)
	return Result{
		TotalIn:       in,
		TotalOut:      out,
		Profit:        in.Sub(out),
		WinningNumber: winning,
	}
}

// Entry é uma linha do livro de fechamentos
type Entry struct {
	ID            string          `json:"id"`
	PhaseID       string          `json:"phaseId"`
	PhaseName     string          `json:"phaseName,omitempty"`
	WinningNumber *slot.Slot      `json:"winningNumber,omitempty"`
	TotalIn       decimal.Decimal `json:"totalIn"`
	TotalOut      decimal.Decimal `json:"totalOut"`
	Profit        decimal.Decimal `json:"profit"`
	ClosedAt      time.Time       `json:"closedAt"`
}

// Summary soma o livro inteiro
type Summary struct {
	TotalIn     decimal.Decimal `json:"totalIn"`
	TotalOut    decimal.Decimal `json:"totalOut"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	Phases      int             `json:"phases"`
}

func Summarize(entries []Entry) Summary {
	s := Summary{TotalIn: decimal.Zero, TotalOut: decimal.Zero, TotalProfit: decimal.Zero}
	for _, e := range entries {
		s.TotalIn = s.TotalIn.Add(e.TotalIn)
		s.TotalOut = s.TotalOut.Add(e.TotalOut)
		s.TotalProfit = s.TotalProfit.Add(e.Profit)
		s.Phases++
	}
	return s
}
