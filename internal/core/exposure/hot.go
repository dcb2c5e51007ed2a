package exposure

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// PayoutMultiplier: um número de 3 dígitos paga 80 por unidade apostada
var PayoutMultiplier = decimal.NewFromInt(80)

// VolumeFloor é o piso do volume em cache de uma fase
var VolumeFloor = decimal.NewFromInt(-10_000_000)

// ClampVolume aplica o piso VolumeFloor. Toda derivação do volume em cache passa por aqui.
func ClampVolume(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(VolumeFloor) {
		return VolumeFloor
	}
	return v
}

// HotNumber é um número de maior exposição com o pagamento potencial
type HotNumber struct {
	Number          string          `json:"number"`
	Total           decimal.Decimal `json:"total"`
	PotentialPayout decimal.Decimal `json:"potentialPayout"`
}

// Hot retorna os n números com maior soma de apostas positivas
// (reduções não entram), com o pagamento potencial total×80.
func Hot(bets []Bet, n int) []HotNumber {
	positive := make([]Bet, 0, len(bets))
	for _, b := range bets {
		if b.Amount.IsPositive() && b.Slot.IsDirect() {
			positive = append(positive, b)
		}
	}
	board := Aggregate(positive)

	var out []HotNumber
	for i := 0; i < slot.Space; i++ {
		t := board.Total(i)
		if !t.IsPositive() {
			continue
		}
		out = append(out, HotNumber{
			Number:          slot.MustDirect(i).String(),
			Total:           t,
			PotentialPayout: t.Mul(PayoutMultiplier),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PhaseVolume é o volume em cache de uma fase: soma de todos os valores
// (inclusive ADJ e EXC), limitada pelo piso.
func PhaseVolume(bets []Bet) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range bets {
		sum = sum.Add(b.Amount)
	}
	return ClampVolume(sum)
}
