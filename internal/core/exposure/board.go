package exposure

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// Bet é a visão mínima de uma aposta usada pelo núcleo: número e valor.
// Valores negativos são reduções/estornos.
type Bet struct {
	Slot   slot.Slot       `json:"number"`
	Amount decimal.Decimal `json:"amount"`
}

// Board é o tabuleiro de exposição de uma fase: o total de cada número 000-999
// mais os totais separados de ADJ e EXC.
type Board struct {
	totals           [slot.Space]decimal.Decimal
	Adjustment       decimal.Decimal // ADJ
	ExcessAdjustment decimal.Decimal // EXC
}

// Aggregate soma todas as apostas por número. Função pura: mesma entrada,
// mesmo tabuleiro, independente da ordem.
func Aggregate(bets []Bet) Board {
	var b Board
	for i := range b.totals {
		b.totals[i] = decimal.Zero
	}
	b.Adjustment = decimal.Zero
	b.ExcessAdjustment = decimal.Zero

	for _, bet := range bets {
		switch bet.Slot.Kind() {
		case slot.KindDirect:
			i, _ := bet.Slot.Index()
			b.totals[i] = b.totals[i].Add(bet.Amount)
		case slot.KindAdjustment:
			b.Adjustment = b.Adjustment.Add(bet.Amount)
		case slot.KindExcess:
			b.ExcessAdjustment = b.ExcessAdjustment.Add(bet.Amount)
		}
	}
	return b
}

// Total retorna o total do número n (0..999)
func (b *Board) Total(n int) decimal.Decimal { return b.totals[n] }

// NumberVolume é a soma dos 1000 números, sem ADJ/EXC
func (b *Board) NumberVolume() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range b.totals {
		sum = sum.Add(t)
	}
	return sum
}

// Volume é o total exibido no painel de risco: números + ADJ
func (b *Board) Volume() decimal.Decimal { return b.NumberVolume().Add(b.Adjustment) }

// Row é uma linha do tabuleiro completo
type Row struct {
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

// Rows lista os 1000 números em ordem crescente, inclusive os zerados
func (b *Board) Rows() []Row {
	out := make([]Row, slot.Space)
	for i := range b.totals {
		out[i] = Row{Number: slot.MustDirect(i).String(), Total: b.totals[i]}
	}
	return out
}

// Net devolve o tabuleiro como uma aposta líquida por posição não zerada
// (números, ADJ, EXC). Aggregate(b.Net()) reconstrói o mesmo tabuleiro.
func (b *Board) Net() []Bet {
	var out []Bet
	for i, t := range b.totals {
		if !t.IsZero() {
			out = append(out, Bet{Slot: slot.MustDirect(i), Amount: t})
		}
	}
	if !b.Adjustment.IsZero() {
		out = append(out, Bet{Slot: slot.Adjustment(), Amount: b.Adjustment})
	}
	if !b.ExcessAdjustment.IsZero() {
		out = append(out, Bet{Slot: slot.Excess(), Amount: b.ExcessAdjustment})
	}
	return out
}
