package exposure

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// DefaultGlobalLimit vale quando a fase não tem limite global configurado
var DefaultGlobalLimit = decimal.NewFromInt(5000)

// Limits reúne os limites por número (esparsos) e o limite global da fase
type Limits struct {
	PerNumber map[int]decimal.Decimal
	Global    decimal.Decimal
}

// Effective: limite do número, senão o global (se != 0), senão o padrão
func (l Limits) Effective(n int) decimal.Decimal {
	if v, ok := l.PerNumber[n]; ok {
		return v
	}
	if !l.Global.IsZero() {
		return l.Global
	}
	return DefaultGlobalLimit
}

// Excess é quanto o total do número passa do limite efetivo (nunca negativo)
func Excess(b *Board, l Limits, n int) decimal.Decimal {
	ex := b.Total(n).Sub(l.Effective(n))
	if ex.IsPositive() {
		return ex
	}
	return decimal.Zero
}

// ExcessRow descreve um número acima do limite
type ExcessRow struct {
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
	Limit  decimal.Decimal `json:"limit"`
	Excess decimal.Decimal `json:"excess"`
}

// Report lista os números com excesso > 0 em ordem crescente de número
// (visão de manifesto). Para a visão de maior risco use SortByExcess.
func Report(b *Board, l Limits) []ExcessRow {
	var out []ExcessRow
	for n := 0; n < slot.Space; n++ {
		ex := Excess(b, l, n)
		if !ex.IsPositive() {
			continue
		}
		out = append(out, ExcessRow{
			Number: slot.MustDirect(n).String(),
			Total:  b.Total(n),
			Limit:  l.Effective(n),
			Excess: ex,
		})
	}
	return out
}

// SortByExcess ordena por excesso decrescente; empates por número
func SortByExcess(rows []ExcessRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Excess.Cmp(rows[j].Excess); c != 0 {
			return c > 0
		}
		return rows[i].Number < rows[j].Number
	})
}

// TotalExcess soma o excesso dos 1000 números mais o ajuste manual EXC
func TotalExcess(b *Board, l Limits) decimal.Decimal {
	sum := decimal.Zero
	for n := 0; n < slot.Space; n++ {
		sum = sum.Add(Excess(b, l, n))
	}
	return sum.Add(b.ExcessAdjustment)
}

// ClearPlan são as correções negativas que trazem cada número de volta ao limite
type ClearPlan struct {
	Corrections    []Bet           `json:"corrections"`
	TotalReduction decimal.Decimal `json:"totalReduction"`
}

// Empty indica que não há excesso a limpar
func (p ClearPlan) Empty() bool { return len(p.Corrections) == 0 }

// Clear monta uma correção {n, -excesso} para cada número acima do limite.
func Clear(b *Board, l Limits) ClearPlan {
	plan := ClearPlan{TotalReduction: decimal.Zero}
	for n := 0; n < slot.Space; n++ {
		ex := Excess(b, l, n)
		if !ex.IsPositive() {
			continue
		}
		plan.Corrections = append(plan.Corrections, Bet{Slot: slot.MustDirect(n), Amount: ex.Neg()})
		plan.TotalReduction = plan.TotalReduction.Add(ex)
	}
	return plan
}
