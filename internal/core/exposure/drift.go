package exposure

import "github.com/shopspring/decimal"

// Drift compara os contadores em cache da fase com o recálculo a partir das apostas
type Drift struct {
	CachedBets   int             `json:"cachedBets"`
	ActualBets   int             `json:"actualBets"`
	CachedVolume decimal.Decimal `json:"cachedVolume"`
	ActualVolume decimal.Decimal `json:"actualVolume"`
}

func CheckDrift(cachedBets int, cachedVolume decimal.Decimal, bets []Bet) Drift {
	return Drift{
		CachedBets:   cachedBets,
		ActualBets:   len(bets),
		CachedVolume: cachedVolume,
		ActualVolume: PhaseVolume(bets),
	}
}

// Drifted é verdadeiro quando algum contador diverge
func (d Drift) Drifted() bool {
	return d.CachedBets != d.ActualBets || !d.CachedVolume.Equal(d.ActualVolume)
}
