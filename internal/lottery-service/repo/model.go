package repo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/phase"
	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// Papéis de usuário
const (
	RoleAdmin     = "ADMIN"
	RoleCollector = "COLLECTOR"
)

// Phase representa a linha da tabela phases (+ flag de fechamento do ledger)
type Phase struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Active      bool            `json:"active"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	TotalBets   int             `json:"totalBets"`
	TotalVolume decimal.Decimal `json:"totalVolume"`
	GlobalLimit decimal.Decimal `json:"globalLimit"`
	Settled     bool            `json:"settled"`
}

func (p Phase) State() phase.State { return phase.StateOf(p.Active, p.TotalBets, p.Settled) }

// Bet representa a linha da tabela bets
type Bet struct {
	ID        string          `json:"id"`
	PhaseID   string          `json:"phaseId"`
	PhaseName string          `json:"phaseName,omitempty"`
	UserID    string          `json:"userId"`
	UserRole  string          `json:"userRole"`
	Number    slot.Slot       `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"timestamp"`
}

func (b Bet) Exposure() exposure.Bet { return exposure.Bet{Slot: b.Number, Amount: b.Amount} }

// Actor é quem grava as apostas (id e papel ficam na linha)
type Actor struct {
	UserID string
	Role   string
}

// NumberLimit é o limite de um número numa fase
type NumberLimit struct {
	PhaseID   string          `json:"phaseId"`
	Number    slot.Slot       `json:"number"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
}

// User representa a linha da tabela users
type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Role         string          `json:"role"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// UserUpdate: campos nil não mudam
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	Role         *string
	Balance      *decimal.Decimal
}

// SettleFunc calcula o fechamento a partir das apostas lidas dentro da transação
type SettleFunc func(bets []exposure.Bet, winning *slot.Slot) settlement.Result

// PlanFunc calcula as correções de excesso a partir do estado lido dentro da transação
type PlanFunc func(bets []exposure.Bet, limits exposure.Limits) exposure.ClearPlan
