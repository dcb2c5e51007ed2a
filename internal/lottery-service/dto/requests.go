package dto

import "github.com/shopspring/decimal"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreatePhaseRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	GlobalLimit *decimal.Decimal `json:"globalLimit"`
}

type ClosePhaseRequest struct {
	WinningNumber string `json:"winningNumber" validate:"omitempty,numeric,max=3"`
}

type GlobalLimitRequest struct {
	GlobalLimit decimal.Decimal `json:"globalLimit"`
}

type BetItem struct {
	Number string          `json:"number" validate:"required,max=3"`
	Amount decimal.Decimal `json:"amount"`
}

type PlaceBetRequest struct {
	PhaseID string          `json:"phaseId" validate:"required,uuid"`
	Number  string          `json:"number" validate:"required,max=3"`
	Amount  decimal.Decimal `json:"amount"`
}

type BulkBetRequest struct {
	PhaseID string    `json:"phaseId" validate:"required,uuid"`
	Bets    []BetItem `json:"bets" validate:"required,min=1,dive"`
}

type ParseRequest struct {
	Text   string `json:"text" validate:"required"`
	Source string `json:"source" validate:"omitempty,oneof=text ocr voice"`
}

type TextBetRequest struct {
	PhaseID string `json:"phaseId" validate:"required,uuid"`
	Text    string `json:"text" validate:"required"`
	Source  string `json:"source" validate:"omitempty,oneof=text ocr voice"`
}

type UpdateBetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type LimitItem struct {
	Number    string          `json:"number" validate:"required,max=3"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
}

type SetLimitRequest struct {
	PhaseID   string          `json:"phaseId" validate:"required,uuid"`
	Number    string          `json:"number" validate:"required,max=3"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
}

type BulkLimitRequest struct {
	PhaseID string      `json:"phaseId" validate:"required,uuid"`
	Limits  []LimitItem `json:"limits" validate:"required,min=1,dive"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=ADMIN COLLECTOR"`
}

type UpdateUserRequest struct {
	Username *string          `json:"username" validate:"omitempty,min=3,max=50"`
	Password *string          `json:"password"`
	Role     *string          `json:"role" validate:"omitempty,oneof=ADMIN COLLECTOR"`
	Balance  *decimal.Decimal `json:"balance"`
}
