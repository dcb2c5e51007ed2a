package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/notation"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

// Origem do texto de apostas
const (
	SourceText  = "text"
	SourceOCR   = "ocr"
	SourceVoice = "voice"
)

// BetInput é uma aposta ainda não validada (número como digitado)
type BetInput struct {
	Number string
	Amount decimal.Decimal
}

func (s *Service) ListBets(ctx context.Context, phaseID string) ([]repo.Bet, error) {
	if _, err := s.store.GetPhase(ctx, phaseID); err != nil {
		return nil, err
	}
	return s.store.ListBets(ctx, phaseID)
}

func (s *Service) MyBets(ctx context.Context, p auth.Principal, phaseID string) ([]repo.Bet, error) {
	if _, err := s.store.GetPhase(ctx, phaseID); err != nil {
		return nil, err
	}
	return s.store.ListUserBets(ctx, phaseID, p.UserID)
}

// validateBets normaliza os números e aplica as regras de quem pode lançar o quê:
// valor zero é recusado; ADJ, EXC e valores negativos são exclusivos do admin.
func validateBets(p auth.Principal, in []BetInput) ([]exposure.Bet, error) {
	if len(in) == 0 {
		return nil, ErrNoEntries
	}
	out := make([]exposure.Bet, 0, len(in))
	for _, b := range in {
		n, err := slot.Normalize(strings.ToUpper(strings.TrimSpace(b.Number)))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, b.Number)
		}
		if b.Amount.IsZero() {
			return nil, fmt.Errorf("%w: number %s", ErrInvalidAmount, n)
		}
		if !p.IsAdmin() && (!n.IsDirect() || b.Amount.IsNegative()) {
			return nil, ErrForbidden
		}
		out = append(out, exposure.Bet{Slot: n, Amount: b.Amount})
	}
	return out, nil
}

// SubmitBets grava um lote (ou uma aposta) de forma atômica na fase ativa
func (s *Service) SubmitBets(ctx context.Context, p auth.Principal, phaseID string, in []BetInput) ([]repo.Bet, error) {
	bets, err := validateBets(p, in)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release := s.locker.Acquire(ctx, phaseID)
		defer release()
	}

	rows, err := s.store.InsertBets(ctx, phaseID, repo.Actor{UserID: p.UserID, Role: p.Role}, bets)
	if err != nil {
		return nil, err
	}

	volume := decimal.Zero
	for _, b := range bets {
		volume = volume.Add(b.Amount)
	}
	s.log.Info("bets submitted",
		zap.String("phaseId", phaseID),
		zap.String("userId", p.UserID),
		zap.Int("count", len(rows)),
		zap.String("volume", volume.String()),
	)
	s.changed(ctx, phaseID, p.UserID, events.ReasonSubmit, len(rows), volume)
	return rows, nil
}

// ParseText interpreta o texto conforme a origem; nunca falha
func ParseText(source, text string) []notation.Entry {
	switch source {
	case SourceOCR:
		text = notation.CleanOCR(text)
	case SourceVoice:
		text = notation.FromVoice(text)
	}
	return notation.Parse(text)
}

// SubmitText interpreta a notação e grava as entradas como um lote
func (s *Service) SubmitText(ctx context.Context, p auth.Principal, phaseID, source, text string) ([]notation.Entry, []repo.Bet, error) {
	entries := ParseText(source, text)
	if len(entries) == 0 {
		return nil, nil, ErrNoEntries
	}
	in := make([]BetInput, len(entries))
	for i, e := range entries {
		in[i] = BetInput{Number: e.Number, Amount: e.Amount}
	}
	rows, err := s.SubmitBets(ctx, p, phaseID, in)
	if err != nil {
		return nil, nil, err
	}
	return entries, rows, nil
}

// UpdateBetAmount corrige o valor de uma aposta (admin)
func (s *Service) UpdateBetAmount(ctx context.Context, p auth.Principal, id string, amount decimal.Decimal) (repo.Bet, error) {
	if amount.IsZero() {
		return repo.Bet{}, ErrInvalidAmount
	}
	b, prev, err := s.store.UpdateBetAmount(ctx, id, amount)
	if err != nil {
		return repo.Bet{}, err
	}
	// o evento carrega a variação do volume, não o novo valor
	s.changed(ctx, b.PhaseID, p.UserID, events.ReasonUpdate, 1, amount.Sub(prev))
	return b, nil
}

// VoidBet estorna uma aposta (admin)
func (s *Service) VoidBet(ctx context.Context, p auth.Principal, id string) (repo.Bet, error) {
	b, err := s.store.DeleteBet(ctx, id)
	if err != nil {
		return repo.Bet{}, err
	}
	s.log.Info("bet voided", zap.String("betId", id), zap.String("phaseId", b.PhaseID))
	s.changed(ctx, b.PhaseID, p.UserID, events.ReasonVoid, 1, b.Amount.Neg())
	return b, nil
}
