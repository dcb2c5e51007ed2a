package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/shared/cache"
	"github.com/radieske/ova-3d-platform/pkg/contracts/events"
)

var (
	ErrNoEntries          = errors.New("no valid entries found")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidAmount      = errors.New("amount must be non-zero")
	ErrInvalidLimit       = errors.New("limit must be zero or positive")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store é a persistência usada pelo serviço (implementada por repo.Postgres)
type Store interface {
	ListPhases(ctx context.Context) ([]repo.Phase, error)
	GetPhase(ctx context.Context, id string) (repo.Phase, error)
	ActivePhase(ctx context.Context) (repo.Phase, error)
	CreatePhase(ctx context.Context, name string, globalLimit decimal.Decimal) (repo.Phase, error)
	ActivatePhase(ctx context.Context, id string) (repo.Phase, error)
	SetGlobalLimit(ctx context.Context, id string, limit decimal.Decimal) (repo.Phase, error)
	DeletePhase(ctx context.Context, id string) error
	ClosePhase(ctx context.Context, id string, winning *slot.Slot, settle repo.SettleFunc) (settlement.Entry, error)

	ListBets(ctx context.Context, phaseID string) ([]repo.Bet, error)
	ListUserBets(ctx context.Context, phaseID, userID string) ([]repo.Bet, error)
	UserHistory(ctx context.Context, userID string, limit int) ([]repo.Bet, error)
	GetBet(ctx context.Context, id string) (repo.Bet, error)
	InsertBets(ctx context.Context, phaseID string, actor repo.Actor, bets []exposure.Bet) ([]repo.Bet, error)
	ApplyCorrections(ctx context.Context, phaseID string, actor repo.Actor, plan repo.PlanFunc) (exposure.ClearPlan, error)
	UpdateBetAmount(ctx context.Context, id string, amount decimal.Decimal) (repo.Bet, decimal.Decimal, error)
	DeleteBet(ctx context.Context, id string) (repo.Bet, error)
	PhaseBets(ctx context.Context, phaseID string) ([]exposure.Bet, error)
	PhaseLimits(ctx context.Context, phaseID string) (exposure.Limits, error)

	ListLimits(ctx context.Context, phaseID string) ([]repo.NumberLimit, error)
	UpsertLimits(ctx context.Context, phaseID string, limits []repo.NumberLimit) error

	ListLedger(ctx context.Context) ([]settlement.Entry, error)
	LedgerByPhase(ctx context.Context, phaseID string) (settlement.Entry, error)

	ListUsers(ctx context.Context) ([]repo.User, error)
	GetUser(ctx context.Context, id string) (repo.User, error)
	UserByUsername(ctx context.Context, username string) (repo.User, error)
	CreateUser(ctx context.Context, username, passwordHash, role string) (repo.User, error)
	UpdateUser(ctx context.Context, id string, upd repo.UserUpdate) (repo.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Publisher publica eventos de mudança (Kafka em produção)
type Publisher interface {
	PublishBetsSubmitted(ctx context.Context, e events.BetsSubmitted) error
	PublishPhaseSettled(ctx context.Context, e events.PhaseSettled) error
}

// Locker serializa submissões por fase; release nunca é nil
type Locker interface {
	Acquire(ctx context.Context, phaseID string) (release func())
}

// BoardCache guarda o quadro de exposição calculado. SetAt só grava se a
// versão lida com Version não mudou (nenhum Invalidate no meio).
type BoardCache interface {
	Get(ctx context.Context, phaseID string) (cache.BoardSnapshot, bool, error)
	Version(ctx context.Context, phaseID string) (int64, error)
	SetAt(ctx context.Context, snap cache.BoardSnapshot, version int64) (bool, error)
	Invalidate(ctx context.Context, phaseID string) error
}

// Service concentra as regras do lottery-service; HTTP só traduz
type Service struct {
	log    *zap.Logger
	store  Store
	pub    Publisher
	locker Locker
	boards BoardCache
	tokens auth.JWT
}

func New(log *zap.Logger, store Store, pub Publisher, locker Locker, boards BoardCache, tokens auth.JWT) *Service {
	return &Service{log: log, store: store, pub: pub, locker: locker, boards: boards, tokens: tokens}
}

// changed invalida o quadro em cache e avisa o exposure-worker
func (s *Service) changed(ctx context.Context, phaseID, userID, reason string, count int, volume decimal.Decimal) {
	if s.boards != nil {
		if err := s.boards.Invalidate(ctx, phaseID); err != nil {
			s.log.Warn("board cache invalidate failed", zap.String("phaseId", phaseID), zap.Error(err))
		}
	}
	if s.pub == nil {
		return
	}
	err := s.pub.PublishBetsSubmitted(ctx, events.BetsSubmitted{
		PhaseID: phaseID,
		UserID:  userID,
		Count:   count,
		Volume:  volume.StringFixed(2),
		Reason:  reason,
	})
	if err != nil {
		s.log.Warn("publish bets_submitted failed", zap.String("phaseId", phaseID), zap.String("reason", reason), zap.Error(err))
	}
}
