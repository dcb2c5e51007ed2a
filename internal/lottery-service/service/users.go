package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
)

// historyLimit: quantas apostas o histórico do usuário devolve
const historyLimit = 100

// Session é o resultado do login
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      auth.Principal `json:"user"`
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}

	p := auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
	tok, exp, err := s.tokens.Sign(p)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("user logged in", zap.String("userId", u.ID))
	return Session{Token: tok, ExpiresAt: exp, User: p}, nil
}

func validRole(r string) bool { return r == repo.RoleAdmin || r == repo.RoleCollector }

func (s *Service) ListUsers(ctx context.Context) ([]repo.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, username, password, role string) (repo.User, error) {
	if !validRole(role) {
		return repo.User{}, ErrInvalidRole
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return repo.User{}, err
	}
	return s.store.CreateUser(ctx, username, hash, role)
}

// UserPatch: campos nil não mudam; senha vazia não muda
type UserPatch struct {
	Username *string
	Password *string
	Role     *string
	Balance  *decimal.Decimal
}

func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (repo.User, error) {
	upd := repo.UserUpdate{Username: patch.Username, Role: patch.Role, Balance: patch.Balance}
	if patch.Role != nil && !validRole(*patch.Role) {
		return repo.User{}, ErrInvalidRole
	}
	if patch.Password != nil && *patch.Password != "" {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return repo.User{}, err
		}
		upd.PasswordHash = &hash
	}
	return s.store.UpdateUser(ctx, id, upd)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}

// UserHistory: o próprio usuário ou um admin
func (s *Service) UserHistory(ctx context.Context, p auth.Principal, userID string) ([]repo.Bet, error) {
	if !p.IsAdmin() && p.UserID != userID {
		return nil, ErrForbidden
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.UserHistory(ctx, userID, historyLimit)
}
