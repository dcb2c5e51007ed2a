package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// Postgres implementa a persistência de fases, apostas, limites, ledger e usuários
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound       = errors.New("not found")
	ErrPhaseNotActive = errors.New("phase is not active")
	ErrPhaseSettled   = errors.New("phase is settled")
	ErrAlreadySettled = errors.New("phase already settled")
	ErrDuplicateName  = errors.New("name already exists")
	ErrInUse          = errors.New("record is referenced by bets")
)

// queryer cobre *sql.DB e *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// lockPhase trava a linha da fase até o fim da transação e devolve (ativa, fechada)
func lockPhase(ctx context.Context, tx *sql.Tx, phaseID string) (active, settled bool, err error) {
	err = tx.QueryRowContext(ctx, `SELECT active FROM phases WHERE id=$1 FOR UPDATE`, phaseID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, ErrNotFound
	}
	if err != nil {
		return false, false, fmt.Errorf("lock phase: %w", err)
	}
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM settlement_ledger WHERE phase_id=$1)`, phaseID).Scan(&settled); err != nil {
		return false, false, fmt.Errorf("check settlement: %w", err)
	}
	return active, settled, nil
}

// refreshCounters recalcula total_bets/total_volume a partir das linhas de bets,
// na mesma transação que as alterou. O volume respeita o piso exposure.VolumeFloor.
func refreshCounters(ctx context.Context, tx *sql.Tx, phaseID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE phases SET
		  total_bets   = (SELECT COUNT(*) FROM bets WHERE phase_id=$1),
		  total_volume = GREATEST($2::DECIMAL, COALESCE((SELECT SUM(amount) FROM bets WHERE phase_id=$1), 0))
		WHERE id=$1`, phaseID, exposure.VolumeFloor.String())
	if err != nil {
		return fmt.Errorf("refresh phase counters: %w", err)
	}
	return nil
}

// phaseBets lê as apostas da fase na visão do núcleo
func phaseBets(ctx context.Context, q queryer, phaseID string) ([]exposure.Bet, error) {
	rows, err := q.QueryContext(ctx, `SELECT number, amount FROM bets WHERE phase_id=$1`, phaseID)
	if err != nil {
		return nil, fmt.Errorf("query phase bets: %w", err)
	}
	defer rows.Close()

	var out []exposure.Bet
	for rows.Next() {
		var b exposure.Bet
		if err := rows.Scan(&b.Slot, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// phaseLimits lê limites por número e o global da fase
func phaseLimits(ctx context.Context, q queryer, phaseID string) (exposure.Limits, error) {
	l := exposure.Limits{PerNumber: map[int]decimal.Decimal{}}
	if err := q.QueryRowContext(ctx, `SELECT global_limit FROM phases WHERE id=$1`, phaseID).Scan(&l.Global); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, ErrNotFound
		}
		return l, fmt.Errorf("query global limit: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT number, max_amount FROM number_limits WHERE phase_id=$1`, phaseID)
	if err != nil {
		return l, fmt.Errorf("query number limits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n         slot.Slot
			maxAmount decimal.Decimal
		)
		if err := rows.Scan(&n, &maxAmount); err != nil {
			return l, err
		}
		if i, ok := n.Index(); ok {
			l.PerNumber[i] = maxAmount
		}
	}
	return l, rows.Err()
}

// PhaseBets retorna as apostas da fase (número e valor)
func (p *Postgres) PhaseBets(ctx context.Context, phaseID string) ([]exposure.Bet, error) {
	return phaseBets(ctx, p.db, phaseID)
}

// PhaseLimits retorna os limites efetivos configurados para a fase
func (p *Postgres) PhaseLimits(ctx context.Context, phaseID string) (exposure.Limits, error) {
	return phaseLimits(ctx, p.db, phaseID)
}
