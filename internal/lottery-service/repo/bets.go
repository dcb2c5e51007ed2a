package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
)

const betColumns = `b.id, b.phase_id, p.name, b.user_id, b.user_role, b.number, b.amount, b.created_at`

func scanBet(row interface{ Scan(...any) error }) (Bet, error) {
	var b Bet
	err := row.Scan(&b.ID, &b.PhaseID, &b.PhaseName, &b.UserID, &b.UserRole, &b.Number, &b.Amount, &b.CreatedAt)
	return b, err
}

func (p *Postgres) queryBets(ctx context.Context, where string, args ...any) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets b JOIN phases p ON p.id = b.phase_id
		WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	out := []Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBets lista as apostas da fase em ordem de gravação
func (p *Postgres) ListBets(ctx context.Context, phaseID string) ([]Bet, error) {
	return p.queryBets(ctx, `b.phase_id=$1 ORDER BY b.created_at, b.id`, phaseID)
}

// ListUserBets lista as apostas de um usuário numa fase
func (p *Postgres) ListUserBets(ctx context.Context, phaseID, userID string) ([]Bet, error) {
	return p.queryBets(ctx, `b.phase_id=$1 AND b.user_id=$2 ORDER BY b.created_at, b.id`, phaseID, userID)
}

// UserHistory retorna as últimas apostas do usuário em todas as fases
func (p *Postgres) UserHistory(ctx context.Context, userID string, limit int) ([]Bet, error) {
	return p.queryBets(ctx, `b.user_id=$1 ORDER BY b.created_at DESC, b.id LIMIT $2`, userID, limit)
}

func (p *Postgres) GetBet(ctx context.Context, id string) (Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		SELECT `+betColumns+` FROM bets b JOIN phases p ON p.id = b.phase_id WHERE b.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

// insertBets grava as linhas já dentro da transação
func insertBets(ctx context.Context, tx *sql.Tx, phaseID string, actor Actor, bets []exposure.Bet) ([]Bet, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bets(id, phase_id, user_id, user_role, number, amount, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert bet: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	out := make([]Bet, 0, len(bets))
	for _, b := range bets {
		row := Bet{
			ID:        uuid.New().String(),
			PhaseID:   phaseID,
			UserID:    actor.UserID,
			UserRole:  actor.Role,
			Number:    b.Slot,
			Amount:    b.Amount,
			CreatedAt: now,
		}
		if _, err := stmt.ExecContext(ctx, row.ID, row.PhaseID, row.UserID, row.UserRole, row.Number, row.Amount, row.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert bet: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

// InsertBets grava um lote de apostas numa transação só: trava a fase, exige que esteja
// ativa e não fechada, insere e recalcula os contadores. Tudo ou nada.
func (p *Postgres) InsertBets(ctx context.Context, phaseID string, actor Actor, bets []exposure.Bet) ([]Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	active, settled, err := lockPhase(ctx, tx, phaseID)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, ErrPhaseSettled
	}
	if !active {
		return nil, ErrPhaseNotActive
	}

	out, err := insertBets(ctx, tx, phaseID, actor, bets)
	if err != nil {
		return nil, err
	}
	if err = refreshCounters(ctx, tx, phaseID); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

// ApplyCorrections calcula o plano de limpeza de excesso sobre o estado lido sob lock
// e grava as correções negativas na mesma transação. Plano vazio não grava nada.
func (p *Postgres) ApplyCorrections(ctx context.Context, phaseID string, actor Actor, plan PlanFunc) (exposure.ClearPlan, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return exposure.ClearPlan{}, err
	}
	defer tx.Rollback()

	if _, settled, err := lockPhase(ctx, tx, phaseID); err != nil {
		return exposure.ClearPlan{}, err
	} else if settled {
		return exposure.ClearPlan{}, ErrPhaseSettled
	}

	bets, err := phaseBets(ctx, tx, phaseID)
	if err != nil {
		return exposure.ClearPlan{}, err
	}
	limits, err := phaseLimits(ctx, tx, phaseID)
	if err != nil {
		return exposure.ClearPlan{}, err
	}

	cp := plan(bets, limits)
	if cp.Empty() {
		return cp, nil
	}
	if _, err = insertBets(ctx, tx, phaseID, actor, cp.Corrections); err != nil {
		return exposure.ClearPlan{}, err
	}
	if err = refreshCounters(ctx, tx, phaseID); err != nil {
		return exposure.ClearPlan{}, err
	}
	return cp, tx.Commit()
}

// lockBetPhase trava a fase dona da aposta e recusa fase fechada
func lockBetPhase(ctx context.Context, tx *sql.Tx, betID string) (phaseID string, err error) {
	err = tx.QueryRowContext(ctx, `SELECT phase_id FROM bets WHERE id=$1`, betID).Scan(&phaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	_, settled, err := lockPhase(ctx, tx, phaseID)
	if err != nil {
		return "", err
	}
	if settled {
		return "", ErrPhaseSettled
	}
	return phaseID, nil
}

// UpdateBetAmount troca o valor de uma aposta e recalcula os contadores.
// Devolve também o valor anterior, lido dentro da mesma transação.
func (p *Postgres) UpdateBetAmount(ctx context.Context, id string, amount decimal.Decimal) (Bet, decimal.Decimal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, decimal.Zero, err
	}
	defer tx.Rollback()

	phaseID, err := lockBetPhase(ctx, tx, id)
	if err != nil {
		return Bet{}, decimal.Zero, err
	}
	var prev decimal.Decimal
	if err = tx.QueryRowContext(ctx, `SELECT amount FROM bets WHERE id=$1 FOR UPDATE`, id).Scan(&prev); err != nil {
		return Bet{}, decimal.Zero, fmt.Errorf("read bet amount: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE bets SET amount=$2 WHERE id=$1`, id, amount); err != nil {
		return Bet{}, decimal.Zero, fmt.Errorf("update bet: %w", err)
	}
	if err = refreshCounters(ctx, tx, phaseID); err != nil {
		return Bet{}, decimal.Zero, err
	}

	b, err := scanBet(tx.QueryRowContext(ctx, `
		SELECT `+betColumns+` FROM bets b JOIN phases p ON p.id = b.phase_id WHERE b.id=$1`, id))
	if err != nil {
		return Bet{}, decimal.Zero, err
	}
	return b, prev, tx.Commit()
}

// DeleteBet estorna (remove) uma aposta e recalcula os contadores
func (p *Postgres) DeleteBet(ctx context.Context, id string) (Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, err
	}
	defer tx.Rollback()

	phaseID, err := lockBetPhase(ctx, tx, id)
	if err != nil {
		return Bet{}, err
	}
	b, err := scanBet(tx.QueryRowContext(ctx, `
		SELECT `+betColumns+` FROM bets b JOIN phases p ON p.id = b.phase_id WHERE b.id=$1`, id))
	if err != nil {
		return Bet{}, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, id); err != nil {
		return Bet{}, fmt.Errorf("delete bet: %w", err)
	}
	if err = refreshCounters(ctx, tx, phaseID); err != nil {
		return Bet{}, err
	}
	return b, tx.Commit()
}
