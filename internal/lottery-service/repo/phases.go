package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
	"github.com/radieske/ova-3d-platform/internal/shared/db"
)

const phaseColumns = `
	p.id, p.name, p.active, p.start_date, p.end_date, p.total_bets, p.total_volume, p.global_limit,
	EXISTS(SELECT 1 FROM settlement_ledger l WHERE l.phase_id = p.id)`

func scanPhase(row interface{ Scan(...any) error }) (Phase, error) {
	var (
		ph  Phase
		end sql.NullTime
	)
	err := row.Scan(&ph.ID, &ph.Name, &ph.Active, &ph.StartDate, &end,
		&ph.TotalBets, &ph.TotalVolume, &ph.GlobalLimit, &ph.Settled)
	if end.Valid {
		ph.EndDate = &end.Time
	}
	return ph, err
}

// ListPhases lista as fases, mais recentes primeiro
func (p *Postgres) ListPhases(ctx context.Context) ([]Phase, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+phaseColumns+` FROM phases p ORDER BY p.start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var out []Phase
	for rows.Next() {
		ph, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

func (p *Postgres) GetPhase(ctx context.Context, id string) (Phase, error) {
	ph, err := scanPhase(p.db.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases p WHERE p.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ph, ErrNotFound
	}
	return ph, err
}

// ActivePhase retorna a fase ativa; ErrNotFound se não houver
func (p *Postgres) ActivePhase(ctx context.Context) (Phase, error) {
	ph, err := scanPhase(p.db.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases p WHERE p.active LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return ph, ErrNotFound
	}
	return ph, err
}

// CreatePhase desativa todas as fases e cria a nova já ativa, numa transação
func (p *Postgres) CreatePhase(ctx context.Context, name string, globalLimit decimal.Decimal) (Phase, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Phase{}, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `UPDATE phases SET active=false WHERE active`); err != nil {
		return Phase{}, fmt.Errorf("deactivate phases: %w", err)
	}

	id := uuid.New().String()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO phases(id, name, active, start_date, global_limit)
		VALUES($1,$2,true,NOW(),$3)`, id, name, globalLimit); err != nil {
		if db.IsUniqueViolation(err) {
			return Phase{}, ErrDuplicateName
		}
		return Phase{}, fmt.Errorf("insert phase: %w", err)
	}

	ph, err := scanPhase(tx.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases p WHERE p.id=$1`, id))
	if err != nil {
		return Phase{}, err
	}
	return ph, tx.Commit()
}

// ActivatePhase ativa a fase e desativa as outras; fase fechada não reativa
func (p *Postgres) ActivatePhase(ctx context.Context, id string) (Phase, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Phase{}, err
	}
	defer tx.Rollback()

	_, settled, err := lockPhase(ctx, tx, id)
	if err != nil {
		return Phase{}, err
	}
	if settled {
		return Phase{}, ErrPhaseSettled
	}

	if _, err = tx.ExecContext(ctx, `UPDATE phases SET active=false WHERE active AND id<>$1`, id); err != nil {
		return Phase{}, fmt.Errorf("deactivate phases: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE phases SET active=true, end_date=NULL WHERE id=$1`, id); err != nil {
		return Phase{}, fmt.Errorf("activate phase: %w", err)
	}

	ph, err := scanPhase(tx.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases p WHERE p.id=$1`, id))
	if err != nil {
		return Phase{}, err
	}
	return ph, tx.Commit()
}

// SetGlobalLimit altera o limite global de uma fase não fechada
func (p *Postgres) SetGlobalLimit(ctx context.Context, id string, limit decimal.Decimal) (Phase, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Phase{}, err
	}
	defer tx.Rollback()

	if _, settled, err := lockPhase(ctx, tx, id); err != nil {
		return Phase{}, err
	} else if settled {
		return Phase{}, ErrPhaseSettled
	}

	if _, err = tx.ExecContext(ctx, `UPDATE phases SET global_limit=$2 WHERE id=$1`, id, limit); err != nil {
		return Phase{}, fmt.Errorf("update global limit: %w", err)
	}
	ph, err := scanPhase(tx.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases p WHERE p.id=$1`, id))
	if err != nil {
		return Phase{}, err
	}
	return ph, tx.Commit()
}

// DeletePhase remove a fase em qualquer estado; apostas, limites e a linha
// do ledger vão junto (ON DELETE CASCADE).
func (p *Postgres) DeletePhase(ctx context.Context, id string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, _, err := lockPhase(ctx, tx, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM phases WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete phase: %w", err)
	}
	return tx.Commit()
}

// ClosePhase fecha a fase: lê as apostas sob lock, calcula o resultado com settle,
// grava o ledger e desativa a fase na mesma transação.
// Uma submissão concorrente ou entra no cálculo ou é rejeitada.
func (p *Postgres) ClosePhase(ctx context.Context, id string, winning *slot.Slot, settle SettleFunc) (settlement.Entry, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return settlement.Entry{}, err
	}
	defer tx.Rollback()

	if _, settled, err := lockPhase(ctx, tx, id); err != nil {
		return settlement.Entry{}, err
	} else if settled {
		return settlement.Entry{}, ErrAlreadySettled
	}

	bets, err := phaseBets(ctx, tx, id)
	if err != nil {
		return settlement.Entry{}, err
	}
	res := settle(bets, winning)

	entry := settlement.Entry{
		ID:            uuid.New().String(),
		PhaseID:       id,
		WinningNumber: winning,
		TotalIn:       res.TotalIn,
		TotalOut:      res.TotalOut,
		Profit:        res.Profit,
		ClosedAt:      time.Now().UTC(),
	}

	var win any
	if winning != nil {
		win = winning.String()
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO settlement_ledger(id, phase_id, winning_number, total_in, total_out, profit, closed_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, id, win, entry.TotalIn, entry.TotalOut, entry.Profit, entry.ClosedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return settlement.Entry{}, ErrAlreadySettled
		}
		return settlement.Entry{}, fmt.Errorf("insert ledger: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE phases SET active=false, end_date=$2 WHERE id=$1`, id, entry.ClosedAt); err != nil {
		return settlement.Entry{}, fmt.Errorf("close phase: %w", err)
	}

	if err = tx.QueryRowContext(ctx, `SELECT name FROM phases WHERE id=$1`, id).Scan(&entry.PhaseName); err != nil {
		return settlement.Entry{}, err
	}
	return entry, tx.Commit()
}
