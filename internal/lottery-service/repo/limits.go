package repo

import (
	"context"
	"fmt"

	"github.com/radieske/ova-3d-platform/internal/shared/db"
)

// ListLimits lista os limites por número da fase
func (p *Postgres) ListLimits(ctx context.Context, phaseID string) ([]NumberLimit, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT phase_id, number, max_amount FROM number_limits WHERE phase_id=$1 ORDER BY number`, phaseID)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	out := []NumberLimit{}
	for rows.Next() {
		var l NumberLimit
		if err := rows.Scan(&l.PhaseID, &l.Number, &l.MaxAmount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpsertLimits grava (ou atualiza) os limites numa transação; fase fechada recusa
func (p *Postgres) UpsertLimits(ctx context.Context, phaseID string, limits []NumberLimit) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, settled, err := lockPhase(ctx, tx, phaseID); err != nil {
		return err
	} else if settled {
		return ErrPhaseSettled
	}

	for _, l := range limits {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO number_limits(phase_id, number, max_amount) VALUES($1,$2,$3)
			ON CONFLICT (phase_id, number) DO UPDATE SET max_amount = EXCLUDED.max_amount`,
			phaseID, l.Number, l.MaxAmount); err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("upsert limit: %w", err)
		}
	}
	return tx.Commit()
}
