package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

const ledgerColumns = `l.id, l.phase_id, p.name, l.winning_number, l.total_in, l.total_out, l.profit, l.closed_at`

func scanLedger(row interface{ Scan(...any) error }) (settlement.Entry, error) {
	var (
		e   settlement.Entry
		win sql.NullString
	)
	if err := row.Scan(&e.ID, &e.PhaseID, &e.PhaseName, &win, &e.TotalIn, &e.TotalOut, &e.Profit, &e.ClosedAt); err != nil {
		return e, err
	}
	if win.Valid {
		s, err := slot.Parse(win.String)
		if err != nil {
			return e, fmt.Errorf("ledger winning number: %w", err)
		}
		e.WinningNumber = &s
	}
	return e, nil
}

// ListLedger lista os fechamentos, mais recentes primeiro
func (p *Postgres) ListLedger(ctx context.Context) ([]settlement.Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM settlement_ledger l JOIN phases p ON p.id = l.phase_id
		ORDER BY l.closed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	out := []settlement.Entry{}
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) LedgerByPhase(ctx context.Context, phaseID string) (settlement.Entry, error) {
	e, err := scanLedger(p.db.QueryRowContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM settlement_ledger l JOIN phases p ON p.id = l.phase_id
		WHERE l.phase_id=$1`, phaseID))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}
