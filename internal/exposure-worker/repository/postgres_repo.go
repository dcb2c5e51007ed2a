package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
)

// PostgresRepo é o lado de leitura do worker: apostas e contadores das fases
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// PhaseCounters são os contadores persistidos de uma fase ainda não fechada
type PhaseCounters struct {
	ID          string
	Name        string
	TotalBets   int
	TotalVolume decimal.Decimal
}

// PhaseBets lê as apostas da fase (número e valor)
func (r *PostgresRepo) PhaseBets(ctx context.Context, phaseID string) ([]exposure.Bet, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT number, amount FROM bets WHERE phase_id=$1`, phaseID)
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

// OpenPhases lista as fases sem lançamento no livro de fechamentos
func (r *PostgresRepo) OpenPhases(ctx context.Context) ([]PhaseCounters, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT p.id, p.name, p.total_bets, p.total_volume
		  FROM phases p
		 WHERE NOT EXISTS (SELECT 1 FROM settlement_ledger l WHERE l.phase_id = p.id)
		 ORDER BY p.start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query open phases: %w", err)
	}
	defer rows.Close()

	var out []PhaseCounters
	for rows.Next() {
		var pc PhaseCounters
		if err := rows.Scan(&pc.ID, &pc.Name, &pc.TotalBets, &pc.TotalVolume); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// RepairCounters regrava total_bets/total_volume a partir das apostas.
// Fase já fechada não é tocada.
func (r *PostgresRepo) RepairCounters(ctx context.Context, phaseID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE phases SET
		  total_bets   = (SELECT COUNT(*) FROM bets WHERE phase_id=$1),
		  total_volume = GREATEST($2::DECIMAL, COALESCE((SELECT SUM(amount) FROM bets WHERE phase_id=$1), 0))
		WHERE id=$1
		  AND NOT EXISTS (SELECT 1 FROM settlement_ledger WHERE phase_id=$1)`,
		phaseID, exposure.VolumeFloor.String())
	if err != nil {
		return fmt.Errorf("repair phase counters: %w", err)
	}
	return nil
}
