package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
)

// HotCount é quantos números quentes entram no snapshot
const HotCount = 10

// BoardSnapshot é o quadro de exposição de uma fase já calculado.
// Net guarda só as posições não zeradas; Board() reconstrói o tabuleiro.
type BoardSnapshot struct {
	PhaseID    string               `json:"phaseId"`
	Net        []exposure.Bet       `json:"net"`
	Hot        []exposure.HotNumber `json:"hot"`
	TotalBets  int                  `json:"totalBets"`
	Volume     decimal.Decimal      `json:"volume"`     // igual ao total_volume da fase
	BoardTotal decimal.Decimal      `json:"boardTotal"` // números + ADJ
	ComputedAt time.Time            `json:"computedAt"`
}

// NewBoardSnapshot agrega as apostas da fase
func NewBoardSnapshot(phaseID string, bets []exposure.Bet, now time.Time) BoardSnapshot {
	board := exposure.Aggregate(bets)
	return BoardSnapshot{
		PhaseID:    phaseID,
		Net:        board.Net(),
		Hot:        exposure.Hot(bets, HotCount),
		TotalBets:  len(bets),
		Volume:     exposure.PhaseVolume(bets),
		BoardTotal: board.Volume(),
		ComputedAt: now,
	}
}

func (s BoardSnapshot) Board() exposure.Board { return exposure.Aggregate(s.Net) }

// BoardCache guarda snapshots no Redis em "exposure:board:{phaseID}".
// Cada fase tem um contador de versão que Invalidate incrementa; SetAt só
// grava se a versão lida antes de carregar as apostas ainda for a atual.
type BoardCache struct {
	R   *redis.Client
	TTL time.Duration
}

// versionTTL mantém o contador vivo bem além do TTL dos snapshots
const versionTTL = 24 * time.Hour

func NewBoardCache(r *redis.Client, ttl time.Duration) *BoardCache {
	return &BoardCache{R: r, TTL: ttl}
}

func keyBoard(phaseID string) string   { return "exposure:board:" + phaseID }
func keyVersion(phaseID string) string { return "exposure:board:" + phaseID + ":version" }

// Get retorna (snapshot, true) no hit; (zero, false, nil) no miss
func (c *BoardCache) Get(ctx context.Context, phaseID string) (BoardSnapshot, bool, error) {
	var snap BoardSnapshot
	b, err := c.R.Get(ctx, keyBoard(phaseID)).Bytes()
	if err == redis.Nil {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

// Version lê o contador de invalidações da fase (0 quando nunca invalidada)
func (c *BoardCache) Version(ctx context.Context, phaseID string) (int64, error) {
	v, err := c.R.Get(ctx, keyVersion(phaseID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// SetAt grava o snapshot se nenhuma invalidação aconteceu desde Version.
// Retorna false (sem erro) quando o snapshot ficou velho e foi descartado.
func (c *BoardCache) SetAt(ctx context.Context, snap BoardSnapshot, version int64) (bool, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return false, err
	}
	stored := false
	vkey := keyVersion(snap.PhaseID)
	err = c.R.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyBoard(snap.PhaseID), b, c.TTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidado entre o GET e o EXEC
		return false, nil
	}
	return stored, err
}

// Invalidate sobe a versão e remove o snapshot; a próxima leitura recalcula
func (c *BoardCache) Invalidate(ctx context.Context, phaseID string) error {
	_, err := c.R.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyVersion(phaseID))
		pipe.Expire(ctx, keyVersion(phaseID), versionTTL)
		pipe.Del(ctx, keyBoard(phaseID))
		return nil
	})
	return err
}
