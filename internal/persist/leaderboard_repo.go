package persist

import (
	"context"
	"fmt"

	"github.com/gravitybox/game/internal/leaderboard"
)

// LeaderboardRepo is the Postgres-backed authoritative leaderboard.
// It satisfies leaderboard.Remote.
type LeaderboardRepo struct {
	db *DB
}

func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

func (r *LeaderboardRepo) ReadAll(ctx context.Context) (*leaderboard.Shots, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT level_id, shots, players FROM shots_leaderboard WHERE players > 0`,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	s := leaderboard.NewShots()
	for rows.Next() {
		var level, shots int
		var players int64
		if err := rows.Scan(&level, &shots, &players); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		s.Set(level, shots, players)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return s, nil
}

// Adjust applies delta to a bucket, clamped at zero, and records the
// adjustment in the audit log within one transaction.
func (r *LeaderboardRepo) Adjust(ctx context.Context, level, shots int, delta int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("adjust begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO shots_leaderboard (level_id, shots, players)
		 VALUES ($1, $2, GREATEST($3::BIGINT, 0))
		 ON CONFLICT (level_id, shots)
		 DO UPDATE SET players = GREATEST(shots_leaderboard.players + $3::BIGINT, 0)`,
		level, shots, delta,
	); err != nil {
		return fmt.Errorf("adjust bucket: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO leaderboard_adjustments (level_id, shots, delta) VALUES ($1, $2, $3)`,
		level, shots, delta,
	); err != nil {
		return fmt.Errorf("adjust log: %w", err)
	}

	return tx.Commit(ctx)
}

// PruneAdjustments deletes audit rows older than keep days.
func (r *LeaderboardRepo) PruneAdjustments(ctx context.Context, keepDays int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM leaderboard_adjustments WHERE created_at < now() - make_interval(days => $1)`,
		keepDays,
	)
	if err != nil {
		return 0, fmt.Errorf("prune adjustments: %w", err)
	}
	return tag.RowsAffected(), nil
}
