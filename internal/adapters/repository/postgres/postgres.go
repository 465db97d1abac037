// Package postgres mirrors rating history and matchup results into Postgres.
// The JSON files stay authoritative; the mirror is for querying.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/arena/internal/domain/types"
)

//go:embed schema.sql
var schema embed.FS

// DB wraps a connection pool.
type DB struct{ *pgxpool.Pool }

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{p}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate applies the embedded schema. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// RecordHistory appends one rating update.
func (db *DB) RecordHistory(ctx context.Context, e types.HistoryEntry) error {
	_, err := db.Exec(ctx, `
		INSERT INTO rating_history(recorded_at, winner, loser, draw,
			winner_rating_before, loser_rating_before,
			winner_rating_after, loser_rating_after)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, e.Timestamp, string(e.Winner), string(e.Loser), e.Draw,
		e.WinnerRatingBefore, e.LoserRatingBefore,
		e.WinnerRatingAfter, e.LoserRatingAfter)
	return err
}

// RecordMatchup stores a unit result once; later writes for the same id are ignored.
func (db *DB) RecordMatchup(ctx context.Context, r types.MatchupResult) error {
	_, err := db.Exec(ctx, `
		INSERT INTO matchup_results(matchup_id, model1, model2, game_num,
			winner, loser, draw, total_turns, game_id, error, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (matchup_id) DO NOTHING
	`, r.MatchupID, string(r.Model1), string(r.Model2), r.GameNum,
		nullable(string(r.Winner)), nullable(string(r.Loser)), r.Draw,
		r.TotalTurns, nullable(r.GameID), nullable(r.Error), r.Timestamp)
	return err
}

// CountHistory returns the number of mirrored rating updates.
func (db *DB) CountHistory(ctx context.Context) (int64, error) {
	var n int64
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM rating_history`).Scan(&n)
	return n, err
}

// TruncateHistory empties the rating history, used when ratings are reset.
func (db *DB) TruncateHistory(ctx context.Context) error {
	_, err := db.Exec(ctx, `TRUNCATE rating_history`)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
