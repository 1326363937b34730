// internal/scores/store.go
//
// Best-score and finished-game persistence.
// Responsibilities:
//   - One best score per owner (user id or anonymous id); it only ever decreases.
//   - A history row per finished game for /games/mine and /stats/me.
//   - Moving anonymous history to an account after login.
//
// Implementations: SQL (this file) and memory (memory.go).

package scores

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Game is a finished game as stored in history.
type Game struct {
	ID         string    `json:"id"`
	Owner      string    `json:"-"`
	Difficulty string    `json:"difficulty"`
	Moves      int       `json:"moves"`
	Elapsed    int       `json:"elapsed"`
	Daily      bool      `json:"daily"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Stats summarizes an owner's history.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	BestScore   int `json:"bestScore"`
}

// Store persists scores.
type Store interface {
	// Best returns the stored best score, 0 if none.
	Best(ctx context.Context, owner string) (int, error)
	// RecordBest stores moves if it beats the current best (or none exists).
	// It reports whether the stored value changed.
	RecordBest(ctx context.Context, owner string, moves int) (bool, error)
	RecordGame(ctx context.Context, g Game) error
	Games(ctx context.Context, owner string, limit int) ([]Game, error)
	Stats(ctx context.Context, owner string) (Stats, error)
	// Claim reassigns everything owned by from to to.
	Claim(ctx context.Context, from, to string) error
}

// SQL is a Store over the best_scores and games tables.
type SQL struct{ db *sql.DB }

// NewSQL wraps a migrated database.
func NewSQL(db *sql.DB) *SQL { return &SQL{db: db} }

func (s *SQL) Best(ctx context.Context, owner string) (int, error) {
	var moves int
	err := s.db.QueryRowContext(ctx, `SELECT moves FROM best_scores WHERE owner_id=?`, owner).Scan(&moves)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return moves, err
}

func (s *SQL) RecordBest(ctx context.Context, owner string, moves int) (bool, error) {
	if moves <= 0 {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO best_scores (owner_id, moves, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(owner_id) DO UPDATE SET moves=excluded.moves, updated_at=excluded.updated_at
        WHERE excluded.moves < best_scores.moves`,
		owner, moves, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQL) RecordGame(ctx context.Context, g Game) error {
	if g.FinishedAt.IsZero() {
		g.FinishedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO games (id, owner_id, difficulty, moves, elapsed_s, daily, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Owner, g.Difficulty, g.Moves, g.Elapsed, boolInt(g.Daily), g.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQL) Games(ctx context.Context, owner string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, difficulty, moves, elapsed_s, daily, finished_at
        FROM games WHERE owner_id=?
        ORDER BY finished_at DESC, rowid DESC
        LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Game{}
	for rows.Next() {
		var g Game
		var daily int
		var finished string
		if err := rows.Scan(&g.ID, &g.Difficulty, &g.Moves, &g.Elapsed, &daily, &finished); err != nil {
			return nil, err
		}
		g.Owner = owner
		g.Daily = daily != 0
		g.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQL) Stats(ctx context.Context, owner string) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games WHERE owner_id=?`, owner).Scan(&st.GamesPlayed); err != nil {
		return st, err
	}
	best, err := s.Best(ctx, owner)
	st.BestScore = best
	return st, err
}

// Claim moves games and merges the best score (keeping the lower one).
func (s *SQL) Claim(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET owner_id=? WHERE owner_id=?`, to, from); err != nil {
		return err
	}
	var moves int
	err = tx.QueryRowContext(ctx, `SELECT moves FROM best_scores WHERE owner_id=?`, from).Scan(&moves)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO best_scores (owner_id, moves, updated_at) VALUES (?, ?, ?)
            ON CONFLICT(owner_id) DO UPDATE SET moves=excluded.moves, updated_at=excluded.updated_at
            WHERE excluded.moves < best_scores.moves`,
			to, moves, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM best_scores WHERE owner_id=?`, from); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
