package daily

import (
	"context"
	"database/sql"
)

// GuestName is shown on the leaderboard for owners without an account.
const GuestName = "guest"

// Result is one owner's finished daily game.
// Owner ids double as guest credentials and are never serialized.
type Result struct {
	Owner   string `json:"-"`
	Player  string `json:"player"`
	Date    string `json:"date"`
	Moves   int    `json:"moves"`
	Elapsed int    `json:"elapsed"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether owner has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, owner, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE owner_id=? AND date=?",
		owner, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// StartAttempt records that owner started the daily game for date as gameID.
// If an attempt already exists it is left untouched, and its game id is
// returned with started=false.
func (s *Store) StartAttempt(ctx context.Context, owner, date, gameID string) (existing string, started bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_attempts(owner_id, date, game_id) VALUES(?,?,?)
		ON CONFLICT(owner_id, date) DO NOTHING`, owner, date, gameID,
	)
	if err != nil {
		return "", false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return gameID, true, nil
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT game_id FROM daily_attempts WHERE owner_id=? AND date=?", owner, date,
	).Scan(&existing)
	return existing, false, err
}

// InsertResult stores r; a second result for the same owner and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(owner_id, date, moves, elapsed_s)
		VALUES(?,?,?,?)`, r.Owner, r.Date, r.Moves, r.Elapsed,
	)
	return err
}

// Leaderboard returns the best results for date: fewest moves, then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.owner_id, COALESCE(u.username, ''), d.moves, d.elapsed_s
		FROM daily_results d
		LEFT JOIN users u ON u.id = d.owner_id
		WHERE d.date=?
		ORDER BY d.moves ASC, d.elapsed_s ASC, d.created_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		r := Result{Date: date}
		if err := rows.Scan(&r.Owner, &r.Player, &r.Moves, &r.Elapsed); err != nil {
			return nil, err
		}
		if r.Player == "" {
			r.Player = GuestName
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
