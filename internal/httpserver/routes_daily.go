// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses session)
//   - GET  /daily/leaderboard → top 20 results for today (or a given date)
//
// Everyone gets the same hard deck on a given day: the shuffle is seeded from
// HMAC(salt, date). Each owner gets one attempt per day, recorded in the DB
// when the game is dealt; the session is locked, so restart and difficulty
// change are refused. Ending or losing the session spends the attempt.
// Flips go through the regular /game/{id}/flip endpoint.

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/daily"
	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv   *Server
	store *daily.Store
	salt  string
	now   func() time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:   s,
		store: daily.NewStore(s.db),
		salt:  s.cfg.DailySalt,
		now:   s.cfg.Clock.Now,
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID   string         `json:"gameId"`
	Date     string         `json:"date"`
	Played   bool           `json:"played"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

// handleNew starts or resumes today's game.
//   - A stored result for today → Played=true.
//   - An attempt already started → resume its live session; if the session
//     was ended or swept, the attempt is spent → Played=true.
//   - Otherwise record the attempt and deal today's deck.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	owner := d.srv.ownerID(w, r)
	now := d.now().UTC()
	date := daily.DateKey(now)
	l := log.With().Str("owner", owner).Str("date", date).Logger()

	played, err := d.store.AlreadyPlayed(r.Context(), owner, date)
	if err != nil {
		l.Error().Err(err).Msg("daily already played")
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		writeJSON(w, newRes{Date: date, Played: true})
		return
	}

	id, started, err := d.store.StartAttempt(r.Context(), owner, date, uuid.NewString())
	if err != nil {
		l.Error().Err(err).Msg("daily start attempt")
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if !started {
		sess, err := d.srv.sessions.Get(r.Context(), id)
		if err != nil {
			l.Info().Str("gameId", id).Msg("daily attempt already spent")
			writeJSON(w, newRes{Date: date, Played: true})
			return
		}
		snap := sess.Snapshot().Public()
		writeJSON(w, newRes{GameID: id, Date: date, Snapshot: &snap})
		return
	}

	best, _ := d.srv.scores.Best(r.Context(), owner)
	st := game.New(d.srv.cfg.Symbols, deck.Hard, best, daily.Rand(now, d.salt))
	sess := session.New(st, session.Options{
		ID:     id,
		Owner:  owner,
		Locked: true,
		Daily:  true,
		Clock:  d.srv.cfg.Clock,
		OnComplete: func(c session.Completed) {
			d.srv.recordCompletion(c)
			d.recordResult(c, date)
		},
	})
	if err := d.srv.startSession(r, sess); err != nil {
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	l.Info().Str("gameId", id).Msg("daily game started")
	snap := sess.Snapshot().Public()
	writeJSON(w, newRes{GameID: id, Date: date, Snapshot: &snap})
}

// recordResult stores a finished daily game.
func (d *dailyServer) recordResult(c session.Completed, date string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.InsertResult(ctx, daily.Result{
		Owner: c.Owner, Date: date, Moves: c.Moves, Elapsed: c.Elapsed,
	}); err != nil {
		log.Warn().Err(err).Str("owner", c.Owner).Msg("insert daily result")
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string         `json:"date"`
	Top  []daily.Result `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, lbRes{Date: date, Top: rows})
}
