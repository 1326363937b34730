// internal/httpserver/server.go
//
// HTTP server wiring for the memory game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/help".
//   - Game endpoints (optional auth): /game/* and the websocket stream.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//   - Completion handling: best score, history, daily result, event.
//
// Notes:
//   - Without a database the server still plays games; best scores are kept
//     in memory and the auth and daily routes are not mounted.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/events"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/users"
)

// Config carries everything the handlers read from the environment.
type Config struct {
	ClientOrigin      string
	JWTSecret         string
	JWTExpiresDays    int
	CookieName        string
	Production        bool
	DailySalt         string
	DefaultDifficulty deck.Difficulty
	Symbols           []deck.Symbol
	Help              string

	// Clock drives session timers; nil means real time.
	Clock session.Clock
	// Publisher receives completion events; nil means none.
	Publisher events.Publisher
}

func (c *Config) defaults() {
	if c.ClientOrigin == "" {
		c.ClientOrigin = "http://localhost:5173"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "dev_secret_change_me"
	}
	if c.JWTExpiresDays <= 0 {
		c.JWTExpiresDays = 14
	}
	if c.CookieName == "" {
		c.CookieName = "memory_token"
	}
	if c.DailySalt == "" {
		c.DailySalt = "local_dev_salt"
	}
	if c.DefaultDifficulty == "" {
		c.DefaultDifficulty = deck.Medium
	}
	if len(c.Symbols) == 0 {
		c.Symbols = deck.DefaultSymbols
	}
	if c.Clock == nil {
		c.Clock = session.RealClock{}
	}
	if c.Publisher == nil {
		c.Publisher = events.Nop{}
	}
}

// Server bundles router, live sessions, score store and DB handle.
type Server struct {
	cfg      Config
	r        *chi.Mux
	sessions store.Store
	scores   scores.Store
	users    *users.Store // nil without a database
	db       *sql.DB
	daily    *dailyServer

	// ctx scopes every session clock; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
	http   *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
// db may be nil.
func New(cfg Config, sessions store.Store, db *sql.DB) *Server {
	cfg.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{cfg: cfg, r: chi.NewRouter(), sessions: sessions, db: db, ctx: ctx, cancel: cancel}
	if db != nil {
		s.scores = scores.NewSQL(db)
		s.users = users.NewStore(db)
	} else {
		s.scores = scores.NewMemory()
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)       // one zerolog line per request
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// Websocket stream: no handler timeout, no JSON content type.
	s.r.With(s.withOptionalAuth).Get("/game/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"memory-go","endpoints":["/health","/help","POST /game/new","POST /game/{id}/flip","GET /game/{id}/ws","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/help", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]string{"help": s.cfg.Help})
		})
		r.Get("/debug/symbols", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"count": len(s.cfg.Symbols), "symbols": s.cfg.Symbols})
		})

		// Game endpoints: OPTIONAL AUTH (guests can play)
		s.mountGame(r.With(s.withOptionalAuth))

		if db != nil {
			// Daily Challenge: OPTIONAL AUTH (guests can play; result persisted on completion)
			s.mountDaily(r.With(s.withOptionalAuth))
			// Auth + profile/stats (require auth)
			s.mountAuthRoutes(r)
		}
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr. It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops every session clock and drains HTTP connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.sessions.CloseAll()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- completion ----------------------------------

// recordCompletion persists a finished game. The stored best score is the
// authority: the session's copy was read when it was dealt and may be stale
// if another game of the same owner finished since. Failures are logged only;
// the player's move already happened and the best score is cosmetic.
func (s *Server) recordCompletion(c session.Completed) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l := log.With().Str("gameId", c.SessionID).Str("owner", c.Owner).Logger()

	newBest, err := s.scores.RecordBest(ctx, c.Owner, c.Moves)
	if err != nil {
		l.Warn().Err(err).Msg("record best score")
		newBest = c.NewBest
	}
	if best, err := s.scores.Best(ctx, c.Owner); err != nil {
		l.Warn().Err(err).Msg("reload best score")
	} else if best > 0 {
		if sess, err := s.sessions.Get(ctx, c.SessionID); err == nil {
			sess.SetBest(best)
		}
	}

	if err := s.scores.RecordGame(ctx, scores.Game{
		ID:         c.SessionID,
		Owner:      c.Owner,
		Difficulty: string(c.Difficulty),
		Moves:      c.Moves,
		Elapsed:    c.Elapsed,
		Daily:      c.Daily,
	}); err != nil {
		l.Warn().Err(err).Msg("record game")
	}
	if err := s.cfg.Publisher.PublishCompleted(ctx, events.GameCompleted{
		GameID:     c.SessionID,
		Owner:      c.Owner,
		Difficulty: string(c.Difficulty),
		Moves:      c.Moves,
		Elapsed:    c.Elapsed,
		NewBest:    newBest,
		Daily:      c.Daily,
	}); err != nil {
		l.Warn().Err(err).Msg("publish completion")
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- small util --------------------------------

// httpError writes {"error": code} with status.
func httpError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
