// internal/httpserver/routes_game.go
//
// HTTP routes for regular games.
//   - POST   /game/new             → deal a game, start its clock
//   - GET    /game/{id}            → current snapshot
//   - POST   /game/{id}/flip       → flip one card
//   - POST   /game/{id}/restart    → new deck, same difficulty
//   - POST   /game/{id}/difficulty → new deck at another difficulty
//   - POST   /game/{id}/sound      → toggle the sound flag
//   - DELETE /game/{id}            → tear the session down
//
// A session belongs to the owner that created it (user id or anon cookie);
// other callers get 404.

package httpserver

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Delete("/", s.handleEndGame)
		r.Post("/flip", s.handleFlip)
		r.Post("/restart", s.handleRestart)
		r.Post("/difficulty", s.handleDifficulty)
		r.Post("/sound", s.handleSound)
	})
}

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Difficulty string `json:"difficulty"` // "easy" | "medium" | "hard"; empty → server default
}
type newGameRes struct {
	GameID   string        `json:"gameId"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// handleNewGame deals a game for the caller, loading their best score first.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// an empty body deals at the default difficulty
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, http.StatusBadRequest, "bad_json")
		return
	}

	d := s.cfg.DefaultDifficulty
	if req.Difficulty != "" {
		var err error
		if d, err = deck.ParseDifficulty(req.Difficulty); err != nil {
			httpError(w, http.StatusBadRequest, "unknown_difficulty")
			return
		}
	}

	owner := s.ownerID(w, r)
	best, err := s.scores.Best(r.Context(), owner)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("load best score")
	}

	st := game.New(s.cfg.Symbols, d, best, newRand())
	sess := session.New(st, session.Options{
		ID:         uuid.NewString(),
		Owner:      owner,
		Clock:      s.cfg.Clock,
		OnComplete: s.recordCompletion,
	})
	if err := s.startSession(r, sess); err != nil {
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", sess.ID).Str("owner", owner).Str("difficulty", string(d)).Msg("new game")
	writeJSON(w, newGameRes{GameID: sess.ID, Snapshot: sess.Snapshot().Public()})
}

// startSession registers sess and runs its clock for the server's lifetime.
func (s *Server) startSession(r *http.Request, sess *session.Session) error {
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("gameId", sess.ID).Msg("save session")
		return err
	}
	sess.Start(s.ctx)
	return nil
}

// lookup resolves {id} to a session owned by the caller, writing 404 otherwise.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || sess.Owner != s.ownerID(w, r) {
		httpError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, sess.Snapshot().Public())
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	_ = s.sessions.Delete(r.Context(), sess.ID)
	writeJSON(w, map[string]bool{"ok": true})
}

// flipReq/Res payloads for POST /game/{id}/flip.
type flipReq struct {
	CardID *int `json:"cardId"`
}
type flipRes struct {
	Accepted bool          `json:"accepted"`
	Snapshot game.Snapshot `json:"snapshot"`
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req flipReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == nil {
		httpError(w, http.StatusBadRequest, "bad_json")
		return
	}
	accepted, snap, err := sess.Flip(*req.CardID)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, flipRes{Accepted: accepted, Snapshot: snap.Public()})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondSnapshot(w)(sess.Restart())
}

type difficultyReq struct {
	Level string `json:"level"`
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req difficultyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, err := deck.ParseDifficulty(req.Level)
	if err != nil {
		httpError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	respondSnapshot(w)(sess.SetDifficulty(d))
}

func (s *Server) handleSound(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondSnapshot(w)(sess.ToggleSound())
}

func respondSnapshot(w http.ResponseWriter) func(game.Snapshot, error) {
	return func(snap game.Snapshot, err error) {
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, snap.Public())
	}
}

// writeSessionError maps session errors to status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidCard):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrLocked):
		status = http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		status = http.StatusGone
	}
	httpError(w, status, errorCode(err))
}

// newRand returns a math/rand source seeded from crypto/rand.
func newRand() *rand.Rand {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(b[:]))))
}
