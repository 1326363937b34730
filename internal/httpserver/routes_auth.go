// internal/httpserver/routes_auth.go
//
// Accounts, tokens and player identity.
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me
//   - GET  /stats/me   (games played, best score)
//   - GET  /games/mine (last 50 finished games)
//
// Every game request has an owner: the logged-in user id, or a stable
// anonymous id kept in a cookie. Anonymous history is claimed on login.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/users"
)

const (
	anonCookieName = "memory_anon"
	anonCookieTTL  = 180 * 24 * time.Hour
	historyLimit   = 50
)

// credentials is the body of signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// tokenClaims carries the user id as the subject.
type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, currentUser(r))
		})
	})
	r.With(s.requireAuth).Get("/stats/me", s.handleMyStats)
	r.With(s.requireAuth).Get("/games/mine", s.handleMyGames)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "bad_json")
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, users.ErrTaken):
		httpError(w, http.StatusConflict, "username_taken")
		return
	case errors.Is(err, users.ErrInvalid):
		httpError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("signup")
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	s.startLogin(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "bad_json")
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, users.ErrBadCredentials):
		httpError(w, http.StatusUnauthorized, "bad_credentials")
		return
	case err != nil:
		log.Error().Err(err).Msg("login")
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	s.startLogin(w, r, u)
}

// startLogin sets the auth cookie, moves the guest's history to u and
// answers with the user.
func (s *Server) startLogin(w http.ResponseWriter, r *http.Request, u *users.User) {
	tok, exp, err := s.signToken(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		httpError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	http.SetCookie(w, s.cookie(s.cfg.CookieName, tok, exp))
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		if err := s.scores.Claim(r.Context(), c.Value, u.ID); err != nil {
			log.Warn().Err(err).Str("user", u.ID).Msg("claim guest history")
		}
	}
	writeJSON(w, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := s.cookie(s.cfg.CookieName, "", time.Time{})
	c.MaxAge = -1
	http.SetCookie(w, c)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := s.scores.Stats(r.Context(), me.ID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, struct {
		ID string `json:"id"`
		scores.Stats
	}{me.ID, st})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.scores.Games(r.Context(), currentUser(r).ID, historyLimit)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, games)
}

// ------------------------------- identity ----------------------------------

// currentUser returns the authenticated user, or nil for guests.
func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// ownerID is the user id when logged in, else the guest id.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// ensureAnonID returns the guest id from its cookie, issuing one if missing.
// A new id is also added to r so later calls in the same request agree.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, s.cookie(anonCookieName, id, time.Now().Add(anonCookieTTL)))
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

// withOptionalAuth attaches the user when a valid token is present. Guests pass through.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.userFromToken(r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth answers 401 unless a valid token is present.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.userFromToken(r)
		if u == nil {
			httpError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

// userFromToken validates the bearer or cookie token and checks the account still exists.
func (s *Server) userFromToken(r *http.Request) *authUser {
	if s.users == nil {
		return nil
	}
	raw := tokenFromRequest(r, s.cfg.CookieName)
	if raw == "" {
		return nil
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return nil
	}
	u, err := s.users.ByID(r.Context(), claims.Subject)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			log.Warn().Err(err).Msg("token user lookup")
		}
		return nil
	}
	return &authUser{ID: u.ID, Username: u.Username}
}

// signToken issues an HS256 token for u valid for JWTExpiresDays.
func (s *Server) signToken(u *users.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString([]byte(s.cfg.JWTSecret))
	return signed, exp, err
}

// cookie builds an HttpOnly cookie for the whole site. Production cookies
// are Secure and SameSite=None so a client on another origin can send them.
func (s *Server) cookie(name, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.Production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// tokenFromRequest reads "Authorization: Bearer <t>", falling back to the auth cookie.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(tok)
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
