// internal/users/store.go
//
// Player accounts backed by the users table.
// Passwords are stored as bcrypt hashes; usernames are unique ignoring case.

package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrTaken is returned by Create when the username exists.
	ErrTaken = errors.New("username taken")
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrBadCredentials is returned by Authenticate for an unknown user or wrong password.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrInvalid wraps signup validation failures.
	ErrInvalid = errors.New("invalid signup")
)

// User is one account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`

	passwordHash string
}

type Store struct {
	db   *sql.DB
	cost int
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, cost: bcrypt.DefaultCost} }

// Validate checks username and password shape: 3–24 letters, digits or
// underscores, and 8–100 bytes of password.
func Validate(username, password string) error {
	if n := len(username); n < 3 || n > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", ErrInvalid)
	}
	for _, r := range username {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("%w: username may only use letters, digits and underscore", ErrInvalid)
		}
	}
	if n := len(password); n < 8 || n > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", ErrInvalid)
	}
	return nil
}

// Create validates, hashes and inserts a new account.
func (s *Store) Create(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := Validate(username, password); err != nil {
		return nil, err
	}
	if _, err := s.byUsername(ctx, username); err == nil {
		return nil, ErrTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           newID(),
		Username:     username,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		passwordHash: string(hash),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.passwordHash, u.CreatedAt.Format(time.RFC3339),
	); err != nil {
		// lost a race with another signup for the same name
		if _, lookupErr := s.byUsername(ctx, username); lookupErr == nil {
			return nil, ErrTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user when password matches.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.byUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// ByID looks a user up by id.
func (s *Store) ByID(ctx context.Context, id string) (*User, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id))
}

func (s *Store) byUsername(ctx context.Context, username string) (*User, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username=? COLLATE NOCASE`, username))
}

func (s *Store) scan(row *sql.Row) (*User, error) {
	var (
		u       User
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &u.passwordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// newID is 22 URL-safe characters from 16 random bytes.
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
