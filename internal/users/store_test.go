package users

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memory/apps/go-server/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	s := NewStore(conn)
	s.cost = bcrypt.MinCost
	return s
}

func TestValidate(t *testing.T) {
	cases := []struct {
		user, pass string
		ok         bool
	}{
		{"player_1", "longenough", true},
		{"ab", "longenough", false},
		{"this_name_is_far_too_long_", "longenough", false},
		{"bad name", "longenough", false},
		{"player", "short", false},
	}
	for _, c := range cases {
		err := Validate(c.user, c.pass)
		if (err == nil) != c.ok {
			t.Errorf("Validate(%q, %q) = %v", c.user, c.pass, err)
		}
		if err != nil && !errors.Is(err, ErrInvalid) {
			t.Errorf("Validate(%q) error not ErrInvalid: %v", c.user, err)
		}
	}
}

func TestCreateAndAuthenticate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "  Player_1 ", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "Player_1" || u.ID == "" {
		t.Fatalf("created %+v", u)
	}
	if _, err := s.Create(ctx, "player_1", "whatever123"); !errors.Is(err, ErrTaken) {
		t.Fatalf("duplicate create: %v", err)
	}

	got, err := s.Authenticate(ctx, "PLAYER_1", "hunter2hunter2")
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate = %+v, %v", got, err)
	}
	if _, err := s.Authenticate(ctx, "player_1", "wrong-password"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody", "hunter2hunter2"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user: %v", err)
	}

	byID, err := s.ByID(ctx, u.ID)
	if err != nil || byID.Username != "Player_1" || !byID.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("ByID = %+v, %v", byID, err)
	}
	if _, err := s.ByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: %v", err)
	}
}
