package store

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

func newSession(id string) *session.Session {
	st := game.New(deck.DefaultSymbols, deck.Easy, 0, rand.New(rand.NewSource(1)))
	return session.New(st, session.Options{ID: id})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := newSession("a")
	if err := m.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatal("session still registered after Delete")
	}
	if _, _, err := s.Flip(0); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("deleted session not closed: %v", err)
	}
}

func TestSaveReplacesAndClosesOld(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	old, fresh := newSession("a"), newSession("a")
	_ = m.Save(ctx, old)
	_ = m.Save(ctx, fresh)
	if _, _, err := old.Flip(0); !errors.Is(err, session.ErrClosed) {
		t.Fatal("replaced session left open")
	}
	if got, _ := m.Get(ctx, "a"); got != fresh {
		t.Fatal("Get returned the old session")
	}
}

func TestSweepIdle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_ = m.Save(ctx, newSession("a"))
	_ = m.Save(ctx, newSession("b"))

	if n := m.Sweep(ctx, time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("swept %d fresh sessions", n)
	}
	if n := m.Sweep(ctx, time.Now().Add(time.Hour)); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatal("swept session still registered")
	}
}

func TestCloseAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := newSession("a")
	_ = m.Save(ctx, s)
	m.CloseAll()
	if _, _, err := s.Flip(0); !errors.Is(err, session.ErrClosed) {
		t.Fatal("CloseAll left session open")
	}
}
