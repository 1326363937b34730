package daily

import (
	"context"
	"testing"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/db"
	"github.com/robalobadob/memory/apps/go-server/internal/deck"
)

func TestDateKeyUTC(t *testing.T) {
	loc := time.FixedZone("east", 10*3600)
	got := DateKey(time.Date(2026, 3, 1, 5, 0, 0, 0, loc))
	if got != "2026-02-28" {
		t.Fatalf("DateKey = %s", got)
	}
}

func TestSeedStablePerDay(t *testing.T) {
	morning := time.Date(2026, 5, 4, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)
	next := morning.Add(24 * time.Hour)

	if Seed(morning, "s") != Seed(evening, "s") {
		t.Fatal("seed changed within a day")
	}
	if Seed(morning, "s") == Seed(next, "s") {
		t.Fatal("seed did not change across days")
	}
	if Seed(morning, "s") == Seed(morning, "t") {
		t.Fatal("salt ignored")
	}
	if Seed(morning, "s") < 0 {
		t.Fatal("negative seed")
	}
}

func TestDailyDeckShared(t *testing.T) {
	day := time.Date(2026, 7, 7, 12, 0, 0, 0, time.UTC)
	a := deck.Generate(deck.DefaultSymbols, 14, Rand(day, "salt"))
	b := deck.Generate(deck.DefaultSymbols, 14, Rand(day, "salt"))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("players got different daily decks at %d", i)
		}
	}
}

func TestStoreLeaderboard(t *testing.T) {
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	s := NewStore(conn)
	ctx := context.Background()

	for _, r := range []Result{
		{Owner: "slow", Date: "2026-01-01", Moves: 9, Elapsed: 90},
		{Owner: "fast", Date: "2026-01-01", Moves: 9, Elapsed: 40},
		{Owner: "best", Date: "2026-01-01", Moves: 7, Elapsed: 120},
		{Owner: "other-day", Date: "2026-01-02", Moves: 1, Elapsed: 1},
	} {
		if err := s.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := conn.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('fast', 'Speedy', 'x', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	// second attempt on the same day is ignored
	_ = s.InsertResult(ctx, Result{Owner: "slow", Date: "2026-01-01", Moves: 1, Elapsed: 1})

	played, err := s.AlreadyPlayed(ctx, "slow", "2026-01-01")
	if err != nil || !played {
		t.Fatalf("AlreadyPlayed = %v, %v", played, err)
	}
	if played, _ := s.AlreadyPlayed(ctx, "slow", "2026-01-02"); played {
		t.Fatal("AlreadyPlayed leaked across dates")
	}

	top, err := s.Leaderboard(ctx, "2026-01-01", 20)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"best", "fast", "slow"}
	if len(top) != len(want) {
		t.Fatalf("leaderboard = %+v", top)
	}
	for i, o := range want {
		if top[i].Owner != o {
			t.Fatalf("rank %d = %s, want %s (%+v)", i, top[i].Owner, o, top)
		}
	}
	if top[2].Moves != 9 {
		t.Fatalf("duplicate insert overwrote result: %+v", top[2])
	}
	if top[0].Player != GuestName || top[1].Player != "Speedy" {
		t.Fatalf("player names = %q, %q", top[0].Player, top[1].Player)
	}
}

func TestStartAttemptOncePerDay(t *testing.T) {
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	s := NewStore(conn)
	ctx := context.Background()

	id, started, err := s.StartAttempt(ctx, "anon", "2026-01-01", "game-1")
	if err != nil || !started || id != "game-1" {
		t.Fatalf("first attempt = %q, %v, %v", id, started, err)
	}
	id, started, err = s.StartAttempt(ctx, "anon", "2026-01-01", "game-2")
	if err != nil || started || id != "game-1" {
		t.Fatalf("second attempt = %q, %v, %v", id, started, err)
	}
	if _, started, _ := s.StartAttempt(ctx, "anon", "2026-01-02", "game-3"); !started {
		t.Fatal("attempt blocked on the next day")
	}
	if _, started, _ := s.StartAttempt(ctx, "someone", "2026-01-01", "game-4"); !started {
		t.Fatal("attempt blocked for another owner")
	}
}
