package scores

import (
	"context"
	"testing"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/db"
)

// stores runs fn against both implementations.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sql", func(t *testing.T) {
		conn, err := db.OpenMemory()
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		fn(t, NewSQL(conn))
	})
}

func TestBestOnlyDecreases(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if b, err := s.Best(ctx, "me"); err != nil || b != 0 {
			t.Fatalf("empty best = %d, %v", b, err)
		}
		steps := []struct {
			moves   int
			changed bool
			best    int
		}{
			{10, true, 10},
			{12, false, 10},
			{10, false, 10},
			{7, true, 7},
			{0, false, 7},
		}
		for _, st := range steps {
			changed, err := s.RecordBest(ctx, "me", st.moves)
			if err != nil {
				t.Fatal(err)
			}
			if changed != st.changed {
				t.Errorf("RecordBest(%d) changed=%v, want %v", st.moves, changed, st.changed)
			}
			if b, _ := s.Best(ctx, "me"); b != st.best {
				t.Errorf("after %d best=%d, want %d", st.moves, b, st.best)
			}
		}
		if b, _ := s.Best(ctx, "other"); b != 0 {
			t.Errorf("best leaked across owners: %d", b)
		}
	})
}

func TestGamesAndStats(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		for i, moves := range []int{9, 8, 11} {
			g := Game{ID: string(rune('a' + i)), Owner: "me", Difficulty: "easy", Moves: moves, Elapsed: 30, FinishedAt: base.Add(time.Duration(i) * time.Minute)}
			if err := s.RecordGame(ctx, g); err != nil {
				t.Fatal(err)
			}
		}
		// Duplicate ids are ignored.
		_ = s.RecordGame(ctx, Game{ID: "a", Owner: "me", Moves: 1, FinishedAt: base})
		_ = s.RecordGame(ctx, Game{ID: "z", Owner: "you", Moves: 3, FinishedAt: base})
		_, _ = s.RecordBest(ctx, "me", 8)

		games, err := s.Games(ctx, "me", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(games) != 2 || games[0].ID != "c" || games[1].ID != "b" {
			t.Fatalf("games = %+v", games)
		}
		st, err := s.Stats(ctx, "me")
		if err != nil {
			t.Fatal(err)
		}
		if st.GamesPlayed != 3 || st.BestScore != 8 {
			t.Fatalf("stats = %+v", st)
		}
	})
}

func TestClaimMergesBest(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, _ = s.RecordBest(ctx, "anon", 6)
		_, _ = s.RecordBest(ctx, "user", 9)
		_ = s.RecordGame(ctx, Game{ID: "g1", Owner: "anon", Difficulty: "hard", Moves: 6})

		if err := s.Claim(ctx, "anon", "user"); err != nil {
			t.Fatal(err)
		}
		if b, _ := s.Best(ctx, "user"); b != 6 {
			t.Fatalf("user best = %d, want 6", b)
		}
		if b, _ := s.Best(ctx, "anon"); b != 0 {
			t.Fatalf("anon best = %d, want 0", b)
		}
		if st, _ := s.Stats(ctx, "user"); st.GamesPlayed != 1 {
			t.Fatalf("claimed games = %d", st.GamesPlayed)
		}
	})
}
