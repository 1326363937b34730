package deck

import (
	"math/rand"
	"testing"
)

func TestGeneratePairsAndSizes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, tc := range []struct {
		size int
		want int
	}{
		{12, 12},
		{14, 14},
		{16, 14}, // capped by the seven default symbols
		{13, 12}, // odd sizes truncate
		{0, 0},
		{2, 2},
	} {
		cards := Generate(DefaultSymbols, tc.size, r)
		if len(cards) != tc.want {
			t.Errorf("Generate(%d): got %d cards, want %d", tc.size, len(cards), tc.want)
		}
		if !Valid(cards) {
			t.Errorf("Generate(%d): deck not made of pairs: %+v", tc.size, cards)
		}
		for _, c := range cards {
			if c.IsFlipped || c.IsMatched {
				t.Errorf("Generate(%d): card %d not face-down", tc.size, c.ID)
			}
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	a := Generate(DefaultSymbols, 14, rand.New(rand.NewSource(42)))
	b := Generate(DefaultSymbols, 14, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed dealt different decks at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

// Every position should see every symbol over enough deals.
func TestShuffleCoversPositions(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	seen := make([]map[Symbol]bool, 14)
	for i := range seen {
		seen[i] = map[Symbol]bool{}
	}
	for n := 0; n < 2000; n++ {
		for i, c := range Generate(DefaultSymbols, 14, r) {
			seen[i][c.Symbol] = true
		}
	}
	for i, m := range seen {
		if len(m) != len(DefaultSymbols) {
			t.Errorf("position %d saw %d symbols, want %d", i, len(m), len(DefaultSymbols))
		}
	}
}

func TestDifficultySize(t *testing.T) {
	cases := map[Difficulty]int{Easy: 12, Medium: 14, Hard: 14}
	for d, want := range cases {
		if got := d.Size(len(DefaultSymbols)); got != want {
			t.Errorf("%s.Size(7) = %d, want %d", d, got, want)
		}
	}
	if got := Medium.Size(10); got != 16 {
		t.Errorf("Medium.Size(10) = %d, want 16", got)
	}
	if got := Hard.Size(10); got != 20 {
		t.Errorf("Hard.Size(10) = %d, want 20", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, err := ParseDifficulty(" Hard "); err != nil || d != Hard {
		t.Fatalf("ParseDifficulty: got %q, %v", d, err)
	}
	if _, err := ParseDifficulty("insane"); err != ErrUnknownDifficulty {
		t.Fatalf("want ErrUnknownDifficulty, got %v", err)
	}
}
