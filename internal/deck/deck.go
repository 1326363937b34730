// internal/deck/deck.go
//
// Deck generation.
// Responsibilities:
//   - Pick size/2 distinct symbols and duplicate each one.
//   - Shuffle uniformly (Fisher–Yates) with the caller's random source.
//   - Assign ids in final order, everything face-down and unmatched.
//
// Notes:
//   - The rng is injected so the daily challenge can deal a reproducible deck
//     and tests can pin the layout.

package deck

import "math/rand"

// Generate deals a deck of size cards from symbols.
//
// An odd size is truncated to the even size below it and any size above the
// full set is capped at 2*len(symbols), so every symbol in the result appears
// exactly twice. Which symbols are used is decided by the same rng.
func Generate(symbols []Symbol, size int, r *rand.Rand) []Card {
	pairs := size / 2
	if pairs > len(symbols) {
		pairs = len(symbols)
	}
	if pairs < 0 {
		pairs = 0
	}

	// Choose the face set for this deal.
	pool := append([]Symbol(nil), symbols...)
	shuffle(pool, r)
	pool = pool[:pairs]

	faces := make([]Symbol, 0, 2*pairs)
	for _, s := range pool {
		faces = append(faces, s, s)
	}
	shuffle(faces, r)

	cards := make([]Card, len(faces))
	for i, s := range faces {
		cards[i] = Card{ID: i, Symbol: s}
	}
	return cards
}

// shuffle is an in-place Fisher–Yates permutation.
func shuffle(s []Symbol, r *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Valid reports whether every symbol in cards occurs exactly twice and ids
// match positions.
func Valid(cards []Card) bool {
	counts := make(map[Symbol]int, len(cards)/2)
	for i, c := range cards {
		if c.ID != i {
			return false
		}
		counts[c.Symbol]++
	}
	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}
