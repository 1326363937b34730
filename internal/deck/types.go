// internal/deck/types.go
//
// Core type definitions for the memory deck.
// Defines:
//   - Symbol: the face value printed on a card.
//   - Card: one position on the board.
//   - Difficulty: the three board sizes offered to the player.

package deck

import (
	"errors"
	"strings"
)

// Symbol is the face value of a card. Two cards match when their symbols are equal.
type Symbol string

const (
	Apple      Symbol = "🍎"
	Banana     Symbol = "🍌"
	Grapes     Symbol = "🍇"
	Orange     Symbol = "🍊"
	Watermelon Symbol = "🍉"
	Strawberry Symbol = "🍓"
	Cherry     Symbol = "🍒"
)

// DefaultSymbols is the built-in face set, in dealing order.
var DefaultSymbols = []Symbol{Apple, Banana, Grapes, Orange, Watermelon, Strawberry, Cherry}

// Card is a single board position.
type Card struct {
	ID        int    `json:"id"`        // Stable position index (0..len(deck)-1).
	Symbol    Symbol `json:"symbol"`    // Face value.
	IsFlipped bool   `json:"isFlipped"` // Face-up, either selected or waiting for its reset.
	IsMatched bool   `json:"isMatched"` // Permanently face-up after a match.
}

// Difficulty selects the board size.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ErrUnknownDifficulty is returned by ParseDifficulty for anything but easy/medium/hard.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty normalizes s and maps it to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", ErrUnknownDifficulty
	}
}

// Size returns the requested card count for d given a face set of n symbols.
// Hard always uses the full set; the others are capped by it.
func (d Difficulty) Size(n int) int {
	full := 2 * n
	want := full
	switch d {
	case Easy:
		want = 12
	case Medium:
		want = 16
	}
	if want > full {
		return full
	}
	return want
}
