// internal/game/types.go
//
// Core type definitions for the match-resolution state machine.
// Defines:
//   - Status: in_progress or game_over.
//   - PendingReset: a mismatched pair waiting to be turned face-down.
//   - Completion: what happened when the last pair was matched.
//   - FlipResult: the outcome of one flip request.
//   - Snapshot: the read-only view handed to presentation.

package game

import "github.com/robalobadob/memory/apps/go-server/internal/deck"

// Status is the coarse session state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusGameOver   Status = "game_over"
)

// PendingReset identifies a mismatched pair. It only applies to the
// generation it was created in.
type PendingReset struct {
	Generation uint64
	IDs        [2]int
}

// Completion is reported exactly once per game, on the flip that matched the last pair.
type Completion struct {
	Difficulty   deck.Difficulty
	Moves        int
	Elapsed      int
	NewBest      bool // Best score was absent or higher and has been replaced.
	PreviousBest int  // 0 when no best score existed.
}

// FlipResult describes what a flip request did.
type FlipResult struct {
	Accepted   bool          // False when the request was a no-op.
	Resolved   bool          // The flip completed a pair and a move was counted.
	Matched    bool          // The resolved pair matched.
	Reset      *PendingReset // Set on a mismatch.
	Completion *Completion   // Set when this flip ended the game.
}

// Snapshot is a copy of everything presentation needs.
type Snapshot struct {
	Cards      []deck.Card     `json:"cards"`
	Moves      int             `json:"moves"`
	Matched    int             `json:"matched"`
	Elapsed    int             `json:"elapsed"`
	GameOver   bool            `json:"gameOver"`
	Status     Status          `json:"status"`
	BestScore  int             `json:"bestScore"`
	SoundOn    bool            `json:"soundOn"`
	Difficulty deck.Difficulty `json:"difficulty"`
	Generation uint64          `json:"generation"`
}

// Public returns a copy with the symbols of face-down cards blanked out.
func (s Snapshot) Public() Snapshot {
	cards := make([]deck.Card, len(s.Cards))
	for i, c := range s.Cards {
		if !c.IsFlipped && !c.IsMatched {
			c.Symbol = ""
		}
		cards[i] = c
	}
	s.Cards = cards
	return s
}
