// internal/game/engine.go
//
// Match-resolution state machine for a single memory game.
// Responsibilities:
//   - Deal decks for a difficulty (via the deck package).
//   - Accept or ignore flip requests.
//   - Resolve a pair as soon as two cards are selected: count the move,
//     keep matches, hand mismatches back as a PendingReset.
//   - Detect completion once, update the best score, freeze the clock.
//
// Notes:
//   - State has no timers and no locking. The session package owns the
//     mutex, the 1s clock and the 1s mismatch delay.
//   - Every new deck advances Generation; resets from an older generation
//     are ignored.
package game

import (
	"math/rand"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
)

// State holds one player's game.
type State struct {
	Deck       []deck.Card
	Selection  []int
	Moves      int
	Matched    int
	Elapsed    int
	GameOver   bool
	Best       int // 0 means no best score yet.
	SoundOn    bool
	Difficulty deck.Difficulty
	Generation uint64

	symbols []deck.Symbol
	rng     *rand.Rand
}

// New deals a fresh game at difficulty d.
// best is the stored best score (0 if none); r drives every shuffle of this game.
func New(symbols []deck.Symbol, d deck.Difficulty, best int, r *rand.Rand) *State {
	s := &State{
		Best:       best,
		SoundOn:    true,
		Difficulty: d,
		symbols:    symbols,
		rng:        r,
	}
	s.deal()
	return s
}

// deal replaces the deck and bumps the generation.
func (s *State) deal() {
	s.Deck = deck.Generate(s.symbols, s.Difficulty.Size(len(s.symbols)), s.rng)
	s.Selection = s.Selection[:0]
	s.Generation++
}

// InRange reports whether id names a card of the current deck.
func (s *State) InRange(id int) bool { return id >= 0 && id < len(s.Deck) }

// Status reports in_progress or game_over.
func (s *State) Status() Status {
	if s.GameOver {
		return StatusGameOver
	}
	return StatusInProgress
}

// Flip requests that card id be turned face-up.
//
// The request is ignored when two cards are already selected, the card is
// face-up or matched, or id is out of range. Otherwise exactly one card is
// flipped, and when that makes a pair it is resolved before returning.
func (s *State) Flip(id int) FlipResult {
	if len(s.Selection) == 2 || !s.InRange(id) {
		return FlipResult{}
	}
	c := &s.Deck[id]
	if c.IsFlipped || c.IsMatched {
		return FlipResult{}
	}
	c.IsFlipped = true
	s.Selection = append(s.Selection, id)

	res := FlipResult{Accepted: true}
	if len(s.Selection) == 2 {
		s.resolve(&res)
	}
	return res
}

// resolve compares the two selected cards. The selection is always empty afterwards.
func (s *State) resolve(res *FlipResult) {
	a, b := s.Selection[0], s.Selection[1]
	s.Selection = s.Selection[:0]
	s.Moves++
	res.Resolved = true

	if s.Deck[a].Symbol == s.Deck[b].Symbol {
		s.Deck[a].IsMatched = true
		s.Deck[b].IsMatched = true
		s.Matched += 2
		res.Matched = true
		res.Completion = s.checkCompletion()
		return
	}
	res.Reset = &PendingReset{Generation: s.Generation, IDs: [2]int{a, b}}
}

// checkCompletion enters game_over the first time every card is matched.
// The terminal flag is checked first so the best score is considered once.
func (s *State) checkCompletion() *Completion {
	if s.GameOver || s.Matched != len(s.Deck) {
		return nil
	}
	s.GameOver = true
	done := &Completion{
		Difficulty:   s.Difficulty,
		Moves:        s.Moves,
		Elapsed:      s.Elapsed,
		PreviousBest: s.Best,
	}
	if s.Best == 0 || s.Moves < s.Best {
		s.Best = s.Moves
		done.NewBest = true
	}
	return done
}

// ApplyReset turns a mismatched pair face-down again.
// Returns false, changing nothing, if the deck has been replaced since.
func (s *State) ApplyReset(p PendingReset) bool {
	if p.Generation != s.Generation {
		return false
	}
	for _, id := range p.IDs {
		if s.InRange(id) && !s.Deck[id].IsMatched {
			s.Deck[id].IsFlipped = false
		}
	}
	return true
}

// Tick advances the game clock by one second unless the game is over.
func (s *State) Tick() bool {
	if s.GameOver {
		return false
	}
	s.Elapsed++
	return true
}

// ChangeDifficulty deals a new deck at d and resets moves, matches and
// game-over. Elapsed time carries over.
func (s *State) ChangeDifficulty(d deck.Difficulty) {
	s.Difficulty = d
	s.Moves = 0
	s.Matched = 0
	s.GameOver = false
	s.deal()
}

// Restart deals a new deck at the current difficulty and resets every counter.
func (s *State) Restart() {
	s.Moves = 0
	s.Matched = 0
	s.Elapsed = 0
	s.GameOver = false
	s.deal()
}

// ToggleSound flips the sound flag and returns the new value.
func (s *State) ToggleSound() bool {
	s.SoundOn = !s.SoundOn
	return s.SoundOn
}

// Snapshot copies the state for presentation.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Cards:      append([]deck.Card(nil), s.Deck...),
		Moves:      s.Moves,
		Matched:    s.Matched,
		Elapsed:    s.Elapsed,
		GameOver:   s.GameOver,
		Status:     s.Status(),
		BestScore:  s.Best,
		SoundOn:    s.SoundOn,
		Difficulty: s.Difficulty,
		Generation: s.Generation,
	}
}
