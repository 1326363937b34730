// internal/session/session.go
//
// Live memory game session.
// Responsibilities:
//   - Serialize every command (flip, restart, difficulty, sound) behind one mutex.
//   - Run the 1s game clock while the session is alive.
//   - Turn mismatched pairs face-down 1s after they were resolved.
//   - Push a snapshot to subscribers after every change.
//   - Report completion to the owner of the session (persistence, events).
//
// Notes:
//   - Mismatch timers carry the deck generation they were created in; the
//     game state drops them if the deck was replaced in the meantime.
//   - Subscribers that fall behind are closed and removed, like a slow
//     websocket client in a broadcast hub.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

const (
	// TickInterval is the game clock resolution.
	TickInterval = time.Second
	// RevealDelay is how long a mismatched pair stays face-up.
	RevealDelay = time.Second

	subscriberBuffer = 16
)

var (
	// ErrInvalidCard is returned for a card id outside the current deck.
	ErrInvalidCard = errors.New("invalid card")
	// ErrClosed is returned once the session has been torn down.
	ErrClosed = errors.New("session closed")
	// ErrLocked is returned for restart/difficulty on a locked (daily) session.
	ErrLocked = errors.New("session locked")
)

// Completed is handed to Options.OnComplete when a game ends.
type Completed struct {
	SessionID string
	Owner     string
	Daily     bool
	game.Completion
}

// Options configures a Session.
type Options struct {
	ID    string
	Owner string
	// Locked sessions refuse Restart and SetDifficulty (daily challenge).
	Locked bool
	// Daily is copied into Completed.
	Daily      bool
	Clock      Clock
	OnComplete func(Completed)
}

// Session wraps a game.State with its timers.
type Session struct {
	ID     string
	Owner  string
	Daily  bool
	locked bool

	clock      Clock
	onComplete func(Completed)

	mu         sync.Mutex
	state      *game.State
	subs       map[chan game.Snapshot]struct{}
	timers     map[uint64]func() bool
	timerSeq   uint64
	cancel     context.CancelFunc
	closed     bool
	lastActive time.Time
}

// New wraps st. Call Start to run the game clock.
func New(st *game.State, opts Options) *Session {
	clk := opts.Clock
	if clk == nil {
		clk = RealClock{}
	}
	return &Session{
		ID:         opts.ID,
		Owner:      opts.Owner,
		Daily:      opts.Daily,
		locked:     opts.Locked,
		clock:      clk,
		onComplete: opts.OnComplete,
		state:      st,
		subs:       make(map[chan game.Snapshot]struct{}),
		timers:     make(map[uint64]func() bool),
		lastActive: clk.Now(),
	}
}

// Start runs the 1s game clock until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	t := s.clock.NewTicker(TickInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				s.tick()
			}
		}
	}()
}

// tick advances the game clock by one second.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state.Tick() {
		s.publishLocked()
	}
}

// Flip requests a card flip. accepted is false when the request was ignored
// (two cards already up, card face-up or matched).
func (s *Session) Flip(id int) (accepted bool, snap game.Snapshot, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, game.Snapshot{}, ErrClosed
	}
	if !s.state.InRange(id) {
		snap = s.state.Snapshot()
		s.mu.Unlock()
		return false, snap, ErrInvalidCard
	}
	s.lastActive = s.clock.Now()

	res := s.state.Flip(id)
	if res.Reset != nil {
		s.scheduleResetLocked(*res.Reset)
	}
	if res.Accepted {
		s.publishLocked()
	}
	snap = s.state.Snapshot()
	s.mu.Unlock()

	if res.Completion != nil {
		s.complete(*res.Completion)
		// the completion handler may have corrected the best score
		snap = s.Snapshot()
	}
	return res.Accepted, snap, nil
}

// scheduleResetLocked arms the reveal delay for a mismatched pair.
func (s *Session) scheduleResetLocked(p game.PendingReset) {
	s.timerSeq++
	key := s.timerSeq
	s.timers[key] = s.clock.AfterFunc(RevealDelay, func() { s.applyReset(key, p) })
}

func (s *Session) applyReset(key uint64, p game.PendingReset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, key)
	if s.closed {
		return
	}
	if s.state.ApplyReset(p) {
		s.publishLocked()
	}
}

func (s *Session) complete(c game.Completion) {
	log.Info().
		Str("gameId", s.ID).
		Str("owner", s.Owner).
		Int("moves", c.Moves).
		Int("elapsed", c.Elapsed).
		Bool("newBest", c.NewBest).
		Msg("game completed")
	if s.onComplete != nil {
		s.onComplete(Completed{SessionID: s.ID, Owner: s.Owner, Daily: s.Daily, Completion: c})
	}
}

// Restart deals a new deck at the current difficulty.
func (s *Session) Restart() (game.Snapshot, error) {
	return s.mutate(true, func(st *game.State) { st.Restart() })
}

// SetDifficulty deals a new deck at d.
func (s *Session) SetDifficulty(d deck.Difficulty) (game.Snapshot, error) {
	return s.mutate(true, func(st *game.State) { st.ChangeDifficulty(d) })
}

// ToggleSound flips the sound flag.
func (s *Session) ToggleSound() (game.Snapshot, error) {
	return s.mutate(false, func(st *game.State) { st.ToggleSound() })
}

func (s *Session) mutate(redeal bool, fn func(*game.State)) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return game.Snapshot{}, ErrClosed
	}
	if redeal && s.locked {
		return s.state.Snapshot(), ErrLocked
	}
	s.lastActive = s.clock.Now()
	fn(s.state)
	s.publishLocked()
	return s.state.Snapshot(), nil
}

// SetBest replaces the best score this session shows, e.g. with the stored
// value once another game of the same owner has beaten it.
func (s *Session) SetBest(best int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Best == best {
		return
	}
	s.state.Best = best
	s.publishLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// LastActive is the time of the last accepted command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe returns a channel of snapshots and a cancel function.
// The channel is closed on cancel, on Close, or when the subscriber falls behind.
func (s *Session) Subscribe() (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, subscriberBuffer)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.state.Snapshot()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			log.Warn().Str("gameId", s.ID).Msg("dropping slow subscriber")
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// Close stops the clock and pending resets and closes all subscribers.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	for k, stop := range s.timers {
		stop()
		delete(s.timers, k)
	}
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
