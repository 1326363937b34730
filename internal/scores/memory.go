package scores

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memory is a map-backed Store for running without a database and for tests.
type memory struct {
	mu    sync.RWMutex
	best  map[string]int
	games []Game
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{best: make(map[string]int)}
}

func (m *memory) Best(_ context.Context, owner string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.best[owner], nil
}

func (m *memory) RecordBest(_ context.Context, owner string, moves int) (bool, error) {
	if moves <= 0 {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.best[owner]; ok && cur <= moves {
		return false, nil
	}
	m.best[owner] = moves
	return true, nil
}

func (m *memory) RecordGame(_ context.Context, g Game) error {
	if g.FinishedAt.IsZero() {
		g.FinishedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.games {
		if old.ID == g.ID {
			return nil
		}
	}
	m.games = append(m.games, g)
	return nil
}

func (m *memory) Games(_ context.Context, owner string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Game{}
	for i := len(m.games) - 1; i >= 0; i-- {
		if m.games[i].Owner == owner {
			out = append(out, m.games[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) Stats(_ context.Context, owner string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{BestScore: m.best[owner]}
	for _, g := range m.games {
		if g.Owner == owner {
			st.GamesPlayed++
		}
	}
	return st, nil
}

func (m *memory) Claim(_ context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.games {
		if m.games[i].Owner == from {
			m.games[i].Owner = to
		}
	}
	if b, ok := m.best[from]; ok {
		if cur, ok := m.best[to]; !ok || b < cur {
			m.best[to] = b
		}
		delete(m.best, from)
	}
	return nil
}
