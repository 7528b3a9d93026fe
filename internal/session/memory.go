package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	state   State
	expires time.Time
}

// MemoryStore is a process-local Store. Entries expire ttl after their last Put.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return New(), nil
	}
	if m.now().After(e.expires) {
		delete(m.items, id)
		return New(), nil
	}
	return e.state.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, id string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	st = st.Clone()
	st.UpdatedAt = now
	m.items[id] = memEntry{state: st, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
