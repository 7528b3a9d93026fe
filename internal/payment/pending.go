package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/orders"
)

// PendingTransaction ties a provider reference to the cart snapshot it charges for.
type PendingTransaction struct {
	Reference   string             `json:"reference"`
	SessionID   string             `json:"session_id"`
	Lines       []orders.OrderLine `json:"lines"`
	AmountMinor int64              `json:"amount_minor"`
	Status      orders.Status      `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PendingStore must survive the redirect round-trip to the provider.
type PendingStore interface {
	Save(ctx context.Context, tx PendingTransaction) error
	Get(ctx context.Context, reference string) (PendingTransaction, error)
	Delete(ctx context.Context, reference string) error
}

var ErrUnknownReference = errors.New("unknown payment reference")

type pendingEntry struct {
	tx      PendingTransaction
	expires time.Time
}

// MemoryPendingStore is the process-local PendingStore.
type MemoryPendingStore struct {
	mu    sync.Mutex
	items map[string]pendingEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	return &MemoryPendingStore{items: map[string]pendingEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryPendingStore) Save(_ context.Context, tx PendingTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.Lines = append([]orders.OrderLine(nil), tx.Lines...)
	m.items[tx.Reference] = pendingEntry{tx: tx, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryPendingStore) Get(_ context.Context, reference string) (PendingTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[reference]
	if !ok {
		return PendingTransaction{}, ErrUnknownReference
	}
	if m.now().After(e.expires) {
		delete(m.items, reference)
		return PendingTransaction{}, ErrUnknownReference
	}
	tx := e.tx
	tx.Lines = append([]orders.OrderLine(nil), tx.Lines...)
	return tx, nil
}

func (m *MemoryPendingStore) Delete(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, reference)
	return nil
}

// Sweep drops expired transactions.
func (m *MemoryPendingStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for ref, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, ref)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *MemoryPendingStore) Run(ctx context.Context, interval time.Duration) {
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
