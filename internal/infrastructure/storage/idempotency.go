package storage

import (
	"context"
	"sync"

	"github.com/sitecore/order-marketplace/internal/core/ports"
)

// MemoryIdempotency is a process-local ports.IdempotencyStore used when no
// Redis is configured.
type MemoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

var _ ports.IdempotencyStore = (*MemoryIdempotency)(nil)

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{keys: make(map[string]string)}
}

func (m *MemoryIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	return id, ok, nil
}

// Remember keeps the first mapping for key.
func (m *MemoryIdempotency) Remember(_ context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		m.keys[key] = orderID
	}
	return nil
}
