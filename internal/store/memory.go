package store

import (
	"context"
	"sync"
	"time"

	"github.com/rshade/tripcarbon/internal/wizard"
)

type memoryRecord struct {
	values    map[string][]byte
	updatedAt time.Time
}

// MemoryStore keeps sessions in process memory. Values are stored encoded,
// so callers never share pointers with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryRecord)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, state wizard.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validID(state.ID); err != nil {
		return err
	}
	values, err := encodeKeys(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ID] = memoryRecord{values: values, updatedAt: state.UpdatedAt}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, id string) (wizard.State, error) {
	if err := ctx.Err(); err != nil {
		return wizard.State{}, err
	}
	if err := validID(id); err != nil {
		return wizard.State{}, err
	}

	m.mu.RLock()
	rec, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return wizard.State{}, ErrNotFound
	}

	state, err := decodeKeys(id, rec.values)
	if err != nil {
		return wizard.State{}, err
	}
	state.UpdatedAt = rec.updatedAt
	return state, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close implements Store. It is a no-op.
func (m *MemoryStore) Close() error { return nil }
