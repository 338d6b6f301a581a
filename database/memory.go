package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is used for local development when no database is configured.
// Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Itinerary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Itinerary)}
}

func (m *MemoryStore) Insert(_ context.Context, it *Itinerary) error {
	row := *it
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.items[row.ID] = row
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Itinerary, error) {
	m.mu.RLock()
	out := make([]Itinerary, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
