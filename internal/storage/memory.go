package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps both budgets and key/value entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	budgets map[string]BudgetRecord
	kv      map[string][]byte
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets: make(map[string]BudgetRecord),
		kv:      make(map[string][]byte),
		now:     time.Now,
	}
}

func (m *MemoryStore) GetBudget(_ context.Context, identity string) (BudgetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.budgets[identity]
	if !ok {
		return BudgetRecord{}, fmt.Errorf("get budget %s: %w", identity, ErrBudgetNotFound)
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, nil
}

func (m *MemoryStore) UpsertBudget(_ context.Context, identity string, data []byte) (BudgetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	rec, ok := m.budgets[identity]
	if !ok {
		rec = BudgetRecord{Identity: identity, CreatedAt: now}
	}
	rec.Data = append([]byte(nil), data...)
	rec.UpdatedAt = now
	m.budgets[identity] = rec
	return rec, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
