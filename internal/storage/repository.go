// Package storage persists budget documents: a per-identity repository for
// the persistence API and a key/value store for session-local state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetNotFound is returned when an identity has never saved a budget.
var ErrBudgetNotFound = errors.New("budget not found")

// BudgetRecord is the latest saved document of an identity. Data is the
// opaque JSON document; the repository never interprets it.
type BudgetRecord struct {
	Identity  string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BudgetRepository stores one document per identity, last write wins.
type BudgetRepository interface {
	GetBudget(ctx context.Context, identity string) (BudgetRecord, error)
	UpsertBudget(ctx context.Context, identity string, data []byte) (BudgetRecord, error)
	Ping(ctx context.Context) error
	Close() error
}
