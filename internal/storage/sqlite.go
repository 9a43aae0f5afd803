package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores budgets and key/value entries in a SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, identity string) (BudgetRecord, error) {
	var (
		rec                  BudgetRecord
		data                 string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT identity, budget_data, created_at, updated_at FROM budgets WHERE identity = ?`, identity).
		Scan(&rec.Identity, &data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return BudgetRecord{}, fmt.Errorf("get budget %s: %w", identity, ErrBudgetNotFound)
	}
	if err != nil {
		return BudgetRecord{}, fmt.Errorf("get budget %s: %w", identity, err)
	}

	rec.Data = []byte(data)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return BudgetRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return BudgetRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, identity string, data []byte) (BudgetRecord, error) {
	now := r.now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (identity, budget_data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			budget_data = excluded.budget_data,
			updated_at = excluded.updated_at`,
		identity, string(data), now, now)
	if err != nil {
		return BudgetRecord{}, fmt.Errorf("upsert budget %s: %w", identity, err)
	}
	return r.GetBudget(ctx, identity)
}

// Get implements budget.LocalStore.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// Put implements budget.LocalStore.
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
