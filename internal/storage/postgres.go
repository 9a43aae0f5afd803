package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores budgets as JSONB rows in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects, runs migrations and returns the repository.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) GetBudget(ctx context.Context, identity string) (BudgetRecord, error) {
	var (
		rec  BudgetRecord
		data []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT identity, budget_data, created_at, updated_at FROM budgets WHERE identity = $1`, identity).
		Scan(&rec.Identity, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return BudgetRecord{}, fmt.Errorf("get budget %s: %w", identity, ErrBudgetNotFound)
	}
	if err != nil {
		return BudgetRecord{}, fmt.Errorf("get budget %s: %w", identity, err)
	}
	rec.Data = data
	return rec, nil
}

func (r *PostgresRepository) UpsertBudget(ctx context.Context, identity string, data []byte) (BudgetRecord, error) {
	var rec BudgetRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (identity, budget_data, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $3)
		ON CONFLICT (identity) DO UPDATE SET
			budget_data = EXCLUDED.budget_data,
			updated_at = EXCLUDED.updated_at
		RETURNING identity, created_at, updated_at`,
		identity, string(data), time.Now().UTC()).
		Scan(&rec.Identity, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return BudgetRecord{}, fmt.Errorf("upsert budget %s: %w", identity, err)
	}
	rec.Data = append([]byte(nil), data...)
	return rec, nil
}
