package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// repositoryContract exercises the behaviour every BudgetRepository shares.
func repositoryContract(t *testing.T, repo BudgetRepository) {
	t.Helper()
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := repo.GetBudget(ctx, "nobody"); !errors.Is(err, ErrBudgetNotFound) {
		t.Fatalf("GetBudget on empty repository: err=%v, want ErrBudgetNotFound", err)
	}

	first, err := repo.UpsertBudget(ctx, "42", []byte(`{"ingresos":[],"gastos":{},"distribucion":{}}`))
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if first.Identity != "42" || first.UpdatedAt.IsZero() {
		t.Fatalf("unexpected record %+v", first)
	}

	second, err := repo.UpsertBudget(ctx, "42", []byte(`{"ingresos":[{"id":"1","concepto":"Nómina","cantidad":1}],"gastos":{},"distribucion":{}}`))
	if err != nil {
		t.Fatalf("second UpsertBudget: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed on update: %v -> %v", first.CreatedAt, second.CreatedAt)
	}

	got, err := repo.GetBudget(ctx, "42")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if !contains(string(got.Data), "Nómina") {
		t.Fatalf("last write did not win: %s", got.Data)
	}

	if _, err := repo.GetBudget(ctx, "43"); !errors.Is(err, ErrBudgetNotFound) {
		t.Fatalf("budgets leak across identities: %v", err)
	}
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

func kvContract(t *testing.T, kv kvStore) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := kv.Get(ctx, "economilenial_budget:42"); err != nil || found {
		t.Fatalf("Get missing key: found=%v err=%v", found, err)
	}
	if err := kv.Put(ctx, "economilenial_budget:42", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "economilenial_budget:42", []byte("v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, found, err := kv.Get(ctx, "economilenial_budget:42")
	if err != nil || !found || string(v) != "v2" {
		t.Fatalf("Get=%q found=%v err=%v", v, found, err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	repositoryContract(t, m)
	kvContract(t, m)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	kvContract(t, fs)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, temp files left behind: %v", entries)
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	repositoryContract(t, repo)
	kvContract(t, repo)
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	if _, err := repo.UpsertBudget(context.Background(), "7", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetBudget(context.Background(), "7"); err != nil {
		t.Fatalf("budget lost after reopen: %v", err)
	}
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresRepository: %v", err)
	}
	defer repo.Close()
	if _, err := repo.pool.Exec(ctx, `DELETE FROM budgets WHERE identity IN ('42', '43', 'nobody')`); err != nil {
		t.Fatal(err)
	}
	repositoryContract(t, repo)
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
