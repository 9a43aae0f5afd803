package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets"
)

// Store keeps summary rows in memory. The worker falls back to it when no
// spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []sheets.SummaryRow
}

var _ sheets.SummaryWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendSummary stores the row and returns a synthetic row reference.
func (s *Store) AppendSummary(_ context.Context, row sheets.SummaryRow) (string, error) {
	if row.Identity == "" {
		return "", errors.New("summary row without identity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the stored rows.
func (s *Store) Rows() []sheets.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.SummaryRow(nil), s.rows...)
}
