// Package sheets exports per-save budget summaries to spreadsheet backends.
package sheets

import (
	"context"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// SummaryWriter appends one summary row per saved budget.
type SummaryWriter interface {
	AppendSummary(ctx context.Context, row SummaryRow) (rowRef string, err error)
}

// SummaryRow is the 50/30/20 snapshot of a saved budget.
type SummaryRow struct {
	Identity     string
	UpdatedAt    time.Time
	TotalIncome  string
	TotalExpense string
	Balance      string
	// Pct and Status are indexed in core.Categories order.
	Pct         [3]string
	Status      [3]string
	AdviceCount int
	TopAdvice   string
}

// Header is the first row of a summary sheet.
var Header = []any{
	"Fecha", "Identidad", "Ingresos", "Gastos", "Balance",
	"% Necesidades", "% Deseos", "% Ahorro", "Estado Necesidades", "Estado Deseos", "Estado Ahorro",
	"Recomendaciones", "Principal",
}

// NewSummaryRow builds a row from an evaluated report.
func NewSummaryRow(identity string, updatedAt time.Time, r advice.Report) SummaryRow {
	row := SummaryRow{
		Identity:     identity,
		UpdatedAt:    updatedAt,
		TotalIncome:  r.Figures.TotalIncome.StringFixed(2),
		TotalExpense: r.Figures.TotalExpense.StringFixed(2),
		Balance:      r.Figures.Balance.StringFixed(2),
		AdviceCount:  len(r.Advice),
	}
	for i, c := range core.Categories {
		cf := r.Figures.Category(c)
		row.Pct[i] = cf.ActualPct.StringFixed(2)
		row.Status[i] = cf.Status.Label()
	}
	if len(r.Advice) > 0 {
		row.TopAdvice = r.Advice[0].Message
	}
	return row
}

// Values returns the row as spreadsheet cells, matching Header.
func (r SummaryRow) Values() []any {
	return []any{
		r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		r.Identity,
		r.TotalIncome,
		r.TotalExpense,
		r.Balance,
		r.Pct[0], r.Pct[1], r.Pct[2],
		r.Status[0], r.Status[1], r.Status[2],
		r.AdviceCount,
		r.TopAdvice,
	}
}
