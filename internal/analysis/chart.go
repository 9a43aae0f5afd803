package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Series is one bar of the distribution chart.
type Series struct {
	Name   string
	Amount decimal.Decimal
	Pct    decimal.Decimal
	Ideal  decimal.Decimal
	Color  string
	Status Status
}

// Chart returns the chart series of f in display order.
func Chart(f Figures) []Series {
	out := make([]Series, 0, len(core.Categories))
	for _, cf := range f.Categories() {
		out = append(out, Series{
			Name:   cf.Category.Label(),
			Amount: cf.Total,
			Pct:    cf.ActualPct,
			Ideal:  cf.IdealPct,
			Color:  cf.Category.Color(),
			Status: cf.Status,
		})
	}
	return out
}
