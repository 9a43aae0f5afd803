package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Adjustment describes one category under a user-chosen target percentage.
type Adjustment struct {
	Category  core.Category
	TargetPct decimal.Decimal
	// NewAmount is the spend the target allows for the current income.
	NewAmount decimal.Decimal
	// Difference is NewAmount minus what is currently spent.
	Difference decimal.Decimal
	// Status classifies the target itself against the fixed 50/30/20 ideal.
	Status Status
}

// Adjust evaluates a target distribution against the document's income and
// current spend. It does not mutate the document.
func Adjust(doc core.Document, target core.TargetDistribution) []Adjustment {
	f := DeriveCanonical(doc)
	out := make([]Adjustment, 0, len(core.Categories))
	for _, c := range core.Categories {
		pct := target.Get(c)
		newAmount := f.TotalIncome.Mul(pct).Div(hundred)
		out = append(out, Adjustment{
			Category:   c,
			TargetPct:  pct,
			NewAmount:  newAmount,
			Difference: newAmount.Sub(f.Category(c).Total),
			Status:     Classify(pct.Sub(c.IdealPct())),
		})
	}
	return out
}
