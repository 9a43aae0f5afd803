// Package analysis derives percentages, deviations and semaphore statuses
// from a budget document.
//
// Every figure is computed with decimal arithmetic so threshold comparisons
// are exact: a deviation of 2 is always Green and 2.0001 always Amber.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Status is the three-level semaphore of a category.
type Status int

const (
	Green Status = iota
	Amber
	Red
)

func (s Status) String() string {
	switch s {
	case Green:
		return "green"
	case Amber:
		return "amber"
	case Red:
		return "red"
	}
	return "unknown"
}

// Label returns the Spanish name shown to users.
func (s Status) Label() string {
	switch s {
	case Green:
		return "Verde"
	case Amber:
		return "Ámbar"
	case Red:
		return "Rojo"
	}
	return ""
}

// BalanceStatus describes the sign of income minus expenses.
type BalanceStatus string

const (
	Balanced BalanceStatus = "equilibrado"
	Surplus  BalanceStatus = "superavit"
	Deficit  BalanceStatus = "deficit"
)

var (
	// GreenLimit is the largest absolute deviation still classified Green.
	GreenLimit = decimal.NewFromInt(2)
	// AmberLimit is the largest absolute deviation still classified Amber.
	AmberLimit = decimal.NewFromInt(5)

	hundred = decimal.NewFromInt(100)
)

// Classify maps a deviation in percentage points to a status. Boundary
// values belong to the greener bucket.
func Classify(deviation decimal.Decimal) Status {
	abs := deviation.Abs()
	switch {
	case abs.LessThanOrEqual(GreenLimit):
		return Green
	case abs.LessThanOrEqual(AmberLimit):
		return Amber
	default:
		return Red
	}
}

// CategoryFigures holds every derived number of a single category.
type CategoryFigures struct {
	Category  core.Category
	Total     decimal.Decimal
	ActualPct decimal.Decimal
	IdealPct  decimal.Decimal
	Deviation decimal.Decimal
	Status    Status
	// IdealAmount is the spend the ideal percentage allows for this income.
	IdealAmount decimal.Decimal
	// Delta is Total minus IdealAmount; positive means overspending.
	Delta decimal.Decimal
}

// Figures is the derived view of a document. It is never persisted.
type Figures struct {
	TotalIncome   decimal.Decimal
	TotalExpense  decimal.Decimal
	Balance       decimal.Decimal
	BalanceStatus BalanceStatus
	Ideal         core.TargetDistribution

	byCategory map[core.Category]CategoryFigures
}

// Category returns the figures of c.
func (f Figures) Category(c core.Category) CategoryFigures {
	return f.byCategory[c]
}

// Categories returns the per-category figures in display order.
func (f Figures) Categories() []CategoryFigures {
	out := make([]CategoryFigures, 0, len(core.Categories))
	for _, c := range core.Categories {
		out = append(out, f.byCategory[c])
	}
	return out
}

// AllGreen reports whether every category is within the Green band.
func (f Figures) AllGreen() bool {
	for _, c := range core.Categories {
		if f.byCategory[c].Status != Green {
			return false
		}
	}
	return true
}

// Percent returns part*100/whole, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

// Derive computes the figures of doc against the given ideal percentages.
// Pass core.IdealDistribution() for the canonical 50/30/20 view or the
// document's own target for the adjustment view.
func Derive(doc core.Document, ideal core.TargetDistribution) Figures {
	f := Figures{
		TotalIncome:  core.Sum(doc.Income),
		TotalExpense: decimal.Zero,
		Ideal:        ideal,
		byCategory:   make(map[core.Category]CategoryFigures, len(core.Categories)),
	}

	for _, c := range core.Categories {
		total := core.Sum(doc.Expenses.Of(c))
		f.TotalExpense = f.TotalExpense.Add(total)

		actual := Percent(total, f.TotalIncome)
		idealPct := ideal.Get(c)
		deviation := actual.Sub(idealPct)
		idealAmount := f.TotalIncome.Mul(idealPct).Div(hundred)

		f.byCategory[c] = CategoryFigures{
			Category:    c,
			Total:       total,
			ActualPct:   actual,
			IdealPct:    idealPct,
			Deviation:   deviation,
			Status:      Classify(deviation),
			IdealAmount: idealAmount,
			Delta:       total.Sub(idealAmount),
		}
	}

	f.Balance = f.TotalIncome.Sub(f.TotalExpense)
	switch f.Balance.Sign() {
	case 0:
		f.BalanceStatus = Balanced
	case 1:
		f.BalanceStatus = Surplus
	default:
		f.BalanceStatus = Deficit
	}
	return f
}

// DeriveCanonical derives figures against the fixed 50/30/20 ideal.
func DeriveCanonical(doc core.Document) Figures {
	return Derive(doc, core.IdealDistribution())
}
