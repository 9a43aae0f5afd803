package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CadenceMonthly is the only cadence an income entry can have.
const CadenceMonthly Cadence = "monthly"

// MaxLabelLength bounds the free-text label of an entry.
const MaxLabelLength = 200

type (
	Cadence string

	IncomeEntry struct {
		ID      string
		Label   string
		Amount  Amount
		Cadence Cadence
	}

	ExpenseEntry struct {
		ID       string
		Label    string
		Amount   Amount
		Category Category
	}

	// TargetDistribution holds the percentage targets per category. It is
	// expected to sum to 100 but is never renormalised implicitly.
	TargetDistribution struct {
		Needs   decimal.Decimal
		Wants   decimal.Decimal
		Savings decimal.Decimal
	}

	// Expenses keeps one ordered sequence per category.
	Expenses struct {
		Needs   []ExpenseEntry
		Wants   []ExpenseEntry
		Savings []ExpenseEntry
	}

	// Document is the canonical budget aggregate. Everything else is derived.
	Document struct {
		Income   []IncomeEntry
		Expenses Expenses
		Target   TargetDistribution
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyLabel      = errors.New("empty label")
	ErrLabelTooLong    = errors.New("label too long (max 200 characters)")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEntryNotFound   = errors.New("entry not found")
)

// DistributionTolerance is how far from 100 a distribution may sum and still
// be considered balanced.
var DistributionTolerance = decimal.RequireFromString("0.1")

var hundred = decimal.NewFromInt(100)

// NewID returns a fresh random entry identifier.
func NewID() string {
	return uuid.NewString()
}

func (e IncomeEntry) AmountValue() Amount  { return e.Amount }
func (e ExpenseEntry) AmountValue() Amount { return e.Amount }

func validateEntry(label string, amount Amount) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return ErrEmptyLabel
	}
	if len(label) > MaxLabelLength {
		return ErrLabelTooLong
	}
	if !amount.Valid() || amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	return validateEntry(e.Label, e.Amount)
}

func (e ExpenseEntry) Validate() error {
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	return validateEntry(e.Label, e.Amount)
}

// IdealDistribution returns the canonical 50/30/20 targets.
func IdealDistribution() TargetDistribution {
	return TargetDistribution{
		Needs:   Needs.IdealPct(),
		Wants:   Wants.IdealPct(),
		Savings: Savings.IdealPct(),
	}
}

// Get returns the target for a category.
func (t TargetDistribution) Get(c Category) decimal.Decimal {
	switch c {
	case Needs:
		return t.Needs
	case Wants:
		return t.Wants
	case Savings:
		return t.Savings
	}
	return decimal.Zero
}

// With returns a copy with the target for c replaced.
func (t TargetDistribution) With(c Category, v decimal.Decimal) TargetDistribution {
	switch c {
	case Needs:
		t.Needs = v
	case Wants:
		t.Wants = v
	case Savings:
		t.Savings = v
	}
	return t
}

// Total returns the sum of the three targets.
func (t TargetDistribution) Total() decimal.Decimal {
	return t.Needs.Add(t.Wants).Add(t.Savings)
}

// IsBalanced reports whether the targets sum to 100 within tolerance.
func (t TargetDistribution) IsBalanced() bool {
	return t.Total().Sub(hundred).Abs().LessThanOrEqual(DistributionTolerance)
}

// Rebalanced rescales every target by 100/T so the total becomes 100.
// It returns false and the unchanged distribution when T is zero.
func (t TargetDistribution) Rebalanced() (TargetDistribution, bool) {
	total := t.Total()
	if total.IsZero() {
		return t, false
	}
	scale := func(v decimal.Decimal) decimal.Decimal {
		return v.Mul(hundred).DivRound(total, 2)
	}
	return TargetDistribution{
		Needs:   scale(t.Needs),
		Wants:   scale(t.Wants),
		Savings: scale(t.Savings),
	}, true
}

func (t TargetDistribution) Equal(o TargetDistribution) bool {
	return t.Needs.Equal(o.Needs) && t.Wants.Equal(o.Wants) && t.Savings.Equal(o.Savings)
}

// Of returns the entries of a category.
func (e Expenses) Of(c Category) []ExpenseEntry {
	switch c {
	case Needs:
		return e.Needs
	case Wants:
		return e.Wants
	case Savings:
		return e.Savings
	}
	return nil
}

// With returns a copy of e where the sequence for c is replaced.
func (e Expenses) With(c Category, entries []ExpenseEntry) Expenses {
	switch c {
	case Needs:
		e.Needs = entries
	case Wants:
		e.Wants = entries
	case Savings:
		e.Savings = entries
	}
	return e
}

// Count returns the number of expense entries across categories.
func (e Expenses) Count() int {
	return len(e.Needs) + len(e.Wants) + len(e.Savings)
}

// NewDocument returns an empty document with the ideal distribution.
func NewDocument() Document {
	return Document{
		Income: []IncomeEntry{},
		Expenses: Expenses{
			Needs:   []ExpenseEntry{},
			Wants:   []ExpenseEntry{},
			Savings: []ExpenseEntry{},
		},
		Target: IdealDistribution(),
	}
}

// HasIncome reports whether at least one income entry exists.
func (d Document) HasIncome() bool {
	return len(d.Income) > 0
}

// HasExpenses reports whether any category has at least one entry.
func (d Document) HasExpenses() bool {
	return d.Expenses.Count() > 0
}

// Clone returns a deep copy that shares no slices with d.
func (d Document) Clone() Document {
	out := Document{
		Income: append([]IncomeEntry{}, d.Income...),
		Target: d.Target,
	}
	for _, c := range Categories {
		out.Expenses = out.Expenses.With(c, append([]ExpenseEntry{}, d.Expenses.Of(c)...))
	}
	return out
}

// Equal compares two documents entry by entry.
func (d Document) Equal(o Document) bool {
	if !d.Target.Equal(o.Target) || len(d.Income) != len(o.Income) {
		return false
	}
	for i := range d.Income {
		a, b := d.Income[i], o.Income[i]
		if a.ID != b.ID || a.Label != b.Label || a.Cadence != b.Cadence || !a.Amount.Equal(b.Amount) {
			return false
		}
	}
	for _, c := range Categories {
		x, y := d.Expenses.Of(c), o.Expenses.Of(c)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			a, b := x[i], y[i]
			if a.ID != b.ID || a.Label != b.Label || a.Category != b.Category || !a.Amount.Equal(b.Amount) {
				return false
			}
		}
	}
	return true
}
