package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// WarningLimit is the deviation from the 50/30/20 ideal, in percentage
// points, above which a non-blocking warning is raised.
var WarningLimit = decimal.NewFromInt(10)

const (
	MsgNoIncome            = "Debes agregar al menos una fuente de ingresos"
	msgExpensesExceed      = "Gastos (%s€) superan ingresos (%s€)"
	msgNeedsFarFromIdeal   = "Necesidades muy alejadas del 50% recomendado"
	msgWantsFarFromIdeal   = "Deseos muy alejados del 30% recomendado"
	msgSavingsFarFromIdeal = "Ahorro/Inversión muy alejado del 20% recomendado"
)

var deviationWarnings = map[core.Category]string{
	core.Needs:   msgNeedsFarFromIdeal,
	core.Wants:   msgWantsFarFromIdeal,
	core.Savings: msgSavingsFarFromIdeal,
}

// Validation separates blocking errors from informational warnings.
// Both are data; nothing here is ever returned as a Go error.
type Validation struct {
	Errors   []string
	Warnings []string
}

// OK reports whether there are no blocking errors.
func (v Validation) OK() bool {
	return len(v.Errors) == 0
}

// Validate checks a document against the fixed 50/30/20 rule.
func Validate(doc core.Document) Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}

	if !doc.HasIncome() {
		v.Errors = append(v.Errors, MsgNoIncome)
	}

	f := DeriveCanonical(doc)
	if f.TotalExpense.GreaterThan(f.TotalIncome) {
		v.Errors = append(v.Errors, fmt.Sprintf(msgExpensesExceed,
			f.TotalExpense.StringFixed(2), f.TotalIncome.StringFixed(2)))
	}

	if f.TotalIncome.IsPositive() {
		for _, c := range core.Categories {
			if f.Category(c).Deviation.Abs().GreaterThan(WarningLimit) {
				v.Warnings = append(v.Warnings, deviationWarnings[c])
			}
		}
	}
	return v
}
