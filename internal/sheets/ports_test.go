package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

func TestNewSummaryRow(t *testing.T) {
	amount := func(s string) core.Amount { return core.NewAmount(decimal.RequireFromString(s)) }
	doc := core.NewDocument()
	doc.Income = []core.IncomeEntry{{ID: "1", Label: "Nómina", Amount: amount("1000"), Cadence: core.CadenceMonthly}}
	doc.Expenses.Needs = []core.ExpenseEntry{{ID: "2", Label: "Alquiler", Amount: amount("700"), Category: core.Needs}}
	doc.Expenses.Savings = []core.ExpenseEntry{{ID: "3", Label: "Fondo", Amount: amount("200"), Category: core.Savings}}

	updated := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	row := NewSummaryRow("42", updated, advice.Evaluate(doc))

	if row.TotalIncome != "1000.00" || row.TotalExpense != "900.00" || row.Balance != "100.00" {
		t.Fatalf("unexpected totals %+v", row)
	}
	if row.Pct[0] != "70.00" || row.Status[0] != "Rojo" {
		t.Fatalf("needs pct=%s status=%s", row.Pct[0], row.Status[0])
	}
	if row.Status[2] != "Verde" {
		t.Fatalf("savings status=%s", row.Status[2])
	}
	if row.AdviceCount == 0 || row.TopAdvice == "" {
		t.Fatalf("expected advice in row %+v", row)
	}

	values := row.Values()
	if len(values) != len(Header) {
		t.Fatalf("row has %d cells, header %d", len(values), len(Header))
	}
	if values[0] != "2024-06-01 08:00:00" || values[1] != "42" {
		t.Fatalf("unexpected leading cells %v", values[:2])
	}
}
