package analysis

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(s string) core.Amount { return core.NewAmount(dec(s)) }

func docWith(income string, needs, wants, savings string) core.Document {
	d := core.NewDocument()
	if income != "" {
		d.Income = []core.IncomeEntry{{ID: "i1", Label: "Salario", Amount: amount(income), Cadence: core.CadenceMonthly}}
	}
	add := func(c core.Category, v string) {
		if v == "" {
			return
		}
		d.Expenses = d.Expenses.With(c, []core.ExpenseEntry{{ID: c.Key(), Label: c.Label(), Amount: amount(v), Category: c}})
	}
	add(core.Needs, needs)
	add(core.Wants, wants)
	add(core.Savings, savings)
	return d
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		dev  string
		want Status
	}{
		{"0", Green},
		{"2.0", Green},
		{"-2.0", Green},
		{"2.0001", Amber},
		{"-2.0001", Amber},
		{"5.0", Amber},
		{"-5", Amber},
		{"5.0001", Red},
		{"-30", Red},
	}
	for _, tc := range cases {
		if got := Classify(dec(tc.dev)); got != tc.want {
			t.Fatalf("Classify(%s)=%v, want %v", tc.dev, got, tc.want)
		}
	}
}

func TestDeriveBoundariesThroughDocument(t *testing.T) {
	// 5200.01 of 10000 is 52.0001%, a deviation just past the Green limit.
	f := DeriveCanonical(docWith("10000", "5200.01", "3000", "1500"))
	if got := f.Category(core.Needs).Status; got != Amber {
		t.Fatalf("needs status=%v, want amber (deviation %s)", got, f.Category(core.Needs).Deviation)
	}
	f = DeriveCanonical(docWith("10000", "5200", "3500", "1300"))
	if got := f.Category(core.Needs).Status; got != Green {
		t.Fatalf("needs at exactly +2 should be green, got %v", got)
	}
	if got := f.Category(core.Wants).Status; got != Amber {
		t.Fatalf("wants at exactly +5 should be amber, got %v", got)
	}
	if got := f.Category(core.Savings).Status; got != Red {
		t.Fatalf("savings at -7 should be red, got %v", got)
	}
}

func TestDeriveTotals(t *testing.T) {
	d := docWith("2000", "1000", "", "200")
	d.Expenses.Wants = []core.ExpenseEntry{
		{ID: "w1", Label: "Cine", Amount: amount("30.5"), Category: core.Wants},
		{ID: "w2", Label: "Roto", Amount: core.Amount{}, Category: core.Wants},
	}
	f := DeriveCanonical(d)

	if !f.TotalIncome.Equal(dec("2000")) {
		t.Fatalf("income=%s", f.TotalIncome)
	}
	if !f.TotalExpense.Equal(dec("1230.5")) {
		t.Fatalf("expense=%s, want 1230.5", f.TotalExpense)
	}
	var sum decimal.Decimal
	for _, cf := range f.Categories() {
		sum = sum.Add(cf.Total)
	}
	if !sum.Equal(f.TotalExpense) {
		t.Fatalf("category totals %s do not add up to %s", sum, f.TotalExpense)
	}
	if !f.Balance.Equal(dec("769.5")) || f.BalanceStatus != Surplus {
		t.Fatalf("balance=%s status=%s", f.Balance, f.BalanceStatus)
	}
	needs := f.Category(core.Needs)
	if !needs.ActualPct.Equal(dec("50")) || needs.Status != Green {
		t.Fatalf("needs pct=%s status=%v", needs.ActualPct, needs.Status)
	}
	if !needs.IdealAmount.Equal(dec("1000")) || !needs.Delta.IsZero() {
		t.Fatalf("needs ideal amount=%s delta=%s", needs.IdealAmount, needs.Delta)
	}
	savings := f.Category(core.Savings)
	if !savings.Delta.Equal(dec("-200")) {
		t.Fatalf("savings delta=%s, want -200", savings.Delta)
	}
}

func TestDeriveZeroIncome(t *testing.T) {
	f := DeriveCanonical(docWith("", "100", "50", "10"))
	for _, cf := range f.Categories() {
		if !cf.ActualPct.IsZero() {
			t.Fatalf("%v pct=%s, want 0 with no income", cf.Category, cf.ActualPct)
		}
	}
	if f.BalanceStatus != Deficit {
		t.Fatalf("status=%s, want deficit", f.BalanceStatus)
	}
	if DeriveCanonical(core.NewDocument()).BalanceStatus != Balanced {
		t.Fatalf("empty document should be balanced")
	}
}

func TestDeriveInjectedIdeal(t *testing.T) {
	ideal := core.TargetDistribution{Needs: dec("60"), Wants: dec("20"), Savings: dec("20")}
	f := Derive(docWith("1000", "600", "200", "200"), ideal)
	if !f.AllGreen() {
		t.Fatalf("document matching the injected ideal should be all green")
	}
	if DeriveCanonical(docWith("1000", "600", "200", "200")).AllGreen() {
		t.Fatalf("same document is not green against 50/30/20")
	}
}

func TestChart(t *testing.T) {
	series := Chart(DeriveCanonical(docWith("1000", "500", "300", "200")))
	if len(series) != 3 || series[0].Name != "Necesidades" || series[0].Color != "#37B8AF" {
		t.Fatalf("unexpected series %+v", series)
	}
	if !series[2].Ideal.Equal(dec("20")) {
		t.Fatalf("savings ideal=%s", series[2].Ideal)
	}
}
