package analysis

import (
	"testing"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

func TestAdjust(t *testing.T) {
	doc := docWith("2000", "1200", "500", "300")
	target := core.TargetDistribution{Needs: dec("55"), Wants: dec("25"), Savings: dec("20")}

	adj := Adjust(doc, target)
	if len(adj) != 3 {
		t.Fatalf("got %d adjustments", len(adj))
	}
	needs := adj[0]
	if !needs.NewAmount.Equal(dec("1100")) || !needs.Difference.Equal(dec("-100")) {
		t.Fatalf("needs new=%s diff=%s", needs.NewAmount, needs.Difference)
	}
	if needs.Status != Amber {
		t.Fatalf("a 55%% needs target should be amber, got %v", needs.Status)
	}
	if adj[2].Status != Green || !adj[2].Difference.Equal(dec("100")) {
		t.Fatalf("savings adj %+v", adj[2])
	}
}

func TestMissingBasics(t *testing.T) {
	doc := core.NewDocument()
	doc.Expenses.Needs = []core.ExpenseEntry{
		{ID: "1", Label: "Vivienda (alquiler)", Amount: amount("700"), Category: core.Needs},
		{ID: "2", Label: "Alimentación", Amount: amount("250"), Category: core.Needs},
	}
	got := MissingBasics(doc, DefaultBasics)
	if len(got) != 2 || got[0] != "transporte" || got[1] != "seguros" {
		t.Fatalf("missing=%v", got)
	}
}

func TestMemo(t *testing.T) {
	m := NewMemo(10, 0)
	doc := docWith("1000", "500", "300", "200")

	first := m.Derive(doc, core.IdealDistribution())
	second := m.Derive(doc.Clone(), core.IdealDistribution())
	if !first.TotalExpense.Equal(second.TotalExpense) {
		t.Fatalf("cached figures differ")
	}
	if hits, misses := m.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}

	changed := doc.Clone()
	changed.Expenses.Needs[0].Amount = amount("600")
	f := m.Derive(changed, core.IdealDistribution())
	if !f.TotalExpense.Equal(dec("1100")) {
		t.Fatalf("memo returned stale figures: %s", f.TotalExpense)
	}
}
