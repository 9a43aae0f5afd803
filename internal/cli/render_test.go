package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

func sampleDocument() core.Document {
	doc := core.NewDocument()
	doc.Income = []core.IncomeEntry{{ID: "i", Label: "Nómina", Amount: core.AmountFromInt(1000), Cadence: core.CadenceMonthly}}
	doc.Expenses.Needs = []core.ExpenseEntry{{ID: "n", Label: "Alquiler", Amount: core.AmountFromInt(500), Category: core.Needs}}
	doc.Expenses.Wants = []core.ExpenseEntry{{ID: "w", Label: "Cine", Amount: core.AmountFromInt(300), Category: core.Wants}}
	doc.Expenses.Savings = []core.ExpenseEntry{{ID: "s", Label: "Fondo", Amount: core.AmountFromInt(200), Category: core.Savings}}
	return doc
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Totales",
		Headers: []string{"Concepto", "Monto"},
		Rows:    [][]string{{"Nómina", "1000.00 €"}, {"Extra", "5.00 €"}},
	})
	for _, want := range []string{"Totales", "Concepto", "Nómina", "1000.00 €", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table lacks %q:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	width := -1
	for _, l := range lines[1:] {
		w := lipgloss.Width(l)
		if width == -1 {
			width = w
		} else if w != width {
			t.Fatalf("misaligned table:\n%s", out)
		}
	}

	if RenderTable(Table{}) != "" {
		t.Fatalf("an empty table renders nothing")
	}
}

func TestRenderSummaryAndChart(t *testing.T) {
	rep := advice.Evaluate(sampleDocument())

	summary := RenderSummary(rep.Figures)
	for _, want := range []string{"1000.00 €", "Necesidades", "50.0%", "Verde"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary lacks %q:\n%s", want, summary)
		}
	}

	chart := RenderChart(rep.Chart)
	if strings.Count(chart, "\n") != 4 || !strings.Contains(chart, "Ahorro/Inversión") {
		t.Fatalf("unexpected chart:\n%s", chart)
	}
}

func TestRenderAdvice(t *testing.T) {
	out := RenderAdvice("Recomendaciones", []advice.Advice{
		{Priority: advice.High, Message: "Gastos altos", Tip: "Revisa"},
		{Priority: advice.Low, Message: "Bien"},
	})
	for _, want := range []string{"1. [Alta]", "Gastos altos", "Revisa", "2. [Baja]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("advice lacks %q:\n%s", want, out)
		}
	}
	if RenderAdvice("x", nil) != "" {
		t.Fatalf("no advice renders nothing")
	}
}

func TestRenderStatus(t *testing.T) {
	for _, s := range []analysis.Status{analysis.Green, analysis.Amber, analysis.Red} {
		if !strings.Contains(RenderStatus(s), s.Label()) {
			t.Fatalf("status %v lacks its label", s)
		}
	}
}
