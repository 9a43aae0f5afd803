package wizard

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

type docSource struct{ doc core.Document }

func (d *docSource) Snapshot() core.Document { return d.doc }

func TestNextIsGatedOnIncome(t *testing.T) {
	src := &docSource{doc: core.NewDocument()}
	c := New(src, true, nil)

	if c.Next() {
		t.Fatalf("Next must be a no-op without income")
	}
	if c.Current() != StepIncome || c.Blocker() != MsgNeedIncome {
		t.Fatalf("unexpected state %v %q", c.Current(), c.Blocker())
	}

	src.doc.Income = append(src.doc.Income, core.IncomeEntry{ID: "1", Label: "Nómina", Amount: core.AmountFromInt(1000)})
	if !c.Next() || c.Current() != StepExpenses {
		t.Fatalf("expected to reach step 2, at %v", c.Current())
	}
}

func TestGates(t *testing.T) {
	doc := core.NewDocument()
	doc.Income = []core.IncomeEntry{{ID: "1", Label: "Nómina", Amount: core.AmountFromInt(1000)}}
	src := &docSource{doc: doc}
	c := New(src, true, nil)
	c.Next()

	if c.Next() {
		t.Fatalf("expenses step must require an expense")
	}
	src.doc.Expenses.Wants = []core.ExpenseEntry{{ID: "2", Label: "Cine", Amount: core.AmountFromInt(20), Category: core.Wants}}
	if !c.Next() || c.Current() != StepAnalysis {
		t.Fatalf("expected analysis step, at %v", c.Current())
	}

	// Analysis to adjustment is ungated.
	if !c.Next() || c.Current() != StepAdjustment {
		t.Fatalf("expected adjustment step, at %v", c.Current())
	}

	src.doc.Target = core.TargetDistribution{Needs: decimal.NewFromInt(60), Wants: decimal.NewFromInt(30), Savings: decimal.NewFromInt(20)}
	if c.Next() || c.Blocker() != MsgUnbalancedSplit {
		t.Fatalf("unbalanced distribution must block, blocker=%q", c.Blocker())
	}

	src.doc.Target = core.TargetDistribution{Needs: decimal.RequireFromString("50.05"), Wants: decimal.NewFromInt(30), Savings: decimal.NewFromInt(20)}
	if !c.Next() || c.Current() != StepExport {
		t.Fatalf("a distribution within tolerance must pass, at %v", c.Current())
	}

	if c.Next() || c.CanAdvance() {
		t.Fatalf("Next must clamp at the last step")
	}
}

func TestPrevClamps(t *testing.T) {
	c := New(&docSource{doc: core.NewDocument()}, true, nil)
	if c.Prev() || c.Current() != StepIncome {
		t.Fatalf("Prev must clamp at the first step")
	}
	if err := c.GoTo(StepAnalysis); err != nil {
		t.Fatalf("GoTo: %v", err)
	}
	if !c.Prev() || c.Current() != StepExpenses {
		t.Fatalf("expected expenses step, at %v", c.Current())
	}
}

func TestGoToBypassesGates(t *testing.T) {
	c := New(&docSource{doc: core.NewDocument()}, false, nil)

	if err := c.GoTo(StepExport); err != nil {
		t.Fatalf("GoTo: %v", err)
	}
	if c.Current() != StepExport {
		t.Fatalf("expected export step, at %v", c.Current())
	}
	if c.ExportEnabled() {
		t.Fatalf("export must stay hidden when the host disables it")
	}

	for _, s := range []Step{0, 6, -1} {
		if err := c.GoTo(s); !errors.Is(err, ErrInvalidStep) {
			t.Fatalf("GoTo(%d) = %v, want ErrInvalidStep", s, err)
		}
	}
	if c.Current() != StepExport {
		t.Fatalf("an invalid jump must not move, at %v", c.Current())
	}
}

func TestExportEnabledOnlyAtLastStep(t *testing.T) {
	c := New(&docSource{doc: core.NewDocument()}, true, nil)
	if c.ExportEnabled() {
		t.Fatalf("export must not be offered at step 1")
	}
	_ = c.GoTo(StepExport)
	if !c.ExportEnabled() {
		t.Fatalf("export must be offered at step 5")
	}
}

func TestStepNames(t *testing.T) {
	for _, s := range Steps {
		if s.Title() == "" || s.String() == "" {
			t.Fatalf("step %d has no name", s)
		}
	}
	if Step(9).Valid() {
		t.Fatalf("step 9 must be invalid")
	}
}
