package advice

import (
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Report bundles everything derived from one document.
type Report struct {
	Figures     analysis.Figures
	Validation  analysis.Validation
	Advice      []Advice
	Basics      []Advice
	Chart       []analysis.Series
	Adjustments []analysis.Adjustment
	// AdjustmentAdvice is the secondary channel run on the document's target.
	AdjustmentAdvice []Advice
	// TargetFigures are the figures against the document's own target.
	TargetFigures analysis.Figures
}

// Evaluator derives reports with a shared rule table and an optional memo.
type Evaluator struct {
	Rules Rules
	Memo  *analysis.Memo
}

// NewEvaluator returns an evaluator with the given rules and memo.
func NewEvaluator(rules Rules, memo *analysis.Memo) *Evaluator {
	return &Evaluator{Rules: rules.WithDefaults(), Memo: memo}
}

func (e *Evaluator) derive(doc core.Document, ideal core.TargetDistribution) analysis.Figures {
	if e.Memo != nil {
		return e.Memo.Derive(doc, ideal)
	}
	return analysis.Derive(doc, ideal)
}

// Evaluate derives the full report of doc.
func (e *Evaluator) Evaluate(doc core.Document) Report {
	f := e.derive(doc, core.IdealDistribution())
	v := analysis.Validate(doc)
	return Report{
		Figures:          f,
		Validation:       v,
		Advice:           Generate(doc, f, v, e.Rules),
		Basics:           Basics(doc, e.Rules),
		Chart:            analysis.Chart(f),
		Adjustments:      analysis.Adjust(doc, doc.Target),
		AdjustmentAdvice: Adjustment(doc.Target, e.Rules),
		TargetFigures:    e.derive(doc, doc.Target),
	}
}

// Evaluate derives a report with the default rules and no memo.
func Evaluate(doc core.Document) Report {
	return NewEvaluator(DefaultRules(), nil).Evaluate(doc)
}

// Messages flattens advice into their message texts.
func Messages(list []Advice) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Message)
	}
	return out
}
