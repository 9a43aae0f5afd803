package advice

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Priority orders advice; lower values sort first.
type Priority int

const (
	High Priority = iota
	Medium
	Low
)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	}
	return "unknown"
}

// Label returns the Spanish name shown to users.
func (p Priority) Label() string {
	switch p {
	case High:
		return "Alta"
	case Medium:
		return "Media"
	case Low:
		return "Baja"
	}
	return ""
}

// Advice is a single recommendation.
type Advice struct {
	Priority Priority
	Message  string
	Tip      string
}

const (
	msgNeedsRed      = "Tus necesidades están muy alejadas del 50% recomendado"
	tipNeedsRed      = "Revisa si algunos gastos clasificados como \"necesidades\" son realmente \"deseos\""
	msgSavingsLow    = "Tu ahorro está por debajo del 20%"
	tipSavingsLow    = "Recuerda: el ahorro es tu \"yo del futuro\" agradeciéndotelo por adelantado"
	msgDiscretionary = "Tus gastos variables son altos"
	tipDiscretionary = "Considera implementar la regla de las 24 horas antes de compras no planificadas"
	msgCongrats      = "¡Excelente! Tu presupuesto sigue la regla 50-30-20"
	tipCongrats      = "Mantén este buen hábito y revisa tu presupuesto mensualmente"

	msgAdjustNeeds   = "Tus necesidades son muy altas. ¿Hay gastos que podrías reclasificar como deseos?"
	msgAdjustWants   = "Tus deseos superan el 40%. Considera reducirlos para aumentar tu ahorro."
	msgAdjustSavings = "Tu ahorro está por debajo del 15%. Recuerda que es la clave de tu libertad financiera."
	msgAdjustIdeal   = "¡Excelente! Tu distribución está muy cerca del ideal 50-30-20."

	msgMissingBasic = "Considera agregar gastos de %s"
)

// Generate evaluates the main channel over a document, its canonical
// figures and its validation result. Rules are applied in a fixed order and
// the result is deduplicated by message, then stable-sorted by priority.
func Generate(doc core.Document, f analysis.Figures, v analysis.Validation, rules Rules) []Advice {
	rules = rules.WithDefaults()
	var out []Advice

	for _, msg := range v.Errors {
		out = append(out, Advice{Priority: High, Message: msg})
	}
	for _, msg := range v.Warnings {
		out = append(out, Advice{Priority: Medium, Message: msg})
	}

	if f.Category(core.Needs).Status == analysis.Red {
		out = append(out, Advice{Priority: Medium, Message: msgNeedsRed, Tip: tipNeedsRed})
	}

	savings := f.Category(core.Savings)
	if savings.Status == analysis.Red && savings.ActualPct.LessThan(pct(rules.SavingsFloor)) {
		out = append(out, Advice{Priority: Medium, Message: msgSavingsLow, Tip: tipSavingsLow})
	}

	discretionary := DiscretionarySpend(doc, rules.DiscretionaryKeywords)
	limit := f.TotalIncome.Mul(pct(rules.DiscretionaryShare)).Div(decimal.NewFromInt(100))
	if discretionary.GreaterThan(limit) {
		out = append(out, Advice{Priority: Low, Message: msgDiscretionary, Tip: tipDiscretionary})
	}

	if len(out) == 0 && f.TotalIncome.IsPositive() {
		out = append(out, Advice{Priority: Low, Message: msgCongrats, Tip: tipCongrats})
	}

	return finalize(out)
}

// DiscretionarySpend sums the wants whose label matches any keyword.
func DiscretionarySpend(doc core.Document, keywords []string) decimal.Decimal {
	var matched []core.ExpenseEntry
	for _, e := range doc.Expenses.Wants {
		if core.LabelMatches(e.Label, keywords) {
			matched = append(matched, e)
		}
	}
	return core.Sum(matched)
}

// Adjustment evaluates the secondary channel on a target distribution alone.
func Adjustment(target core.TargetDistribution, rules Rules) []Advice {
	rules = rules.WithDefaults()
	var out []Advice

	if target.Needs.GreaterThan(pct(rules.AdjustNeedsMax)) {
		out = append(out, Advice{Priority: Medium, Message: msgAdjustNeeds})
	}
	if target.Wants.GreaterThan(pct(rules.AdjustWantsMax)) {
		out = append(out, Advice{Priority: Medium, Message: msgAdjustWants})
	}
	if target.Savings.LessThan(pct(rules.AdjustSavingsMin)) {
		out = append(out, Advice{Priority: Medium, Message: msgAdjustSavings})
	}

	tolerance := pct(rules.AdjustTolerance)
	near := true
	for _, c := range core.Categories {
		if target.Get(c).Sub(c.IdealPct()).Abs().GreaterThan(tolerance) {
			near = false
			break
		}
	}
	if near {
		out = append(out, Advice{Priority: Low, Message: msgAdjustIdeal})
	}

	return finalize(out)
}

// Basics suggests the essential needs that no label mentions.
func Basics(doc core.Document, rules Rules) []Advice {
	rules = rules.WithDefaults()
	var out []Advice
	for _, b := range analysis.MissingBasics(doc, rules.Basics) {
		out = append(out, Advice{Priority: Low, Message: fmt.Sprintf(msgMissingBasic, b)})
	}
	return finalize(out)
}

func finalize(in []Advice) []Advice {
	seen := make(map[string]struct{}, len(in))
	out := make([]Advice, 0, len(in))
	for _, a := range in {
		if _, dup := seen[a.Message]; dup {
			continue
		}
		seen[a.Message] = struct{}{}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
