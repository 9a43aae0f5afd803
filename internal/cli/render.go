package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Brand colors
var (
	ColorPrimary = lipgloss.Color("#37B8AF")
	ColorDark    = lipgloss.Color("#0F4C5C")
	ColorLight   = lipgloss.Color("#E8F4F8")
	ColorBorder  = lipgloss.Color("#575653")
	ColorMuted   = lipgloss.Color("#6F6E69")
	ColorGreen   = lipgloss.Color("#879A39")
	ColorAmber   = lipgloss.Color("#DA702C")
	ColorRed     = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorLight).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDark).
			Background(ColorLight).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorBorder)
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
)

const barWidth = 30

// Table is a bordered text table.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderStep renders the "Paso i de 5" banner.
func RenderStep(n, total int, title string) string {
	return stepStyle.Render(fmt.Sprintf("PASO %d DE %d: %s", n, total, strings.ToUpper(title)))
}

// RenderTable renders t with box-drawing borders. The first column is left
// aligned, the rest right aligned.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	line := func(row []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(" " + style.Render(cell) + pad + " ")
			} else {
				b.WriteString(" " + pad + style.Render(cell) + " ")
			}
			b.WriteString(dimStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, headerStyle))
		b.WriteString(rule("├", "┼", "┤"))
	}
	plain := lipgloss.NewStyle()
	for _, row := range t.Rows {
		b.WriteString(line(row, plain))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// StatusStyle returns the semaphore style of s.
func StatusStyle(s analysis.Status) lipgloss.Style {
	switch s {
	case analysis.Green:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case analysis.Amber:
		return lipgloss.NewStyle().Foreground(ColorAmber)
	default:
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
}

// RenderStatus renders a colored dot with the status label.
func RenderStatus(s analysis.Status) string {
	return StatusStyle(s).Render("● " + s.Label())
}

func money(d decimal.Decimal) string { return d.StringFixed(2) + " €" }
func pct(d decimal.Decimal) string   { return d.StringFixed(1) + "%" }

// RenderEntries lists income or expense entries with their running total.
func RenderEntries(title string, labels []string, amounts []core.Amount) string {
	rows := make([][]string, 0, len(labels)+2)
	total := decimal.Zero
	for i := range labels {
		total = total.Add(amounts[i].Decimal())
		rows = append(rows, []string{fmt.Sprintf("%d. %s", i+1, labels[i]), money(amounts[i].Decimal())})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{mutedStyle.Render("Sin registros"), "-"})
	}
	rows = append(rows, []string{"Total", money(total)})
	return RenderTable(Table{Title: title, Headers: []string{"Concepto", "Monto"}, Rows: rows})
}

// RenderSummary renders the totals and the per-category semaphore table.
func RenderSummary(f analysis.Figures) string {
	var b strings.Builder
	b.WriteString(RenderTable(Table{
		Title:   "Resumen",
		Headers: []string{"Concepto", "Valor"},
		Rows: [][]string{
			{"Ingresos totales", money(f.TotalIncome)},
			{"Gastos totales", money(f.TotalExpense)},
			{"Balance", money(f.Balance)},
			{"Estado", string(f.BalanceStatus)},
		},
	}))

	rows := make([][]string, 0, 3)
	for _, cf := range f.Categories() {
		rows = append(rows, []string{
			cf.Category.Label(),
			money(cf.Total),
			pct(cf.ActualPct),
			pct(cf.IdealPct),
			RenderStatus(cf.Status),
		})
	}
	b.WriteString(RenderTable(Table{
		Title:   "Regla 50-30-20",
		Headers: []string{"Categoría", "Monto", "Actual", "Ideal", "Estado"},
		Rows:    rows,
	}))
	return b.String()
}

// RenderChart draws one horizontal bar per series, scaled to 100%.
func RenderChart(series []analysis.Series) string {
	var b strings.Builder
	b.WriteString("  " + headerStyle.Render("Distribución") + "\n")
	hundred := decimal.NewFromInt(100)
	for _, s := range series {
		p := s.Pct
		if p.GreaterThan(hundred) {
			p = hundred
		}
		filled := int(p.Mul(decimal.NewFromInt(barWidth)).Div(hundred).Round(0).IntPart())
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(&b, "  %-18s %s %6s %s\n", s.Name, bar, pct(s.Pct),
			mutedStyle.Render("(ideal "+pct(s.Ideal)+")"))
	}
	return b.String()
}

// RenderAdjustments renders the adjustment step table.
func RenderAdjustments(adj []analysis.Adjustment) string {
	rows := make([][]string, 0, len(adj))
	for _, a := range adj {
		rows = append(rows, []string{
			a.Category.Label(),
			pct(a.TargetPct),
			money(a.NewAmount),
			money(a.Difference),
			RenderStatus(a.Status),
		})
	}
	return RenderTable(Table{
		Title:   "Ajuste de distribución",
		Headers: []string{"Categoría", "Objetivo", "Nuevo monto", "Diferencia", "Estado"},
		Rows:    rows,
	})
}

// RenderAdvice lists advice with their tips, one block per item.
func RenderAdvice(title string, list []advice.Advice) string {
	if len(list) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("  " + headerStyle.Render(title) + "\n")
	for i, a := range list {
		marker := mutedStyle.Render(fmt.Sprintf("[%s]", a.Priority.Label()))
		msg := a.Message
		if a.Priority == advice.High {
			msg = alertStyle.Render(msg)
		}
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, marker, msg)
		if a.Tip != "" {
			b.WriteString("     " + mutedStyle.Render(a.Tip) + "\n")
		}
	}
	return b.String()
}

// RenderAlerts renders blocking validation errors.
func RenderAlerts(errs []string) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString("  " + alertStyle.Render("! "+e) + "\n")
	}
	return b.String()
}

// RenderMuted renders secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }
