package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

const noEntriesPlaceholder = "Sin gastos registrados"

// CSV renders the summary, the 50/30/20 comparison, the income detail, one
// block per category and the numbered advice list.
func CSV(doc core.Document, rep advice.Report, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	f := rep.Figures

	rows := [][]string{
		{fmt.Sprintf("%s - %s", productName, displayDate(now))},
		{},
		{"RESUMEN GENERAL"},
		{"Concepto", "Monto"},
		{"Ingresos Totales", money(f.TotalIncome)},
		{"Gastos Totales", money(f.TotalExpense)},
		{"Balance", money(f.Balance)},
		{},
		{"DISTRIBUCIÓN 50-30-20"},
		{"Categoría", "Monto", "Porcentaje Actual", "Porcentaje Ideal", "Cumple Regla"},
	}
	for _, cf := range f.Categories() {
		rows = append(rows, []string{
			cf.Category.Label(),
			money(cf.Total),
			money(cf.ActualPct),
			money(cf.IdealPct),
			yesNo(complies(cf)),
		})
	}

	rows = append(rows, []string{}, []string{"INGRESOS DETALLADOS"}, []string{"Concepto", "Monto"})
	for _, in := range doc.Income {
		rows = append(rows, []string{in.Label, money(in.Amount.Decimal())})
	}

	for _, c := range core.Categories {
		rows = append(rows, []string{}, []string{strings.ToUpper(sectionTitle(c))}, []string{"Concepto", "Monto"})
		entries := doc.Expenses.Of(c)
		if len(entries) == 0 {
			rows = append(rows, []string{noEntriesPlaceholder, "-"})
			continue
		}
		for _, e := range entries {
			rows = append(rows, []string{e.Label, money(e.Amount.Decimal())})
		}
	}

	if len(rep.Advice) > 0 {
		rows = append(rows, []string{}, []string{"RECOMENDACIONES PERSONALIZADAS"})
		for i, a := range rep.Advice {
			rows = append(rows, []string{fmt.Sprintf("%d. %s", i+1, a.Message)})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(ok bool) string {
	if ok {
		return "Sí"
	}
	return "No"
}
