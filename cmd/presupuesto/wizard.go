package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/budget"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cli"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/export"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/wizard"
)

const (
	actionAdd       = "add"
	actionRemove    = "remove"
	actionEdit      = "edit"
	actionNext      = "next"
	actionPrev      = "prev"
	actionJump      = "jump"
	actionQuit      = "quit"
	actionTarget    = "target"
	actionRebalance = "rebalance"
	actionReset     = "reset"
	actionCSV       = "csv"
	actionPDF       = "pdf"
	actionSave      = "save"
)

func clearScreen() { fmt.Print("\033[H\033[2J") }

// runWizard walks the five steps until the user quits.
func runWizard(ctx context.Context, s *session, _ []string) error {
	flow := wizard.New(s.store, s.store.ShowExport(), s.logger)
	notice := ""

	for {
		clearScreen()
		step := flow.Current()
		fmt.Println(cli.RenderTitle("PRESUPUESTO 50-30-20"))
		fmt.Println(cli.RenderStep(int(step), len(wizard.Steps), step.Title()))
		fmt.Println()
		fmt.Print(renderStep(s.store, flow))
		if notice != "" {
			fmt.Println(cli.RenderMuted("  " + notice))
			notice = ""
		}

		action, err := chooseAction(flow)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		switch action {
		case actionQuit:
			return nil
		case actionNext:
			if !flow.Next() {
				notice = flow.Blocker()
			}
		case actionPrev:
			flow.Prev()
		case actionJump:
			err = jumpForm(flow)
		case actionAdd:
			if step == wizard.StepIncome {
				err = addIncomeForm(s.store)
			} else {
				err = addExpenseForm(s.store)
			}
		case actionEdit:
			err = editForm(s.store, step)
		case actionRemove:
			err = removeForm(s.store, step)
		case actionTarget:
			err = targetForm(s.store)
		case actionRebalance:
			if !s.store.RebalanceProportionally() {
				notice = "No se puede reescalar una distribución que suma 0"
			}
		case actionReset:
			s.store.ResetToIdeal()
		case actionCSV, actionPDF:
			var path string
			path, err = writeExport(s.store, export.Format(action), "", time.Now())
			if err == nil {
				notice = "Exportado: " + path
			}
		case actionSave:
			res, saveErr := s.store.Save(ctx)
			notice = res.Message
			switch {
			case errors.Is(saveErr, budget.ErrNotAuthenticated):
				notice += " (usa --identity)"
			case errors.Is(saveErr, budget.ErrNoRemote):
				notice += " (usa --api-url)"
			}
		}

		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			notice = err.Error()
		}
	}
}

func renderStep(store *budget.Store, flow *wizard.Controller) string {
	doc := store.Snapshot()
	rep := store.Report()
	var b strings.Builder

	switch flow.Current() {
	case wizard.StepIncome:
		labels, amounts := incomeColumns(doc.Income)
		b.WriteString(cli.RenderEntries("Ingresos mensuales", labels, amounts))
	case wizard.StepExpenses:
		for _, c := range core.Categories {
			labels, amounts := expenseColumns(doc.Expenses.Of(c))
			b.WriteString(cli.RenderEntries(fmt.Sprintf("%s (%s%%)", c.Title(), c.IdealPct()), labels, amounts))
		}
	case wizard.StepAnalysis:
		b.WriteString(cli.RenderAlerts(rep.Validation.Errors))
		b.WriteString(cli.RenderSummary(rep.Figures))
		b.WriteString("\n" + cli.RenderChart(rep.Chart) + "\n")
		b.WriteString(cli.RenderAdvice("Recomendaciones", rep.Advice))
		b.WriteString(cli.RenderAdvice("Gastos básicos", rep.Basics))
	case wizard.StepAdjustment:
		b.WriteString(cli.RenderAdjustments(rep.Adjustments))
		fmt.Fprintf(&b, "  Total: %s%%\n", doc.Target.Total().StringFixed(2))
		b.WriteString(cli.RenderAdvice("Sugerencias", rep.AdjustmentAdvice))
	case wizard.StepExport:
		b.WriteString(cli.RenderSummary(rep.Figures))
		if !flow.ExportEnabled() {
			b.WriteString(cli.RenderMuted("  La exportación no está disponible.") + "\n")
		}
		if at, ok := store.LastSaved(); ok {
			b.WriteString(cli.RenderMuted("  Último guardado: "+at.Format("02/01/2006 15:04")) + "\n")
		}
	}
	return b.String()
}

func incomeColumns(entries []core.IncomeEntry) ([]string, []core.Amount) {
	labels := make([]string, 0, len(entries))
	amounts := make([]core.Amount, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
		amounts = append(amounts, e.Amount)
	}
	return labels, amounts
}

func expenseColumns(entries []core.ExpenseEntry) ([]string, []core.Amount) {
	labels := make([]string, 0, len(entries))
	amounts := make([]core.Amount, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
		amounts = append(amounts, e.Amount)
	}
	return labels, amounts
}

func chooseAction(flow *wizard.Controller) (string, error) {
	var opts []huh.Option[string]
	switch flow.Current() {
	case wizard.StepIncome:
		opts = append(opts,
			huh.NewOption("Agregar ingreso", actionAdd),
			huh.NewOption("Editar ingreso", actionEdit),
			huh.NewOption("Eliminar ingreso", actionRemove))
	case wizard.StepExpenses:
		opts = append(opts,
			huh.NewOption("Agregar gasto", actionAdd),
			huh.NewOption("Editar gasto", actionEdit),
			huh.NewOption("Eliminar gasto", actionRemove))
	case wizard.StepAdjustment:
		opts = append(opts,
			huh.NewOption("Cambiar porcentajes", actionTarget),
			huh.NewOption("Reescalar a 100%", actionRebalance),
			huh.NewOption("Volver a 50-30-20", actionReset))
	case wizard.StepExport:
		if flow.ExportEnabled() {
			opts = append(opts, huh.NewOption("Exportar CSV", actionCSV), huh.NewOption("Exportar PDF", actionPDF))
		}
		opts = append(opts, huh.NewOption("Guardar en la nube", actionSave))
	}
	if flow.Current() < wizard.StepExport {
		opts = append(opts, huh.NewOption("Siguiente paso", actionNext))
	}
	if flow.Current() > wizard.StepIncome {
		opts = append(opts, huh.NewOption("Paso anterior", actionPrev))
	}
	opts = append(opts, huh.NewOption("Ir a un paso", actionJump), huh.NewOption("Salir", actionQuit))

	var action string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("¿Qué quieres hacer?").Options(opts...).Value(&action),
	)).Run()
	return action, err
}

func validateLabel(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("el concepto no puede estar vacío")
	}
	return nil
}

func validateAmount(s string) error {
	if _, err := core.ParseAmount(s); err != nil {
		return errors.New("introduce un monto válido, por ejemplo 1200,50")
	}
	return nil
}

func addIncomeForm(store *budget.Store) error {
	var label, amount string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Concepto").Placeholder("Nómina").Value(&label).Validate(validateLabel),
		huh.NewInput().Title("Monto mensual (€)").Value(&amount).Validate(validateAmount),
	)).Run()
	if err != nil {
		return err
	}
	a, _ := core.ParseAmount(amount)
	_, err = store.AddIncome(label, a)
	return err
}

func categoryOptions() []huh.Option[core.Category] {
	opts := make([]huh.Option[core.Category], 0, len(core.Categories))
	for _, c := range core.Categories {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s%%)", c.Label(), c.IdealPct()), c))
	}
	return opts
}

func addExpenseForm(store *budget.Store) error {
	var (
		c             core.Category
		label, amount string
	)
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[core.Category]().Title("Categoría").Options(categoryOptions()...).Value(&c),
		huh.NewInput().Title("Concepto").Value(&label).Validate(validateLabel),
		huh.NewInput().Title("Monto mensual (€)").Value(&amount).Validate(validateAmount),
	)).Run()
	if err != nil {
		return err
	}
	a, _ := core.ParseAmount(amount)
	_, err = store.AddExpense(c, label, a)
	return err
}

type entryRef struct {
	category core.Category
	id       string
	label    string
	amount   string
	income   bool
}

// entryRefs lists the entries a step can edit or remove.
func entryRefs(doc core.Document, step wizard.Step) []entryRef {
	var refs []entryRef
	if step == wizard.StepIncome {
		for _, e := range doc.Income {
			refs = append(refs, entryRef{id: e.ID, label: e.Label, amount: e.Amount.String(), income: true})
		}
		return refs
	}
	for _, c := range core.Categories {
		for _, e := range doc.Expenses.Of(c) {
			refs = append(refs, entryRef{category: c, id: e.ID, label: e.Label, amount: e.Amount.String()})
		}
	}
	return refs
}

func pickEntry(store *budget.Store, step wizard.Step) (entryRef, error) {
	refs := entryRefs(store.Snapshot(), step)
	if len(refs) == 0 {
		return entryRef{}, errors.New("no hay registros")
	}
	opts := make([]huh.Option[entryRef], 0, len(refs))
	for _, ref := range refs {
		key := fmt.Sprintf("%s (%s €)", ref.label, ref.amount)
		if !ref.income {
			key = ref.category.Label() + ": " + key
		}
		opts = append(opts, huh.NewOption(key, ref))
	}

	var ref entryRef
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[entryRef]().Title("Elige el registro").Options(opts...).Value(&ref),
	)).Run()
	return ref, err
}

func removeForm(store *budget.Store, step wizard.Step) error {
	ref, err := pickEntry(store, step)
	if err != nil {
		return err
	}
	if ref.income {
		return store.RemoveIncome(ref.id)
	}
	return store.RemoveExpense(ref.category, ref.id)
}

func editForm(store *budget.Store, step wizard.Step) error {
	ref, err := pickEntry(store, step)
	if err != nil {
		return err
	}
	label, amount := ref.label, ref.amount
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Concepto").Value(&label).Validate(validateLabel),
		huh.NewInput().Title("Monto mensual (€)").Value(&amount).Validate(validateAmount),
	)).Run(); err != nil {
		return err
	}
	return applyEdit(store, ref, label, amount)
}

func applyEdit(store *budget.Store, ref entryRef, label, amount string) error {
	a, err := core.ParseAmount(amount)
	if err != nil {
		return fmt.Errorf("monto %q: %w", amount, err)
	}
	if ref.income {
		return store.EditIncome(ref.id, label, a)
	}
	return store.EditExpense(ref.category, ref.id, label, a)
}

func validatePercent(s string) error {
	_, err := parsePercent(s)
	return err
}

// targetDefaults prefills the adjustment form. A distribution the user
// already changed is kept; otherwise it starts from the actual split, or
// from 50/30/20 while there is no income.
func targetDefaults(store *budget.Store) [3]string {
	t := store.Snapshot().Target
	f := store.Figures()
	if t.Equal(core.IdealDistribution()) && f.TotalIncome.IsPositive() {
		t = core.TargetDistribution{
			Needs:   f.Category(core.Needs).ActualPct.Round(2),
			Wants:   f.Category(core.Wants).ActualPct.Round(2),
			Savings: f.Category(core.Savings).ActualPct.Round(2),
		}
	}
	return [3]string{t.Needs.String(), t.Wants.String(), t.Savings.String()}
}

func targetForm(store *budget.Store) error {
	values := targetDefaults(store)
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Necesidades (%)").Value(&values[0]).Validate(validatePercent),
		huh.NewInput().Title("Deseos (%)").Value(&values[1]).Validate(validatePercent),
		huh.NewInput().Title("Ahorro/Inversión (%)").Value(&values[2]).Validate(validatePercent),
	)).Run()
	if err != nil {
		return err
	}
	n, _ := parsePercent(values[0])
	w, _ := parsePercent(values[1])
	sv, _ := parsePercent(values[2])
	store.SetTargetDistribution(core.TargetDistribution{Needs: n, Wants: w, Savings: sv})
	return nil
}

func jumpForm(flow *wizard.Controller) error {
	opts := make([]huh.Option[wizard.Step], 0, len(wizard.Steps))
	for _, st := range wizard.Steps {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d. %s", int(st), st.Title()), st))
	}
	target := flow.Current()
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[wizard.Step]().Title("Ir al paso").Options(opts...).Value(&target),
	)).Run(); err != nil {
		return err
	}
	return flow.GoTo(target)
}
