package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/budget"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cli"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/export"
)

var (
	flagFormat string
	flagOut    string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Muestra el análisis del presupuesto",
	Args:  cobra.NoArgs,
	RunE:  withSession(runShow),
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Gestiona los ingresos",
}

var incomeAddCmd = &cobra.Command{
	Use:   "add <concepto> <monto>",
	Short: "Agrega un ingreso mensual",
	Args:  cobra.ExactArgs(2),
	RunE:  withSession(runIncomeAdd),
}

var incomeEditCmd = &cobra.Command{
	Use:   "edit <id> <concepto> <monto>",
	Short: "Modifica un ingreso",
	Args:  cobra.ExactArgs(3),
	RunE:  withSession(runIncomeEdit),
}

var incomeRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Elimina un ingreso",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runIncomeRm),
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Gestiona los gastos",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <categoría> <concepto> <monto>",
	Short: "Agrega un gasto (necesidades, deseos o ahorro)",
	Args:  cobra.ExactArgs(3),
	RunE:  withSession(runExpenseAdd),
}

var expenseEditCmd = &cobra.Command{
	Use:   "edit <categoría> <id> <concepto> <monto>",
	Short: "Modifica un gasto",
	Args:  cobra.ExactArgs(4),
	RunE:  withSession(runExpenseEdit),
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm <categoría> <id>",
	Short: "Elimina un gasto",
	Args:  cobra.ExactArgs(2),
	RunE:  withSession(runExpenseRm),
}

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Ajusta la distribución objetivo",
}

var targetSetCmd = &cobra.Command{
	Use:   "set <necesidades> <deseos> <ahorro> | set <categoría> <porcentaje>",
	Short: "Fija los porcentajes objetivo",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  withSession(runTargetSet),
}

var targetRebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Reescala los porcentajes para que sumen 100",
	Args:  cobra.NoArgs,
	RunE:  withSession(runTargetRebalance),
}

var targetResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Vuelve a 50-30-20",
	Args:  cobra.NoArgs,
	RunE:  withSession(runTargetReset),
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Guarda el presupuesto en la API",
	Args:  cobra.NoArgs,
	RunE:  withSession(runSave),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta el presupuesto a CSV o PDF",
	Args:  cobra.NoArgs,
	RunE:  withSession(runExport),
}

func init() {
	incomeCmd.AddCommand(incomeAddCmd, incomeEditCmd, incomeRmCmd)
	expenseCmd.AddCommand(expenseAddCmd, expenseEditCmd, expenseRmCmd)
	targetCmd.AddCommand(targetSetCmd, targetRebalanceCmd, targetResetCmd)

	exportCmd.Flags().StringVarP(&flagFormat, "format", "f", "csv", "Export format: csv or pdf")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output directory or file (default current directory)")

	rootCmd.AddCommand(showCmd, incomeCmd, expenseCmd, targetCmd, saveCmd, exportCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	return withSession(runWizard)(cmd, args)
}

func runShow(_ context.Context, s *session, _ []string) error {
	fmt.Print(renderAnalysis(s.store))
	return nil
}

func renderAnalysis(store *budget.Store) string {
	rep := store.Report()
	var b strings.Builder
	b.WriteString("\n" + cli.RenderTitle("PRESUPUESTO 50-30-20") + "\n\n")
	b.WriteString(cli.RenderAlerts(rep.Validation.Errors))
	b.WriteString(cli.RenderSummary(rep.Figures))
	b.WriteString("\n" + cli.RenderChart(rep.Chart) + "\n")
	b.WriteString(cli.RenderAdvice("Recomendaciones", rep.Advice))
	b.WriteString(cli.RenderAdvice("Gastos básicos", rep.Basics))
	return b.String()
}

func runIncomeAdd(_ context.Context, s *session, args []string) error {
	amount, err := core.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("monto %q: %w", args[1], err)
	}
	e, err := s.store.AddIncome(args[0], amount)
	if err != nil {
		return err
	}
	fmt.Printf("  Ingreso agregado: %s (%s)\n", e.Label, e.ID)
	return nil
}

func runIncomeEdit(_ context.Context, s *session, args []string) error {
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return fmt.Errorf("monto %q: %w", args[2], err)
	}
	if err := s.store.EditIncome(args[0], args[1], amount); err != nil {
		return err
	}
	fmt.Printf("  Ingreso actualizado: %s\n", strings.TrimSpace(args[1]))
	return nil
}

func runIncomeRm(_ context.Context, s *session, args []string) error {
	return s.store.RemoveIncome(args[0])
}

func runExpenseAdd(_ context.Context, s *session, args []string) error {
	c, err := core.ParseCategory(args[0])
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return fmt.Errorf("monto %q: %w", args[2], err)
	}
	e, err := s.store.AddExpense(c, args[1], amount)
	if err != nil {
		return err
	}
	fmt.Printf("  Gasto agregado en %s: %s (%s)\n", c.Label(), e.Label, e.ID)
	return nil
}

func runExpenseEdit(_ context.Context, s *session, args []string) error {
	c, err := core.ParseCategory(args[0])
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[3])
	if err != nil {
		return fmt.Errorf("monto %q: %w", args[3], err)
	}
	if err := s.store.EditExpense(c, args[1], args[2], amount); err != nil {
		return err
	}
	fmt.Printf("  Gasto actualizado en %s: %s\n", c.Label(), strings.TrimSpace(args[2]))
	return nil
}

func runExpenseRm(_ context.Context, s *session, args []string) error {
	c, err := core.ParseCategory(args[0])
	if err != nil {
		return err
	}
	return s.store.RemoveExpense(c, args[1])
}

func parsePercent(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("porcentaje no válido: %q", s)
	}
	return d, nil
}

func runTargetSet(_ context.Context, s *session, args []string) error {
	if len(args) == 2 {
		c, err := core.ParseCategory(args[0])
		if err != nil {
			return err
		}
		v, err := parsePercent(args[1])
		if err != nil {
			return err
		}
		if err := s.store.SetTarget(c, v); err != nil {
			return err
		}
	} else {
		var values [3]decimal.Decimal
		for i, a := range args {
			v, err := parsePercent(a)
			if err != nil {
				return err
			}
			values[i] = v
		}
		s.store.SetTargetDistribution(core.TargetDistribution{Needs: values[0], Wants: values[1], Savings: values[2]})
	}

	t := s.store.Snapshot().Target
	if !t.IsBalanced() {
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  La distribución suma %s%%; usa 'target rebalance' para ajustarla.", t.Total().StringFixed(2))))
	}
	fmt.Print(cli.RenderAdjustments(s.store.Report().Adjustments))
	return nil
}

func runTargetRebalance(_ context.Context, s *session, _ []string) error {
	if !s.store.RebalanceProportionally() {
		return errors.New("no se puede reescalar una distribución que suma 0")
	}
	fmt.Print(cli.RenderAdjustments(s.store.Report().Adjustments))
	return nil
}

func runTargetReset(_ context.Context, s *session, _ []string) error {
	s.store.ResetToIdeal()
	fmt.Print(cli.RenderAdjustments(s.store.Report().Adjustments))
	return nil
}

func runSave(ctx context.Context, s *session, _ []string) error {
	res, err := s.store.Save(ctx)
	fmt.Println("  " + res.Message)
	return err
}

func runExport(_ context.Context, s *session, _ []string) error {
	if !s.store.ShowExport() {
		return errors.New("la exportación está deshabilitada")
	}
	format, err := export.ParseFormat(flagFormat)
	if err != nil {
		return errors.New(export.MsgUnsupportedFormat)
	}
	path, err := writeExport(s.store, format, flagOut, time.Now())
	if err != nil {
		return err
	}
	fmt.Println("  Exportado:", path)
	return nil
}

// writeExport renders the current document and writes it under out. An out
// naming an existing directory, or empty, receives the dated filename.
func writeExport(store *budget.Store, format export.Format, out string, now time.Time) (string, error) {
	doc := store.Snapshot()
	data, err := export.Render(format, doc, store.Report(), now)
	if err != nil {
		return "", err
	}

	path := out
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, export.Filename(format, now))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
