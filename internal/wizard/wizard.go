// Package wizard drives the five-step budgeting flow.
package wizard

import (
	"errors"
	"fmt"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

// Step is a 1-based wizard position.
type Step int

const (
	StepIncome Step = iota + 1
	StepExpenses
	StepAnalysis
	StepAdjustment
	StepExport
)

// Steps lists every step in order.
var Steps = []Step{StepIncome, StepExpenses, StepAnalysis, StepAdjustment, StepExport}

const (
	MsgNeedIncome      = "Agrega al menos un ingreso para continuar"
	MsgNeedExpense     = "Agrega al menos un gasto para continuar"
	MsgUnbalancedSplit = "La distribución debe sumar 100%"
)

var ErrInvalidStep = errors.New("invalid step")

func (s Step) String() string {
	switch s {
	case StepIncome:
		return "income"
	case StepExpenses:
		return "expenses"
	case StepAnalysis:
		return "analysis"
	case StepAdjustment:
		return "adjustment"
	case StepExport:
		return "export"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Title returns the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepIncome:
		return "Ingresos"
	case StepExpenses:
		return "Gastos"
	case StepAnalysis:
		return "Análisis"
	case StepAdjustment:
		return "Ajuste"
	case StepExport:
		return "Exportar"
	}
	return ""
}

// Valid reports whether s is one of the five steps.
func (s Step) Valid() bool {
	return s >= StepIncome && s <= StepExport
}

// Source provides the current document. *budget.Store satisfies it.
type Source interface {
	Snapshot() core.Document
}

// Controller tracks the current step. Next is gated on the document,
// GoTo is not.
type Controller struct {
	source     Source
	current    Step
	showExport bool
	logger     *log.Logger
}

func New(source Source, showExport bool, logger *log.Logger) *Controller {
	return &Controller{
		source:     source,
		current:    StepIncome,
		showExport: showExport,
		logger:     log.OrDiscard(logger).WithComponent(log.ComponentWizard),
	}
}

// Current returns the active step.
func (c *Controller) Current() Step { return c.current }

// Blocker returns why the active step cannot advance, or "" when it can.
func (c *Controller) Blocker() string {
	doc := c.source.Snapshot()
	switch c.current {
	case StepIncome:
		if !doc.HasIncome() {
			return MsgNeedIncome
		}
	case StepExpenses:
		if !doc.HasExpenses() {
			return MsgNeedExpense
		}
	case StepAdjustment:
		if !doc.Target.IsBalanced() {
			return MsgUnbalancedSplit
		}
	}
	return ""
}

// CanAdvance reports whether Next would move forward.
func (c *Controller) CanAdvance() bool {
	return c.current < StepExport && c.Blocker() == ""
}

// Next advances one step when the gate of the current step passes. It is a
// no-op at the last step or when gated.
func (c *Controller) Next() bool {
	if c.current >= StepExport {
		return false
	}
	if reason := c.Blocker(); reason != "" {
		c.logger.Debug("Step advance blocked", log.FieldStep, c.current.String(), "reason", reason)
		return false
	}
	c.move(c.current + 1)
	return true
}

// Prev moves back one step; a no-op at the first step.
func (c *Controller) Prev() bool {
	if c.current <= StepIncome {
		return false
	}
	c.move(c.current - 1)
	return true
}

// GoTo jumps directly to s, bypassing every gate.
func (c *Controller) GoTo(s Step) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(s))
	}
	c.move(s)
	return nil
}

// ExportEnabled reports whether export actions are offered. They only exist
// at the last step and can be hidden by the host.
func (c *Controller) ExportEnabled() bool {
	return c.showExport && c.current == StepExport
}

func (c *Controller) move(to Step) {
	if to == c.current {
		return
	}
	c.logger.Debug("Step changed", "from", c.current.String(), log.FieldStep, to.String())
	c.current = to
}
