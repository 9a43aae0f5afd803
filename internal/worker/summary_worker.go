// Package worker turns budget.saved events into spreadsheet summaries.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/amqp"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

// BudgetReader is the part of the repository the worker needs.
type BudgetReader interface {
	GetBudget(ctx context.Context, identity string) (storage.BudgetRecord, error)
}

// Consumer delivers budget.saved events.
type Consumer interface {
	ConsumeBudgetSaved(ctx context.Context, handler func(context.Context, *amqp.BudgetSavedMessage) error) error
}

// SummaryWorker appends one summary row per saved budget version.
type SummaryWorker struct {
	budgets   BudgetReader
	sheets    sheets.SummaryWriter
	evaluator *advice.Evaluator
	logger    *log.Logger

	// Last summarized version per identity; redelivered events are skipped.
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewSummaryWorker(budgets BudgetReader, writer sheets.SummaryWriter, evaluator *advice.Evaluator, logger *log.Logger) *SummaryWorker {
	if evaluator == nil {
		evaluator = advice.NewEvaluator(advice.DefaultRules(), nil)
	}
	return &SummaryWorker{
		budgets:   budgets,
		sheets:    writer,
		evaluator: evaluator,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentWorker),
		lastSeen:  make(map[string]time.Time),
	}
}

// Run consumes events until ctx is cancelled.
func (w *SummaryWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Summary worker started")
	err := consumer.ConsumeBudgetSaved(ctx, w.HandleBudgetSaved)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleBudgetSaved summarizes the latest stored version of the identity's
// budget. A returned error requeues the event; budgets that are gone or
// unreadable are logged and dropped.
func (w *SummaryWorker) HandleBudgetSaved(ctx context.Context, msg *amqp.BudgetSavedMessage) error {
	logger := w.logger.With(log.FieldIdentity, msg.Identity, log.FieldOperation, log.OpAppend)
	logger.InfoContext(ctx, "Processing budget saved message", "updated_at", msg.UpdatedAt)

	record, err := w.budgets.GetBudget(ctx, msg.Identity)
	if errors.Is(err, storage.ErrBudgetNotFound) {
		logger.WarnContext(ctx, "Budget no longer stored, skipping summary")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get budget from storage: %w", err)
	}

	if w.alreadySummarized(msg.Identity, record.UpdatedAt) {
		logger.DebugContext(ctx, "Budget version already summarized", "updated_at", record.UpdatedAt)
		return nil
	}

	doc, err := core.DecodeDocument(record.Data)
	if err != nil {
		logger.ErrorContext(ctx, "Stored budget is not decodable, skipping summary", log.FieldError, err.Error())
		return nil
	}

	report := w.evaluator.Evaluate(doc)
	row := sheets.NewSummaryRow(msg.Identity, record.UpdatedAt, report)
	ref, err := w.sheets.AppendSummary(ctx, row)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	w.markSummarized(msg.Identity, record.UpdatedAt)

	logger.InfoContext(ctx, "Successfully appended budget summary",
		log.FieldSheetsRef, ref,
		log.FieldTotalIncome, row.TotalIncome,
		log.FieldTotalExpense, row.TotalExpense)
	return nil
}

func (w *SummaryWorker) alreadySummarized(identity string, updatedAt time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.lastSeen[identity]
	return ok && !updatedAt.After(last)
}

func (w *SummaryWorker) markSummarized(identity string, updatedAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen[identity] = updatedAt
}
