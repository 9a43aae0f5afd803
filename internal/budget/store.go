package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

const (
	MsgSaved      = "Presupuesto guardado correctamente"
	MsgSaveFailed = "Error al guardar el presupuesto"
)

// Options configures a Store. Local, Remote and OnChange are optional.
type Options struct {
	Init      InitContext
	Local     LocalStore
	Remote    Remote
	Logger    *log.Logger
	Evaluator *advice.Evaluator
	// OnChange receives a snapshot after every change to the document.
	OnChange func(core.Document)
	Now      func() time.Time
}

// SaveResult is the outcome of an explicit remote save.
type SaveResult struct {
	Success bool
	// Shared is true when the call joined a save already in flight.
	Shared  bool
	Message string
	SavedAt time.Time
}

// Store holds the canonical document. Mutations are applied to a private
// copy and published atomically, so readers always observe a whole document.
type Store struct {
	init      InitContext
	remote    Remote
	logger    *log.Logger
	evaluator *advice.Evaluator
	onChange  func(core.Document)
	now       func() time.Time

	mu  sync.Mutex
	doc atomic.Pointer[core.Document]

	persister *persister
	saves     singleflight.Group
	loadOnce  sync.Once
	loadErr   error
	lastSaved atomic.Pointer[time.Time]
}

// New creates a store and restores the locally persisted document, if any.
func New(ctx context.Context, opts Options) *Store {
	s := &Store{
		init:      opts.Init,
		remote:    opts.Remote,
		logger:    log.OrDiscard(opts.Logger).WithComponent(log.ComponentBudget),
		evaluator: opts.Evaluator,
		onChange:  opts.OnChange,
		now:       opts.Now,
	}
	if s.evaluator == nil {
		s.evaluator = advice.NewEvaluator(advice.DefaultRules(), nil)
	}
	if s.now == nil {
		s.now = time.Now
	}

	doc := core.NewDocument()
	if opts.Local != nil {
		key := StorageKey(opts.Init.IdentityID)
		if restored, ok := s.restoreLocal(ctx, opts.Local, key); ok {
			doc = restored
		}
		s.persister = newPersister(opts.Local, key, s.logger)
	}
	s.doc.Store(&doc)
	return s
}

func (s *Store) restoreLocal(ctx context.Context, local LocalStore, key string) (core.Document, bool) {
	data, found, err := local.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Could not read local budget", log.FieldKey, key, log.FieldError, err.Error())
		return core.Document{}, false
	}
	if !found {
		return core.Document{}, false
	}
	doc, err := core.DecodeDocument(data)
	if err != nil {
		s.logger.Warn("Discarding unreadable local budget", log.FieldKey, key, log.FieldError, err.Error())
		return core.Document{}, false
	}
	return doc, true
}

// Identity returns the session identity.
func (s *Store) Identity() string { return s.init.IdentityID }

// Authenticated reports whether remote persistence is allowed.
func (s *Store) Authenticated() bool { return s.init.IsAuthenticated }

// ShowExport reports whether the host allows the export step actions.
func (s *Store) ShowExport() bool { return s.init.InitialAttributes.ShowExport }

// Snapshot returns a copy of the current document.
func (s *Store) Snapshot() core.Document {
	return s.doc.Load().Clone()
}

// Figures derives the canonical figures of the current document.
func (s *Store) Figures() analysis.Figures {
	return s.Report().Figures
}

// Report derives the full report of the current document.
func (s *Store) Report() advice.Report {
	return s.evaluator.Evaluate(*s.doc.Load())
}

// Rules returns the rule table used for advice.
func (s *Store) Rules() advice.Rules {
	return s.evaluator.Rules
}

// update applies fn to a copy of the document and publishes the result.
func (s *Store) update(fn func(*core.Document) error) error {
	s.mu.Lock()
	next := s.doc.Load().Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.publishLocked(next)
	s.mu.Unlock()

	s.notify(next)
	return nil
}

func (s *Store) publishLocked(doc core.Document) {
	s.doc.Store(&doc)
	if s.persister == nil {
		return
	}
	data, err := core.EncodeDocument(doc)
	if err != nil {
		s.logger.Warn("Could not encode budget for local storage", log.FieldError, err.Error())
		return
	}
	s.persister.schedule(data)
}

func (s *Store) notify(doc core.Document) {
	if s.onChange != nil {
		s.onChange(doc.Clone())
	}
}

func normalizeLabel(label string) string {
	return strings.TrimSpace(label)
}

// AddIncome appends a monthly income entry with a fresh id.
func (s *Store) AddIncome(label string, amount core.Amount) (core.IncomeEntry, error) {
	e := core.IncomeEntry{ID: core.NewID(), Label: normalizeLabel(label), Amount: amount, Cadence: core.CadenceMonthly}
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("add income: %w", err)
	}
	err := s.update(func(d *core.Document) error {
		d.Income = append(d.Income, e)
		return nil
	})
	return e, err
}

// EditIncome replaces the label and amount of an income entry.
func (s *Store) EditIncome(id, label string, amount core.Amount) error {
	e := core.IncomeEntry{ID: id, Label: normalizeLabel(label), Amount: amount, Cadence: core.CadenceMonthly}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("edit income: %w", err)
	}
	return s.update(func(d *core.Document) error {
		for i := range d.Income {
			if d.Income[i].ID == id {
				d.Income[i] = e
				return nil
			}
		}
		return fmt.Errorf("edit income %s: %w", id, core.ErrEntryNotFound)
	})
}

// RemoveIncome deletes an income entry.
func (s *Store) RemoveIncome(id string) error {
	return s.update(func(d *core.Document) error {
		for i := range d.Income {
			if d.Income[i].ID == id {
				d.Income = append(d.Income[:i], d.Income[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("remove income %s: %w", id, core.ErrEntryNotFound)
	})
}

// AddExpense appends an expense to the sequence of its category.
func (s *Store) AddExpense(c core.Category, label string, amount core.Amount) (core.ExpenseEntry, error) {
	e := core.ExpenseEntry{ID: core.NewID(), Label: normalizeLabel(label), Amount: amount, Category: c}
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("add expense: %w", err)
	}
	err := s.update(func(d *core.Document) error {
		d.Expenses = d.Expenses.With(c, append(d.Expenses.Of(c), e))
		return nil
	})
	return e, err
}

// EditExpense replaces the label and amount of an expense in category c.
func (s *Store) EditExpense(c core.Category, id, label string, amount core.Amount) error {
	e := core.ExpenseEntry{ID: id, Label: normalizeLabel(label), Amount: amount, Category: c}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("edit expense: %w", err)
	}
	return s.update(func(d *core.Document) error {
		entries := d.Expenses.Of(c)
		for i := range entries {
			if entries[i].ID == id {
				entries[i] = e
				return nil
			}
		}
		return fmt.Errorf("edit expense %s: %w", id, core.ErrEntryNotFound)
	})
}

// RemoveExpense deletes an expense from category c.
func (s *Store) RemoveExpense(c core.Category, id string) error {
	if !c.Valid() {
		return fmt.Errorf("remove expense: %w", core.ErrUnknownCategory)
	}
	return s.update(func(d *core.Document) error {
		entries := d.Expenses.Of(c)
		for i := range entries {
			if entries[i].ID == id {
				d.Expenses = d.Expenses.With(c, append(entries[:i], entries[i+1:]...))
				return nil
			}
		}
		return fmt.Errorf("remove expense %s: %w", id, core.ErrEntryNotFound)
	})
}

// SetTargetDistribution stores t as is. Imbalance is reported by the
// distribution itself and corrected only on request.
func (s *Store) SetTargetDistribution(t core.TargetDistribution) {
	_ = s.update(func(d *core.Document) error {
		d.Target = t
		return nil
	})
}

// SetTarget changes the target percentage of a single category.
func (s *Store) SetTarget(c core.Category, pct decimal.Decimal) error {
	if !c.Valid() {
		return fmt.Errorf("set target: %w", core.ErrUnknownCategory)
	}
	return s.update(func(d *core.Document) error {
		d.Target = d.Target.With(c, pct)
		return nil
	})
}

// RebalanceProportionally scales the targets so they sum to 100. It reports
// false and changes nothing when every target is zero.
func (s *Store) RebalanceProportionally() bool {
	changed := false
	_ = s.update(func(d *core.Document) error {
		next, ok := d.Target.Rebalanced()
		if !ok {
			return errNoChange
		}
		d.Target = next
		changed = true
		return nil
	})
	return changed
}

var errNoChange = errors.New("no change")

// ResetToIdeal restores the 50/30/20 targets.
func (s *Store) ResetToIdeal() {
	s.SetTargetDistribution(core.IdealDistribution())
}

// Replace swaps the whole document, e.g. after an import.
func (s *Store) Replace(doc core.Document) {
	doc = doc.Clone()
	_ = s.update(func(d *core.Document) error {
		*d = doc
		return nil
	})
}

// Load fetches the remote document once per session. On success the remote
// document replaces the local one; on failure local state is kept and the
// error is logged and returned. Later calls return the first result.
func (s *Store) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		s.loadErr = s.load(ctx)
	})
	return s.loadErr
}

func (s *Store) load(ctx context.Context) error {
	if !s.init.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if s.remote == nil {
		return ErrNoRemote
	}

	doc, found, err := s.remote.Load(ctx, s.init.IdentityID)
	if err != nil {
		s.logger.WarnContext(ctx, "Remote budget load failed, keeping local state",
			log.NewFields().WithOperation(log.OpLoad).WithIdentity(s.init.IdentityID).WithError(err).ToSlice()...)
		return fmt.Errorf("load budget: %w", err)
	}
	if !found {
		s.logger.InfoContext(ctx, "No remote budget saved yet", log.FieldIdentity, s.init.IdentityID)
		return nil
	}

	s.Replace(doc)
	s.logger.InfoContext(ctx, "Remote budget loaded",
		log.NewFields().WithOperation(log.OpLoad).WithIdentity(s.init.IdentityID).
			WithBudget(len(doc.Income), doc.Expenses.Count(), "", "").ToSlice()...)
	return nil
}

// LastSaved returns the time of the last successful save.
func (s *Store) LastSaved() (time.Time, bool) {
	if t := s.lastSaved.Load(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}

// Save sends the current document to the remote. Calls made while a save is
// in flight join it and receive its result. Failures leave local data as is.
func (s *Store) Save(ctx context.Context) (SaveResult, error) {
	if !s.init.IsAuthenticated {
		return SaveResult{Message: MsgSaveFailed}, ErrNotAuthenticated
	}
	if s.remote == nil {
		return SaveResult{Message: MsgSaveFailed}, ErrNoRemote
	}

	v, err, shared := s.saves.Do("save", func() (any, error) {
		doc := *s.doc.Load()
		if err := s.remote.Save(ctx, s.init.IdentityID, doc); err != nil {
			s.logger.ErrorContext(ctx, "Remote budget save failed",
				log.NewFields().WithOperation(log.OpSave).WithIdentity(s.init.IdentityID).WithError(err).ToSlice()...)
			return nil, fmt.Errorf("save budget: %w", err)
		}

		now := s.now()
		s.lastSaved.Store(&now)
		f := s.evaluator.Evaluate(doc).Figures
		log.NewStructuredLogger(s.logger).LogBudgetSaved(ctx, s.init.IdentityID,
			len(doc.Income), doc.Expenses.Count(), f.TotalIncome.StringFixed(2), f.TotalExpense.StringFixed(2))
		return now, nil
	})
	if err != nil {
		return SaveResult{Shared: shared, Message: MsgSaveFailed}, err
	}
	return SaveResult{Success: true, Shared: shared, Message: MsgSaved, SavedAt: v.(time.Time)}, nil
}

// Flush waits for pending local writes.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.flush(ctx)
}

// Close drains pending local writes and stops the background writer.
func (s *Store) Close(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.close(ctx)
}
