package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/store"
)

// ExpenseInput is the caller-supplied part of an expense.
type ExpenseInput struct {
	Amount        core.Money
	Category      string
	Date          time.Time // zero: now on create, unchanged on update
	PaymentMethod core.PaymentMethod
	Note          string
}

// Invalidator drops state derived from the store. It runs on the write
// path, before the change is announced.
type Invalidator interface {
	Invalidate()
}

// ExpenseService validates writes, persists them, then announces the change.
// A failed announcement never fails the write.
type ExpenseService struct {
	store        store.Store
	changes      store.ChangePublisher
	invalidators []Invalidator
	now          func() time.Time
}

type ExpenseServiceOption func(*ExpenseService)

// WithInvalidator registers inv to run synchronously after every committed
// write, so reads issued after the write returns never see older views.
func WithInvalidator(inv Invalidator) ExpenseServiceOption {
	return func(s *ExpenseService) { s.invalidators = append(s.invalidators, inv) }
}

func NewExpenseService(s store.Store, changes store.ChangePublisher, opts ...ExpenseServiceOption) *ExpenseService {
	svc := &ExpenseService{store: s, changes: changes, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *ExpenseService) build(in ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		Amount:        in.Amount,
		Category:      strings.TrimSpace(in.Category),
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		Note:          strings.TrimSpace(in.Note),
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.Cash
	}
	e.Symbol = core.SymbolForCategory(e.Category)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Create stores a new expense and returns it with its assigned ID.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	e, err := s.build(in)
	if err != nil {
		return core.Expense{}, err
	}
	if !e.HasDate() {
		e.Date = s.now()
	}

	saved, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, store.OpCreate, saved.ID)
	return saved, nil
}

// Update overwrites the editable fields of an existing expense. The symbol
// is recomputed from the new category.
func (s *ExpenseService) Update(ctx context.Context, id string, in ExpenseInput) (core.Expense, error) {
	e, err := s.build(in)
	if err != nil {
		return core.Expense{}, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	if !e.HasDate() {
		e.Date = existing.Date
	}

	if err := s.store.Update(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, store.OpUpdate, e.ID)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := listing.Delete(ctx, s.store, id); err != nil {
		return err
	}
	s.publish(ctx, store.OpDelete, id)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.Get(ctx, id)
}

// List fetches the category's expenses in insertion order and sorts them
// in memory, so ties behave the same on every backend.
func (s *ExpenseService) List(ctx context.Context, opts listing.Options) ([]core.Expense, error) {
	all, err := s.store.FetchAll(ctx, store.FetchOptions{Category: opts.Category})
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return listing.Query(all, opts), nil
}

func (s *ExpenseService) publish(ctx context.Context, op, id string) {
	for _, inv := range s.invalidators {
		inv.Invalidate()
	}
	if s.changes == nil {
		slog.DebugContext(ctx, "No change publisher configured, skipping notification", "op", op, "id", id)
		return
	}
	s.changes.Publish(store.Change{Op: op, ExpenseID: id, At: s.now()})
}
