package store

import (
	"context"
	"errors"

	"expensetracker/internal/core"
)

// ErrNotFound is returned when no expense has the requested ID.
var ErrNotFound = errors.New("expense not found")

// FetchOptions narrows and orders a FetchAll call. An empty Category means
// every category; an empty SortKey returns expenses in insertion order.
type FetchOptions struct {
	Category  string
	SortKey   core.SortKey
	Ascending bool
}

// Ports for expense persistence.
type (
	ExpenseReader interface {
		FetchAll(ctx context.Context, opts FetchOptions) ([]core.Expense, error)
		Get(ctx context.Context, id string) (core.Expense, error)
	}

	ExpenseWriter interface {
		// Insert assigns ID and CreatedAt and returns the stored expense.
		Insert(ctx context.Context, e core.Expense) (core.Expense, error)
		Update(ctx context.Context, e core.Expense) error
	}

	ExpenseDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	Store interface {
		ExpenseReader
		ExpenseWriter
		ExpenseDeleter
	}
)
