// Package listing filters and orders expense lists for the list screens.
package listing

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"expensetracker/internal/core"
)

// Options selects which expenses Query returns and in what order.
// The zero value lists everything by date, newest first.
type Options struct {
	Category  string // exact match; empty means all
	SortKey   core.SortKey
	Ascending bool
}

// Deleter removes an expense by ID.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Query keeps the expenses whose category equals opts.Category exactly
// (when set) and sorts them by opts.SortKey. The sort is stable, so
// expenses that compare equal keep their input order. The input slice is
// left untouched.
func Query(expenses []core.Expense, opts Options) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if opts.Category != "" && e.Category != opts.Category {
			continue
		}
		out = append(out, e)
	}

	less := compareDate
	if opts.SortKey == core.SortByAmount {
		less = compareAmount
	}
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		if opts.Ascending {
			return less(a, b)
		}
		return less(b, a)
	})
	return out
}

func compareAmount(a, b core.Expense) int {
	return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
}

// Undated expenses sort before any dated one.
func compareDate(a, b core.Expense) int {
	return a.Date.Compare(b.Date)
}

// Delete removes the expense with the given id. Callers re-run Query on a
// fresh fetch afterwards; the two steps are not atomic against other writers.
func Delete(ctx context.Context, d Deleter, id string) error {
	if err := d.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}
