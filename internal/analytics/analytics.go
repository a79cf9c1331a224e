// Package analytics aggregates expenses into the month-scoped figures shown
// on the analytics and dashboard screens.
//
// Every function here is pure: it takes a slice of expenses and returns
// derived values without touching storage. Undated expenses are left out of
// every date-based computation.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// ColorLookup resolves the display color of a category.
type ColorLookup interface {
	ColorFor(name string) core.Color
}

// ColorFunc adapts a plain function to ColorLookup.
type ColorFunc func(name string) core.Color

func (f ColorFunc) ColorFor(name string) core.Color { return f(name) }

// Month is the full analytics view for one calendar month.
type Month struct {
	Year       int
	Month      time.Month
	Count      int
	Categories []core.CategorySpending
	Daily      []core.DailySpending
	Summary    core.Summary
}

// FilterByMonth returns the expenses dated in the same calendar year and
// month as ref, evaluated in ref's location. Input order is preserved.
func FilterByMonth(expenses []core.Expense, ref time.Time) []core.Expense {
	loc := ref.Location()
	year, month, _ := ref.Date()
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.HasDate() {
			continue
		}
		y, m, _ := e.Date.In(loc).Date()
		if y == year && m == month {
			out = append(out, e)
		}
	}
	return out
}

// CategoryBreakdown sums the filtered expenses per category. Expenses with
// no category land in core.OtherCategory. The result is ordered by amount
// descending, then by category name.
func CategoryBreakdown(filtered []core.Expense, colors ColorLookup) []core.CategorySpending {
	totals := make(map[string]int64)
	for _, e := range filtered {
		name := e.Category
		if name == "" {
			name = core.OtherCategory
		}
		totals[name] += e.Amount.Cents
	}

	out := make([]core.CategorySpending, 0, len(totals))
	for name, cents := range totals {
		entry := core.CategorySpending{Category: name, Amount: core.Money{Cents: cents}}
		if colors != nil {
			entry.Color = colors.ColorFor(name)
		}
		out = append(out, entry)
	}
	SortByAmount(out)
	return out
}

// SortByAmount orders category totals by amount descending, ties by name.
func SortByAmount(entries []core.CategorySpending) {
	slices.SortFunc(entries, func(a, b core.CategorySpending) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
}

// DailyBreakdown sums the filtered expenses per calendar day in loc, the
// location the month window was evaluated in. Days ascend.
func DailyBreakdown(filtered []core.Expense, loc *time.Location) []core.DailySpending {
	type civilDay struct {
		year  int
		month time.Month
		day   int
	}
	index := make(map[civilDay]int)
	out := make([]core.DailySpending, 0)
	for _, e := range filtered {
		if !e.HasDate() {
			continue
		}
		local := e.Date.In(loc)
		y, m, d := local.Date()
		key := civilDay{y, m, d}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, core.DailySpending{Day: startOfDay(local)})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}

	slices.SortFunc(out, func(a, b core.DailySpending) int {
		return a.Day.Compare(b.Day)
	})
	return out
}

// Summarize derives the summary tiles. The top category is the one with the
// largest amount; equal amounts resolve to the lexicographically smallest
// name so the result does not depend on input order.
func Summarize(categories []core.CategorySpending, daily []core.DailySpending) core.Summary {
	var s core.Summary
	var top int64
	for _, c := range categories {
		if s.HasTopCategory && (c.Amount.Cents < top || (c.Amount.Cents == top && c.Category >= s.TopCategory)) {
			continue
		}
		s.TopCategory = c.Category
		s.HasTopCategory = true
		top = c.Amount.Cents
	}

	for _, d := range daily {
		s.Total = s.Total.Add(d.Amount)
	}
	s.Days = len(daily)
	if s.Days > 0 {
		s.AveragePerDay = core.MoneyFromDecimal(s.Total.Decimal().Div(decimal.NewFromInt(int64(s.Days))))
	}
	return s
}

// BuildMonth composes the month view for ref from the full expense list.
func BuildMonth(expenses []core.Expense, ref time.Time, colors ColorLookup) Month {
	filtered := FilterByMonth(expenses, ref)
	categories := CategoryBreakdown(filtered, colors)
	daily := DailyBreakdown(filtered, ref.Location())
	return Month{
		Year:       ref.Year(),
		Month:      ref.Month(),
		Count:      len(filtered),
		Categories: categories,
		Daily:      daily,
		Summary:    Summarize(categories, daily),
	}
}

// TodayTotal sums expenses dated on or after the start of now's day.
func TodayTotal(expenses []core.Expense, now time.Time) core.Money {
	return totalSince(expenses, startOfDay(now))
}

// MonthTotal sums expenses dated on or after the first day of now's month.
func MonthTotal(expenses []core.Expense, now time.Time) core.Money {
	return totalSince(expenses, StartOfMonth(now))
}

func totalSince(expenses []core.Expense, since time.Time) core.Money {
	var total core.Money
	for _, e := range expenses {
		if !e.HasDate() || e.Date.Before(since) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// StartOfMonth returns midnight of the first day of t's month in t's location.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
