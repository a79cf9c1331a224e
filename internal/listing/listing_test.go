package listing

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func exp(id string, cents int64, category string, date time.Time) core.Expense {
	return core.Expense{ID: id, Amount: core.Money{Cents: cents}, Category: category, Date: date}
}

func ids(expenses []core.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

var (
	d1 = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	d2 = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	d3 = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
)

func TestQueryStableOnEqualAmounts(t *testing.T) {
	in := []core.Expense{exp("A", 500, "Food", d1), exp("B", 500, "Food", d2)}

	got := Query(in, Options{SortKey: core.SortByAmount, Ascending: true})
	if !slices.Equal(ids(got), []string{"A", "B"}) {
		t.Fatalf("ascending sort not stable: %v", ids(got))
	}
	got = Query(in, Options{SortKey: core.SortByAmount, Ascending: false})
	if !slices.Equal(ids(got), []string{"A", "B"}) {
		t.Fatalf("descending sort not stable: %v", ids(got))
	}
}

func TestQuerySorting(t *testing.T) {
	in := []core.Expense{
		exp("mid", 300, "Food", d2),
		exp("big", 900, "Bills", d1),
		exp("small", 100, "Food", d3),
		exp("undated", 200, "Food", time.Time{}),
	}
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"default is date descending", Options{}, []string{"small", "mid", "big", "undated"}},
		{"date ascending", Options{SortKey: core.SortByDate, Ascending: true}, []string{"undated", "big", "mid", "small"}},
		{"amount ascending", Options{SortKey: core.SortByAmount, Ascending: true}, []string{"small", "undated", "mid", "big"}},
		{"amount descending", Options{SortKey: core.SortByAmount}, []string{"big", "mid", "undated", "small"}},
		{"category filter", Options{Category: "Food", SortKey: core.SortByAmount, Ascending: true}, []string{"small", "undated", "mid"}},
		{"category filter is exact", Options{Category: "food"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Query(in, tt.opts)); !slices.Equal(got, tt.want) {
				t.Errorf("Query() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryRepeatable(t *testing.T) {
	in := []core.Expense{
		exp("1", 100, "Food", d1), exp("2", 100, "Food", d1), exp("3", 100, "Food", d1),
	}
	first := ids(Query(in, Options{SortKey: core.SortByDate}))
	for i := 0; i < 5; i++ {
		if got := ids(Query(in, Options{SortKey: core.SortByDate})); !slices.Equal(got, first) {
			t.Fatalf("order changed between calls: %v vs %v", first, got)
		}
	}
	if !slices.Equal(first, []string{"1", "2", "3"}) {
		t.Fatalf("expected insertion order for equal dates, got %v", first)
	}
	if !slices.Equal(ids(in), []string{"1", "2", "3"}) {
		t.Fatal("input slice was modified")
	}
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDelete(t *testing.T) {
	d := &fakeDeleter{}
	if err := Delete(context.Background(), d, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(d.deleted, []string{"42"}) {
		t.Fatalf("expected 42 deleted, got %v", d.deleted)
	}

	boom := errors.New("disk full")
	err := Delete(context.Background(), &fakeDeleter{err: boom}, "7")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
