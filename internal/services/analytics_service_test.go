package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/analytics"
	"expensetracker/internal/cache"
	"expensetracker/internal/categories"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

type countingReader struct {
	store.ExpenseReader
	fetches int
	err     error
}

func (c *countingReader) FetchAll(ctx context.Context, opts store.FetchOptions) ([]core.Expense, error) {
	c.fetches++
	if c.err != nil {
		return nil, c.err
	}
	return c.ExpenseReader.FetchAll(ctx, opts)
}

// gatedReader reads its snapshot, then blocks the first FetchAll until
// release is closed.
type gatedReader struct {
	store.ExpenseReader
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedReader) FetchAll(ctx context.Context, opts store.FetchOptions) ([]core.Expense, error) {
	all, err := g.ExpenseReader.FetchAll(ctx, opts)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return all, err
}

func seed(t *testing.T, s store.Store, items ...core.Expense) {
	t.Helper()
	for _, e := range items {
		if _, err := s.Insert(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func item(cents int64, category string, date time.Time) core.Expense {
	return core.Expense{Amount: core.Money{Cents: cents}, Category: category, Date: date, PaymentMethod: core.Cash}
}

func newAnalytics(reader store.ExpenseReader) *AnalyticsService {
	reg := categories.New(categories.WithRand(rand.New(rand.NewPCG(1, 2))))
	return NewAnalyticsService(reader, reg, cache.NewLRUCache[analytics.Month](8, time.Hour))
}

func TestAnalyticsServiceMonthCachedUntilChange(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seed(t, mem,
		item(1200, "Food", time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)),
		item(800, "Travel", time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)),
		item(999, "Food", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	)
	reader := &countingReader{ExpenseReader: mem}
	svc := newAnalytics(reader)
	ref := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	m, err := svc.Month(ctx, ref)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if m.Count != 2 || m.Summary.Total.Cents != 2000 || m.Summary.TopCategory != "Food" {
		t.Fatalf("unexpected month %+v", m)
	}
	if _, err := svc.Month(ctx, ref); err != nil || reader.fetches != 1 {
		t.Fatalf("expected cached month, fetches=%d err=%v", reader.fetches, err)
	}

	dyn := svc.registry.Dynamic()
	if len(dyn) != 1 || dyn[0] != "Travel" {
		t.Errorf("expected dynamic categories refreshed to [Travel], got %v", dyn)
	}

	n := store.NewNotifier(4)
	defer n.Close()
	stop := svc.Watch(n)
	defer stop()
	n.Publish(store.Change{Op: store.OpCreate, ExpenseID: "x"})

	deadline := time.Now().Add(2 * time.Second)
	for svc.months.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache was not invalidated after change")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := svc.Month(ctx, ref); err != nil || reader.fetches != 2 {
		t.Fatalf("expected refetch after invalidation, fetches=%d err=%v", reader.fetches, err)
	}
}

func TestAnalyticsServiceWriteDuringMonthComputation(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	reader := &gatedReader{ExpenseReader: mem, entered: make(chan struct{}), release: make(chan struct{})}
	svc := newAnalytics(reader)
	expenses := NewExpenseService(mem, nil, WithInvalidator(svc))
	ref := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	done := make(chan analytics.Month)
	go func() {
		m, err := svc.Month(ctx, ref)
		if err != nil {
			t.Errorf("month: %v", err)
		}
		done <- m
	}()

	<-reader.entered
	if _, err := expenses.Create(ctx, ExpenseInput{
		Amount:   core.Money{Cents: 1500},
		Category: "Food",
		Date:     time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(reader.release)

	if stale := <-done; stale.Count != 0 {
		t.Fatalf("in-flight computation should see the old snapshot, got count=%d", stale.Count)
	}

	m, err := svc.Month(ctx, ref)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if m.Count != 1 || m.Summary.Total.Cents != 1500 {
		t.Fatalf("expected the new expense after the write, got count=%d total=%s", m.Count, m.Summary.Total)
	}
}

func TestExpenseServiceInvalidatesBeforeReturning(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newAnalytics(mem)
	expenses := NewExpenseService(mem, nil, WithInvalidator(svc))
	ref := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	if m, _ := svc.Month(ctx, ref); m.Count != 0 {
		t.Fatalf("expected empty month, got %d", m.Count)
	}
	saved, err := expenses.Create(ctx, ExpenseInput{
		Amount:   core.Money{Cents: 700},
		Category: "Bills",
		Date:     time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m, _ := svc.Month(ctx, ref); m.Count != 1 {
		t.Fatalf("expected created expense to be visible, got count=%d", m.Count)
	}

	if err := expenses.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m, _ := svc.Month(ctx, ref); m.Count != 0 {
		t.Fatalf("expected deleted expense to be gone, got count=%d", m.Count)
	}
}

func TestAnalyticsServiceFetchError(t *testing.T) {
	boom := errors.New("db closed")
	svc := newAnalytics(&countingReader{ExpenseReader: memory.New(), err: boom})
	if _, err := svc.Month(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := svc.Dashboard(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestAnalyticsServiceDashboard(t *testing.T) {
	mem := memory.New()
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	seed(t, mem,
		item(100, "Food", now.Add(-time.Hour)),
		item(200, "Food", now.Add(-24*time.Hour)),
		item(400, "Bills", time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)),
		item(800, "Health", time.Time{}),
		item(10, "Food", now.Add(-2*time.Hour)),
		item(20, "Food", now.Add(-3*time.Hour)),
		item(30, "Food", now.Add(-4*time.Hour)),
	)
	svc := newAnalytics(mem)
	svc.now = func() time.Time { return now }

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TodayTotal.Cents != 160 {
		t.Errorf("today total = %d, want 160", d.TodayTotal.Cents)
	}
	if d.MonthTotal.Cents != 360 {
		t.Errorf("month total = %d, want 360", d.MonthTotal.Cents)
	}
	if len(d.Recent) != recentLimit || d.Recent[0].Amount.Cents != 100 {
		t.Errorf("unexpected recent list %+v", d.Recent)
	}
}

func TestAnalyticsServiceCategories(t *testing.T) {
	svc := newAnalytics(memory.New())
	if !svc.AddCategory("Pets") {
		t.Fatal("expected Pets to be added")
	}
	if svc.AddCategory("Food") {
		t.Fatal("built-in category must not be added")
	}
	entries := svc.Categories()
	if len(entries) != len(categories.BuiltInNames())+1 || entries[len(entries)-1].Name != "Pets" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
