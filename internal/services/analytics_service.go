package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/analytics"
	"expensetracker/internal/cache"
	"expensetracker/internal/categories"
	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/store"
)

const recentLimit = 5

// Dashboard holds the summary tiles of the home screen.
type Dashboard struct {
	TodayTotal core.Money
	MonthTotal core.Money
	Recent     []core.Expense
}

// AnalyticsService computes month views and dashboard totals. Month views
// are cached until the next store change.
type AnalyticsService struct {
	reader   store.ExpenseReader
	registry *categories.Registry
	months   cache.Cache[analytics.Month]
	now      func() time.Time

	// mu orders cache writes against Invalidate. generation counts
	// invalidations so a view computed from an older snapshot is not cached.
	mu         sync.Mutex
	generation uint64
}

func NewAnalyticsService(reader store.ExpenseReader, registry *categories.Registry, months cache.Cache[analytics.Month]) *AnalyticsService {
	return &AnalyticsService{
		reader:   reader,
		registry: registry,
		months:   months,
		now:      time.Now,
	}
}

// fetchAll loads every expense and refreshes the dynamic categories.
func (s *AnalyticsService) fetchAll(ctx context.Context) ([]core.Expense, error) {
	all, err := s.reader.FetchAll(ctx, store.FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	s.registry.UpdateDynamic(all)
	return all, nil
}

func monthKey(ref time.Time) string {
	return ref.Format("2006-01") + "@" + ref.Location().String()
}

// Month returns the analytics view for ref's calendar month.
func (s *AnalyticsService) Month(ctx context.Context, ref time.Time) (analytics.Month, error) {
	key := monthKey(ref)
	if s.months != nil {
		if m, ok := s.months.Get(key); ok {
			return m, nil
		}
	}

	gen := s.currentGeneration()
	all, err := s.fetchAll(ctx)
	if err != nil {
		return analytics.Month{}, err
	}
	m := analytics.BuildMonth(all, ref, s.registry)
	s.cacheMonth(key, m, gen)
	slog.DebugContext(ctx, "Month analytics computed",
		"month", key,
		"count", m.Count,
		"total_cents", m.Summary.Total.Cents)
	return m, nil
}

// CurrentMonth is Month for the current time.
func (s *AnalyticsService) CurrentMonth(ctx context.Context) (analytics.Month, error) {
	return s.Month(ctx, s.now())
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (Dashboard, error) {
	all, err := s.fetchAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()
	recent := listing.Query(all, listing.Options{SortKey: core.SortByDate})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return Dashboard{
		TodayTotal: analytics.TodayTotal(all, now),
		MonthTotal: analytics.MonthTotal(all, now),
		Recent:     recent,
	}, nil
}

// RefreshCategories reloads the dynamic category set from the store.
func (s *AnalyticsService) RefreshCategories(ctx context.Context) error {
	_, err := s.fetchAll(ctx)
	return err
}

func (s *AnalyticsService) Categories() []core.CategoryEntry {
	return s.registry.Entries()
}

func (s *AnalyticsService) AddCategory(name string) bool {
	return s.registry.AddCategory(name)
}

func (s *AnalyticsService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// cacheMonth caches m unless an invalidation happened since gen was read.
func (s *AnalyticsService) cacheMonth(key string, m analytics.Month, gen uint64) {
	if s.months == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.months.Set(key, m)
}

// Invalidate drops every cached month view, including views still being
// computed from data read before the call.
func (s *AnalyticsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.months != nil {
		s.months.Purge()
	}
}

// Watch invalidates the cache on every change published by n. The
// returned function stops watching.
func (s *AnalyticsService) Watch(n *store.Notifier) func() {
	return n.Subscribe(func(store.Change) {
		s.Invalidate()
	})
}
