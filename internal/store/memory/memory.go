package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items []core.Expense // insertion order
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// seedExpense is the on-disk shape of a seed file entry.
type seedExpense struct {
	Amount        string    `json:"amount"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"payment_method"`
	Note          string    `json:"note"`
}

// NewFromFile returns a store pre-loaded with the expenses listed in a JSON
// seed file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedExpense
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, se := range seeds {
		cents, err := core.ParseDecimalToCents(se.Amount)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		pm, err := core.ParsePaymentMethod(se.PaymentMethod)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		e := core.Expense{
			Amount:        core.Money{Cents: cents},
			Category:      se.Category,
			Date:          se.Date,
			PaymentMethod: pm,
			Note:          se.Note,
			Symbol:        core.SymbolForCategory(se.Category),
		}
		if _, err := s.Insert(context.Background(), e); err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
	}
	return s, nil
}

// Insert stores the expense under a fresh ID.
func (s *Store) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	s.items = append(s.items, e)
	return e, nil
}

// Update replaces the stored expense with the same ID. CreatedAt is kept.
func (s *Store) Update(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(e.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	e.CreatedAt = s.items[i].CreatedAt
	s.items[i] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return s.items[i], nil
}

// FetchAll returns a copy of the matching expenses. Without a sort key the
// insertion order is kept.
func (s *Store) FetchAll(_ context.Context, opts store.FetchOptions) ([]core.Expense, error) {
	s.mu.RLock()
	items := append([]core.Expense(nil), s.items...)
	s.mu.RUnlock()

	if opts.SortKey == "" {
		out := items[:0]
		for _, e := range items {
			if opts.Category == "" || e.Category == opts.Category {
				out = append(out, e)
			}
		}
		return out, nil
	}
	return listing.Query(items, listing.Options{
		Category:  opts.Category,
		SortKey:   opts.SortKey,
		Ascending: opts.Ascending,
	}), nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
