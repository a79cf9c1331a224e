// Package gormstore persists expenses through gorm on SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// expenseRecord is the table row. Amounts are cents; the date keeps its
// offset in text and an instant for ordering.
type expenseRecord struct {
	Seq            uint    `gorm:"primaryKey;autoIncrement"`
	ExpenseID      string  `gorm:"size:36;uniqueIndex;not null"`
	AmountCents    int64   `gorm:"not null"`
	Category       string  `gorm:"size:64;index;not null"`
	OccurredAt     *string `gorm:"size:40"`
	OccurredUnixNs *int64  `gorm:"index"`
	PaymentMethod  string  `gorm:"size:16;not null;default:Cash"`
	Note           string  `gorm:"size:255"`
	Symbol         string  `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (expenseRecord) TableName() string { return "expenses" }

type Store struct {
	db *gorm.DB
}

// Open creates the database file if needed and migrates the schema.
func Open(path string, verbose bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	gormLogger := logger.Default
	if !verbose {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")

	if err := db.AutoMigrate(&expenseRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	rec := toRecord(e)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.CreatedAt = rec.CreatedAt

	slog.InfoContext(ctx, "Expense saved via gorm", "id", e.ID, "amount_cents", e.Amount.Cents)
	return e, nil
}

func (s *Store) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	rec := toRecord(e)
	res := s.db.WithContext(ctx).Model(&expenseRecord{}).
		Where("expense_id = ?", e.ID).
		Select("AmountCents", "Category", "OccurredAt", "OccurredUnixNs", "PaymentMethod", "Note", "Symbol").
		Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("update expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("expense_id = ?", id).Delete(&expenseRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Expense, error) {
	var rec expenseRecord
	err := s.db.WithContext(ctx).Where("expense_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return fromRecord(rec)
}

func (s *Store) FetchAll(ctx context.Context, opts store.FetchOptions) ([]core.Expense, error) {
	q := s.db.WithContext(ctx).Model(&expenseRecord{})
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	dir := " DESC"
	if opts.Ascending {
		dir = " ASC"
	}
	switch opts.SortKey {
	case core.SortByAmount:
		q = q.Order("amount_cents" + dir)
	case core.SortByDate:
		q = q.Order("occurred_unix_ns" + dir)
	}
	q = q.Order("seq ASC")

	var recs []expenseRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(recs))
	for _, rec := range recs {
		e, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func toRecord(e core.Expense) expenseRecord {
	rec := expenseRecord{
		ExpenseID:     e.ID,
		AmountCents:   e.Amount.Cents,
		Category:      e.Category,
		PaymentMethod: string(e.PaymentMethod),
		Note:          e.Note,
		Symbol:        e.Symbol,
	}
	if e.HasDate() {
		text := e.Date.Format(time.RFC3339Nano)
		ns := e.Date.UnixNano()
		rec.OccurredAt = &text
		rec.OccurredUnixNs = &ns
	}
	return rec
}

func fromRecord(rec expenseRecord) (core.Expense, error) {
	e := core.Expense{
		ID:            rec.ExpenseID,
		Amount:        core.Money{Cents: rec.AmountCents},
		Category:      rec.Category,
		PaymentMethod: core.PaymentMethod(rec.PaymentMethod),
		Note:          rec.Note,
		Symbol:        rec.Symbol,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.OccurredAt != nil && *rec.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339Nano, *rec.OccurredAt)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse occurred_at %q: %w", *rec.OccurredAt, err)
		}
		e.Date = t
	}
	return e, nil
}
