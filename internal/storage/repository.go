package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

const expenseColumns = `id, amount_cents, category, occurred_at, payment_method, note, symbol, created_at`

// SQLiteRepository implements store.Store on a SQLite database file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Expense schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements store.ExpenseWriter
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = r.now()

	occurredAt, occurredNs := dateColumns(e.Date)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount_cents, category, occurred_at, occurred_unix_ns, payment_method, note, symbol, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, e.Category, occurredAt, occurredNs,
		string(e.PaymentMethod), e.Note, e.Symbol, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// Update implements store.ExpenseWriter
func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	occurredAt, occurredNs := dateColumns(e.Date)
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, category = ?, occurred_at = ?, occurred_unix_ns = ?,
		    payment_method = ?, note = ?, symbol = ?
		WHERE id = ?`,
		e.Amount.Cents, e.Category, occurredAt, occurredNs,
		string(e.PaymentMethod), e.Note, e.Symbol, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return expectOneRow(res)
}

// Delete implements store.ExpenseDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

// Get implements store.ExpenseReader
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// FetchAll implements store.ExpenseReader. Ties in the sort column fall
// back to insertion order.
func (r *SQLiteRepository) FetchAll(ctx context.Context, opts store.FetchOptions) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if opts.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, opts.Category)
	}
	query += ` ORDER BY ` + orderClause(opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func orderClause(opts store.FetchOptions) string {
	dir := "DESC"
	if opts.Ascending {
		dir = "ASC"
	}
	switch opts.SortKey {
	case core.SortByAmount:
		return "amount_cents " + dir + ", seq ASC"
	case core.SortByDate:
		// NULLs sort first ascending and last descending, like zero dates.
		return "occurred_unix_ns " + dir + ", seq ASC"
	default:
		return "seq ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		occurredAt sql.NullString
		pm         string
		createdAt  string
	)
	if err := s.Scan(&e.ID, &e.Amount.Cents, &e.Category, &occurredAt, &pm, &e.Note, &e.Symbol, &createdAt); err != nil {
		return core.Expense{}, err
	}
	e.PaymentMethod = core.PaymentMethod(pm)
	if occurredAt.Valid && occurredAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, occurredAt.String)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt.String, err)
		}
		e.Date = t
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}

// dateColumns keeps the original offset in text form and a sortable instant.
func dateColumns(t time.Time) (sql.NullString, sql.NullInt64) {
	if t.IsZero() {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true},
		sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
