package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores expenses in a SQLite database. Insertion order is
// the autoincrement seq column.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, &StorageError{Op: "create", Path: dbPath, Err: err}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: dbPath, Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "ping", Path: dbPath, Err: err}
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, &StorageError{Op: "migrate", Path: dbPath, Err: err}
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add implements ledger.ExpenseWriter
func (r *SQLiteRepository) Add(ctx context.Context, date, description string, amount decimal.Decimal) (uuid.UUID, error) {
	e, err := core.NewExpense(uuid.NewString(), date, description, amount)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, date, description, amount) VALUES (?, ?, ?, ?)`,
		e.ID.String(), e.Date.String(), e.Description, e.Amount.String())
	if err != nil {
		return uuid.Nil, &StorageError{Op: "insert", Path: r.path, Err: err}
	}

	log.FromContext(ctx).WithComponent(log.ComponentStorage).DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount", e.Amount.String(),
		"date", e.Date.String())

	return e.ID, nil
}

// List implements ledger.ExpenseLister
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount FROM expenses ORDER BY seq`)
	if err != nil {
		return nil, &StorageError{Op: "query", Path: r.path, Err: err}
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		var (
			rec    core.Record
			amount string
		)
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Description, &amount); err != nil {
			return nil, &StorageError{Op: "scan", Path: r.path, Err: err}
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, &StorageError{Op: "scan", Path: r.path, Err: fmt.Errorf("amount of %s: %w", rec.ID, err)}
		}
		rec.Amount = d.InexactFloat64()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Path: r.path, Err: err}
	}
	return records, nil
}

// Delete implements ledger.ExpenseDeleter. Only the oldest row with the id
// is removed.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE seq = (SELECT seq FROM expenses WHERE id = ? ORDER BY seq LIMIT 1)`, id)
	if err != nil {
		return false, &StorageError{Op: "delete", Path: r.path, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "delete", Path: r.path, Err: err}
	}
	if n > 0 {
		log.FromContext(ctx).WithComponent(log.ComponentStorage).DebugContext(ctx, "Expense deleted from SQLite", "id", id)
	}
	return n > 0, nil
}

// Summarize implements ledger.ExpenseSummarizer. Amounts are summed as
// decimals rather than with SQL SUM over floats.
func (r *SQLiteRepository) Summarize(ctx context.Context) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM expenses`)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "query", Path: r.path, Err: err}
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, &StorageError{Op: "scan", Path: r.path, Err: err}
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, &StorageError{Op: "scan", Path: r.path, Err: err}
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, &StorageError{Op: "query", Path: r.path, Err: err}
	}
	return total, nil
}
