package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Ports implemented by every storage backend.
type (
	ExpenseWriter interface {
		// Add validates the fields, stores a new expense and returns its generated id.
		Add(ctx context.Context, date, description string, amount decimal.Decimal) (uuid.UUID, error)
	}

	// ExpenseLister returns stored expenses in insertion order.
	ExpenseLister interface {
		List(ctx context.Context) ([]core.Record, error)
	}

	// ExpenseDeleter removes the first expense with the given id.
	ExpenseDeleter interface {
		// Delete reports false with a nil error when no expense matches.
		Delete(ctx context.Context, id string) (bool, error)
	}

	ExpenseSummarizer interface {
		Summarize(ctx context.Context) (decimal.Decimal, error)
	}

	Ledger interface {
		ExpenseWriter
		ExpenseLister
		ExpenseDeleter
		ExpenseSummarizer
	}
)
