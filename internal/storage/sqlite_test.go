package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/ledger"
)

var _ ledger.Ledger = (*SQLiteRepository)(nil)

func openSQLite(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t, filepath.Join(t.TempDir(), "db", "expenses.db"))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	total, err := repo.Summarize(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	first, err := repo.Add(ctx, "2024-01-15", "Coffee", decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	second, err := repo.Add(ctx, "2024-01-16", "Bagel", decimal.RequireFromString("5.25"))
	require.NoError(t, err)

	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, core.Record{ID: first.String(), Date: "2024-01-15", Description: "Coffee", Amount: 10.5}, items[0])
	assert.Equal(t, second.String(), items[1].ID)

	total, err = repo.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "15.75", core.FormatAmount(total))

	ok, err := repo.Delete(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, first.String())
	require.NoError(t, err)
	assert.True(t, ok)

	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.String(), items[0].ID)
}

func TestSQLiteRepository_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t, filepath.Join(t.TempDir(), "expenses.db"))

	_, err := repo.Add(ctx, "2024-01-15", "Refund", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, core.ErrNegativeAmount)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	id, err := repo.Add(ctx, "2024-02-29", "Leap", decimal.RequireFromString("0.10"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Migrations must be a no-op the second time.
	reopened := openSQLite(t, path)
	items, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id.String(), items[0].ID)
	assert.Equal(t, 0.1, items[0].Amount)
}
