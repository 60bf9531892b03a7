package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

var _ ledger.Ledger = (*Store)(nil)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.json")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	return s, path
}

func readRecords(t *testing.T, path string) []core.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []core.Record
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestOpen_CreatesMissingFile(t *testing.T) {
	s, path := openTemp(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	items, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, path, s.Path())
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "expenses.json")
	_, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpen_InvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "this is not json"},
		{name: "empty file", content: ""},
		{name: "object instead of list", content: `{"id": "x"}`},
		{name: "negative amount", content: `[{"id": "` + uuid.NewString() + `", "date": "2024-01-01", "description": "x", "amount": -3}]`},
		{name: "bad date", content: `[{"id": "` + uuid.NewString() + `", "date": "2024/01/01", "description": "x", "amount": 3}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "expenses.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Open(context.Background(), path)
			var serr *StorageError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "decode", serr.Op)
			assert.Equal(t, path, serr.Path)
		})
	}
}

func TestOpen_UnreadablePath(t *testing.T) {
	// A directory cannot be read as a file.
	_, err := Open(context.Background(), t.TempDir())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "read", serr.Op)
}

func TestStore_AddAndList(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	id, err := s.Add(ctx, "2024-01-15", "Coffee", decimal.RequireFromString("3.50"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(4), id.Version())

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.Record{ID: id.String(), Date: "2024-01-15", Description: "Coffee", Amount: 3.5}, items[0])

	assert.Equal(t, items, readRecords(t, path))
}

func TestStore_AddRejectsInvalidWithoutWriting(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	_, err := s.Add(ctx, "2024-01-15", "Coffee", decimal.NewFromInt(1))
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Add(ctx, "2024-01-15", "Refund", decimal.NewFromInt(-10))
	require.ErrorIs(t, err, core.ErrNegativeAmount)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = s.Add(ctx, "2024/01/01", "Slash", decimal.NewFromInt(10))
	require.ErrorIs(t, err, core.ErrInvalidDate)

	items, _ := s.List(ctx)
	assert.Len(t, items, 1)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_FileFormat(t *testing.T) {
	s, path := openTemp(t)
	id, err := s.Add(context.Background(), "2024-01-15", "Coffee", decimal.RequireFromString("3.50"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "[\n" +
		"    {\n" +
		"        \"id\": \"" + id.String() + "\",\n" +
		"        \"date\": \"2024-01-15\",\n" +
		"        \"description\": \"Coffee\",\n" +
		"        \"amount\": 3.5\n" +
		"    }\n" +
		"]"
	assert.Equal(t, want, string(data))
}

func TestStore_ReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	inputs := []struct {
		date, desc, amount string
	}{
		{"2024-01-01", "Rent", "950"},
		{"2024-01-02", "Groceries", "54.37"},
		{"2024-01-02", "Café ☕", "2.80"},
		{"2024-01-03", "", "0"},
	}
	for _, in := range inputs {
		_, err := s.Add(ctx, in.date, in.desc, decimal.RequireFromString(in.amount))
		require.NoError(t, err)
	}
	want, _ := s.List(ctx)

	reopened, err := Open(context.Background(), path)
	require.NoError(t, err)
	got, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	total, err := reopened.Summarize(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("1007.17")), "total %s", total)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	first, err := s.Add(ctx, "2024-01-01", "first", decimal.NewFromInt(1))
	require.NoError(t, err)
	second, err := s.Add(ctx, "2024-01-02", "second", decimal.NewFromInt(2))
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		before, _ := os.ReadFile(path)
		ok, err := s.Delete(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, ok)
		items, _ := s.List(ctx)
		assert.Len(t, items, 2)
		after, _ := os.ReadFile(path)
		assert.Equal(t, before, after)
	})

	t.Run("known id", func(t *testing.T) {
		ok, err := s.Delete(ctx, first.String())
		require.NoError(t, err)
		assert.True(t, ok)

		reopened, err := Open(context.Background(), path)
		require.NoError(t, err)
		items, _ := reopened.List(ctx)
		require.Len(t, items, 1)
		assert.Equal(t, second.String(), items[0].ID)
	})
}

func TestStore_DeleteRemovesFirstDuplicateOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.json")
	dup := core.Record{ID: uuid.NewString(), Date: "2024-01-01", Description: "dup", Amount: 1}
	other := core.Record{ID: uuid.NewString(), Date: "2024-01-02", Description: "other", Amount: 2}
	data, err := json.Marshal([]core.Record{dup, other, dup})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	ok, err := s.Delete(ctx, dup.ID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []core.Record{other, dup}, readRecords(t, path))
}

func TestStore_Summarize(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	total, err := s.Summarize(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = s.Add(ctx, "2024-01-01", "a", decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	_, err = s.Add(ctx, "2024-01-02", "b", decimal.RequireFromString("5.25"))
	require.NoError(t, err)

	total, err = s.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "15.75", core.FormatAmount(total))
}

func TestStore_RollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "expenses.json")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	kept, err := s.Add(ctx, "2024-01-01", "kept", decimal.NewFromInt(5))
	require.NoError(t, err)

	// Removing the directory makes every subsequent write fail.
	require.NoError(t, os.RemoveAll(dir))

	_, err = s.Add(ctx, "2024-01-02", "lost", decimal.NewFromInt(7))
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "write", serr.Op)

	items, _ := s.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, kept.String(), items[0].ID)

	ok, err := s.Delete(ctx, kept.String())
	require.ErrorAs(t, err, &serr)
	assert.False(t, ok)
	items, _ = s.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, kept.String(), items[0].ID)
	assert.True(t, strings.Contains(err.Error(), path))
}

func TestStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	_, err := s.Add(ctx, "2024-01-01", "a", decimal.NewFromInt(1))
	require.NoError(t, err)

	items, _ := s.List(ctx)
	items[0].Description = "changed"

	again, _ := s.List(ctx)
	assert.Equal(t, "a", again[0].Description)
}

func TestOpen_LogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{Output: &buf, Level: slog.LevelDebug}))
	path := filepath.Join(t.TempDir(), "expenses.json")

	_, err := Open(ctx, path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Created expenses file")
	assert.Contains(t, buf.String(), "component=storage")

	buf.Reset()
	_, err = Open(ctx, path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Loaded expenses file")
	assert.Contains(t, buf.String(), "count=0")
}
