package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/log"
)

// DefaultFilePath is used when no path is configured.
const DefaultFilePath = "expenses.json"

const jsonIndent = "    "

// Store owns the expenses persisted in a single JSON file. Every mutation
// rewrites the whole file.
type Store struct {
	path    string
	records []core.Record
}

// Open loads the store at path, creating a file holding an empty list when
// none exists yet. It logs through the logger carried by ctx.
func Open(ctx context.Context, path string) (*Store, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentStorage)
	if path == "" {
		path = DefaultFilePath
	}
	s := &Store{path: path, records: []core.Record{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &StorageError{Op: "create", Path: path, Err: err}
			}
		}
		if err := s.saveAll(); err != nil {
			return nil, err
		}
		logger.DebugContext(ctx, "Created expenses file", log.FieldPath, path)
		return s, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}

	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &StorageError{Op: "decode", Path: path, Err: err}
	}
	for i, r := range records {
		if _, err := core.FromRecord(r); err != nil {
			return nil, &StorageError{Op: "decode", Path: path, Err: fmt.Errorf("record %d: %w", i, err)}
		}
	}
	if records != nil {
		s.records = records
	}
	logger.DebugContext(ctx, "Loaded expenses file", log.FieldPath, path, "count", len(records))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Add validates the expense, appends it and persists the collection. A failed
// write leaves the in-memory collection as it was.
func (s *Store) Add(_ context.Context, date, description string, amount decimal.Decimal) (uuid.UUID, error) {
	e, err := core.NewExpense(uuid.NewString(), date, description, amount)
	if err != nil {
		return uuid.Nil, err
	}

	s.records = append(s.records, e.ToRecord())
	if err := s.saveAll(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return uuid.Nil, err
	}
	return e.ID, nil
}

// List returns a copy of the records in insertion order.
func (s *Store) List(_ context.Context) ([]core.Record, error) {
	return append([]core.Record{}, s.records...), nil
}

// Delete removes the first record whose id equals id. It reports false
// without touching the file when nothing matches.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.saveAll(); err != nil {
		s.records = append(s.records[:idx], append([]core.Record{removed}, s.records[idx:]...)...)
		return false, err
	}
	return true, nil
}

func (s *Store) Summarize(_ context.Context) (decimal.Decimal, error) {
	return core.Total(s.records), nil
}

func (s *Store) saveAll() error {
	data, err := json.MarshalIndent(s.records, "", jsonIndent)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
