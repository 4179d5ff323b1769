// Package memdb provides the thread-safe, insertion-ordered in-memory tables
// and the simulated clock that back the twin's record store.
package memdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateKey is returned when a row is inserted under a key that is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// Table is an append-only, insertion-ordered collection of rows of type T.
// Rows are indexed by the key returned from the key function passed to NewTable.
// Rows are never updated in place or removed individually; Reset and Load
// replace the whole table.
type Table[T any] struct {
	mu    sync.RWMutex
	rows  []T
	index map[string]int
	key   func(T) string
}

// NewTable creates an empty table keyed by key.
func NewTable[T any](key func(T) string) *Table[T] {
	return &Table[T]{
		rows:  make([]T, 0),
		index: make(map[string]int),
		key:   key,
	}
}

// Insert appends a row. It fails without modifying the table if the row's key exists.
func (t *Table[T]) Insert(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.key(row)
	if _, exists := t.index[k]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, k)
	}
	t.index[k] = len(t.rows)
	t.rows = append(t.rows, row)
	return nil
}

// Get retrieves a row by key.
func (t *Table[T]) Get(key string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

// List returns a copy of all rows in insertion order.
func (t *Table[T]) List() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Filter returns rows matching the predicate, in insertion order.
func (t *Table[T]) Filter(predicate func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var result []T
	for _, row := range t.rows {
		if predicate(row) {
			result = append(result, row)
		}
	}
	return result
}

// Page is an offset-based slice of a table.
type Page[T any] struct {
	Data  []T
	Total int
}

// Paginate returns up to count rows starting at offset among the rows that
// match predicate. A nil predicate matches every row; count <= 0 means no limit.
func (t *Table[T]) Paginate(offset, count int, predicate func(T) bool) Page[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	matched := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if predicate == nil || predicate(row) {
			matched = append(matched, row)
		}
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if count > 0 && offset+count < end {
		end = offset + count
	}

	return Page[T]{
		Data:  matched[offset:end],
		Total: len(matched),
	}
}

// Reset removes all rows.
func (t *Table[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make([]T, 0)
	t.index = make(map[string]int)
}

// Load replaces the table contents with rows, preserving their order.
// On a duplicate key the table is left untouched.
func (t *Table[T]) Load(rows []T) error {
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		k := t.key(row)
		if _, exists := index[k]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, k)
		}
		index[k] = i
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(make([]T, 0, len(rows)), rows...)
	t.index = index
	return nil
}

// MarshalJSON serializes the table as a JSON array in insertion order.
func (t *Table[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.List())
}

// UnmarshalJSON replaces the table contents from a JSON array.
func (t *Table[T]) UnmarshalJSON(data []byte) error {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	return t.Load(rows)
}
