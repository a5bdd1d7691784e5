package rowstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory implements Store with in-process tables. It backs tests and
// DB-less runs, and emulates the store-generated columns the Postgres
// schema provides through per-table row defaults.
type InMemory struct {
	mu       sync.Mutex
	tables   map[string][]Row
	defaults map[string]func(Row)
	failures map[string]error
}

// NewInMemory creates an empty in-memory store serving the same tables as
// the Postgres adapter.
func NewInMemory() *InMemory {
	return &InMemory{
		tables:   make(map[string][]Row),
		defaults: make(map[string]func(Row)),
		failures: make(map[string]error),
	}
}

// SetRowDefaults registers a hook run on every insert into the table,
// before the row is stored. The hook should only fill columns the caller
// left absent.
func (s *InMemory) SetRowDefaults(table string, fn func(Row)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[table] = fn
}

// TimestampDefaults returns a row-defaults hook filling the given column
// with strictly increasing timestamps, emulating a DB-side now() default.
func TimestampDefaults(column string) func(Row) {
	var last time.Time
	return func(row Row) {
		if _, ok := row[column]; ok {
			return
		}
		now := time.Now().UTC()
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
		last = now
		row[column] = now
	}
}

// FailNext arranges for the next call of the given operation ("select",
// "insert", "update", "delete") on the table to return err instead of
// executing.
func (s *InMemory) FailNext(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+table] = err
}

func (s *InMemory) takeFailure(op, table string) error {
	key := op + ":" + table
	if err, ok := s.failures[key]; ok {
		delete(s.failures, key)
		return err
	}
	return nil
}

// Select returns the rows matching all filters, optionally ordered.
func (s *InMemory) Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure("select", table); err != nil {
		return nil, err
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	for _, f := range filters {
		if err := checkColumn(table, f.Column); err != nil {
			return nil, err
		}
	}

	var result []Row
	for _, row := range s.tables[table] {
		if matchesAll(row, filters) {
			result = append(result, copyRow(row))
		}
	}

	if order != nil {
		if err := checkColumn(table, order.Column); err != nil {
			return nil, err
		}
		col, asc := order.Column, order.Ascending
		sort.SliceStable(result, func(i, j int) bool {
			if asc {
				return lessValue(result[i][col], result[j][col])
			}
			return lessValue(result[j][col], result[i][col])
		})
	}
	return result, nil
}

// Insert creates a row and returns a copy of it, with a generated id and
// any registered defaults applied.
func (s *InMemory) Insert(ctx context.Context, table string, fields Row) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure("insert", table); err != nil {
		return nil, err
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	for col := range fields {
		if err := checkColumn(table, col); err != nil {
			return nil, err
		}
	}

	row := copyRow(fields)
	if fn := s.defaults[table]; fn != nil {
		fn(row)
	}
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.New()
	}

	s.tables[table] = append(s.tables[table], row)
	return copyRow(row), nil
}

// Update patches the rows matching all filters and returns copies of them.
func (s *InMemory) Update(ctx context.Context, table string, filters []Filter, fields Row) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure("update", table); err != nil {
		return nil, err
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	for _, f := range filters {
		if err := checkColumn(table, f.Column); err != nil {
			return nil, err
		}
	}
	for col := range fields {
		if err := checkColumn(table, col); err != nil {
			return nil, err
		}
	}

	var updated []Row
	for _, row := range s.tables[table] {
		if matchesAll(row, filters) {
			for col, v := range fields {
				row[col] = v
			}
			updated = append(updated, copyRow(row))
		}
	}
	return updated, nil
}

// Delete removes the rows matching all filters. Deleting nothing is not an
// error.
func (s *InMemory) Delete(ctx context.Context, table string, filters []Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure("delete", table); err != nil {
		return err
	}
	if err := checkTable(table); err != nil {
		return err
	}
	for _, f := range filters {
		if err := checkColumn(table, f.Column); err != nil {
			return err
		}
	}

	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !matchesAll(row, filters) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	return nil
}

func matchesAll(row Row, filters []Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matches(row Row, f Filter) bool {
	have, ok := row[f.Column]
	if !ok {
		return false
	}
	if f.Op == OpIn {
		v := reflect.ValueOf(f.Value)
		if v.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < v.Len(); i++ {
			if equalValue(have, v.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return equalValue(have, f.Value)
}

// equalValue compares loosely across representations: a uuid.UUID and its
// string form are the same value.
func equalValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func lessValue(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Before(bt)
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for col, v := range row {
		out[col] = v
	}
	return out
}
