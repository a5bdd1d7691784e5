package rowstore

import (
	"context"
	"errors"
)

// ErrUnknownTable is returned when an operation names a table the store
// does not serve.
var ErrUnknownTable = errors.New("unknown table")

// ErrUnknownColumn is returned when a filter, ordering, or field mapping
// names a column the table does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Row is a generic field mapping for a single table row.
type Row map[string]any

// Op selects how a Filter matches column values.
type Op string

const (
	// OpEq matches rows whose column equals the filter value.
	OpEq Op = "eq"
	// OpIn matches rows whose column equals any element of the filter
	// value, which must be a slice.
	OpIn Op = "in"
)

// Filter restricts an operation to rows matching a column condition.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In builds a set-membership filter. values must be a non-empty slice;
// keep it uniformly typed so backend drivers can encode it as an array.
func In(column string, values any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Order requests result ordering by a single column.
type Order struct {
	Column    string
	Ascending bool
}

// Asc orders results by the column, ascending.
func Asc(column string) *Order {
	return &Order{Column: column, Ascending: true}
}

// Store is the generic table-oriented CRUD API the backend exposes. All
// persistence, querying, and authorization live behind this boundary; the
// store owns its wire protocol.
type Store interface {
	// Select returns the rows matching all filters, optionally ordered.
	Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Row, error)
	// Insert creates a row from the given fields and returns the created
	// row, including any store-generated columns.
	Insert(ctx context.Context, table string, fields Row) (Row, error)
	// Update patches the rows matching all filters and returns them.
	Update(ctx context.Context, table string, filters []Filter, fields Row) ([]Row, error)
	// Delete removes the rows matching all filters.
	Delete(ctx context.Context, table string, filters []Filter) error
}
