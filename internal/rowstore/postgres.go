package rowstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tableColumns whitelists every table and column the store serves.
// Identifiers cannot be bound as query parameters, so anything not listed
// here is rejected before SQL is built.
var tableColumns = map[string]map[string]bool{
	"users": {
		"id":             true,
		"email":          true,
		"api_key_prefix": true,
		"api_key_hash":   true,
		"created_at":     true,
	},
	"teams": {
		"id":          true,
		"name":        true,
		"description": true,
		"created_by":  true,
		"created_at":  true,
	},
	"team_members": {
		"id":        true,
		"team_id":   true,
		"user_id":   true,
		"role":      true,
		"joined_at": true,
	},
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Store backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies backend connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Select returns the rows matching all filters, optionally ordered.
func (s *Postgres) Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", table)

	args, err := appendWhere(&sb, table, filters)
	if err != nil {
		return nil, err
	}

	if order != nil {
		if err := checkColumn(table, order.Column); err != nil {
			return nil, err
		}
		dir := "DESC"
		if order.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", order.Column, dir)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("selecting from %s: %w", table, err)
	}
	return collectRows(rows, table)
}

// Insert creates a row and returns it, including store-generated columns.
func (s *Postgres) Insert(ctx context.Context, table string, fields Row) (Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	cols, args, err := fieldList(table, fields)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}
	created, err := collectRows(rows, table)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("inserting into %s: no row returned", table)
	}
	return created[0], nil
}

// Update patches the rows matching all filters and returns them.
func (s *Postgres) Update(ctx context.Context, table string, filters []Filter, fields Row) ([]Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	cols, args, err := fieldList(table, fields)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET ", table)
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = $%d", col, i+1)
	}

	whereArgs, err := appendWhereFrom(&sb, table, filters, len(args))
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)
	sb.WriteString(" RETURNING *")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", table, err)
	}
	return collectRows(rows, table)
}

// Delete removes the rows matching all filters.
func (s *Postgres) Delete(ctx context.Context, table string, filters []Filter) error {
	if err := checkTable(table); err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", table)

	args, err := appendWhere(&sb, table, filters)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}

func checkTable(table string) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}

func checkColumn(table, column string) error {
	if !tableColumns[table][column] {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, column)
	}
	return nil
}

// fieldList validates a field mapping and returns its columns in a stable
// order alongside the matching argument values.
func fieldList(table string, fields Row) ([]string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if err := checkColumn(table, col); err != nil {
			return nil, nil, err
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = fields[col]
	}
	return cols, args, nil
}

func appendWhere(sb *strings.Builder, table string, filters []Filter) ([]any, error) {
	return appendWhereFrom(sb, table, filters, 0)
}

// appendWhereFrom writes a WHERE clause with placeholders numbered after
// the offset already consumed by the caller.
func appendWhereFrom(sb *strings.Builder, table string, filters []Filter, offset int) ([]any, error) {
	var args []any
	for i, f := range filters {
		if err := checkColumn(table, f.Column); err != nil {
			return nil, err
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		switch f.Op {
		case OpIn:
			fmt.Fprintf(sb, "%s = ANY($%d)", f.Column, offset+len(args)+1)
		default:
			fmt.Fprintf(sb, "%s = $%d", f.Column, offset+len(args)+1)
		}
		args = append(args, f.Value)
	}
	return args, nil
}

func collectRows(rows pgx.Rows, table string) ([]Row, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scanning %s rows: %w", table, err)
	}

	result := make([]Row, len(maps))
	for i, m := range maps {
		result[i] = normalizeRow(m)
	}
	return result, nil
}

// normalizeRow converts driver-level representations into the Go types the
// rest of the codebase expects. UUID columns scan as 16-byte arrays.
func normalizeRow(m map[string]any) Row {
	row := make(Row, len(m))
	for col, v := range m {
		switch raw := v.(type) {
		case [16]byte:
			row[col] = uuid.UUID(raw)
		case []byte:
			if id, err := uuid.FromBytes(raw); err == nil && len(raw) == 16 {
				row[col] = id
			} else {
				row[col] = raw
			}
		default:
			row[col] = v
		}
	}
	return row
}
