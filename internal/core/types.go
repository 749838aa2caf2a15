package core

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Table is a registered table name. Only names registered via [Register]
// are accepted by the statement builders.
type Table string

// Column is a column name belonging to a registered table's allowlist.
type Column string

// Field is a single column/value pair. Ordered slices of fields replace
// free-form key/value mappings so column order and argument order agree.
type Field struct {
	Column Column
	Value  any
}

// F is shorthand for constructing a Field.
func F(col Column, value any) Field {
	return Field{Column: col, Value: value}
}

// Conn is a single pooled connection.
// Satisfied by *pgxpool.Conn.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

// Pool hands out connections. Every successful Acquire must be paired with
// exactly one Conn.Release.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// SelectOptions controls the projection of a SELECT statement.
type SelectOptions struct {
	Columns  []Column // Empty means all columns (*)
	Distinct bool     // Collapse duplicate projected rows
	Limit    int      // Maximum rows returned; zero or less means no limit
}

// Statement is a parameterized SQL text plus its positional arguments.
// The Nth placeholder ($N) corresponds to the Nth argument.
type Statement struct {
	sql  string
	args []any
}

// Raw wraps caller-supplied SQL as a Statement without inspecting it.
func Raw(sql string, args ...any) Statement {
	return Statement{sql: sql, args: append([]any(nil), args...)}
}

// SQL returns the statement text.
func (s Statement) SQL() string { return s.sql }

// Args returns a copy of the positional arguments.
func (s Statement) Args() []any {
	return append([]any(nil), s.args...)
}

// NumArgs returns the number of positional arguments.
func (s Statement) NumArgs() int { return len(s.args) }

// IsZero reports whether the statement was never built.
func (s Statement) IsZero() bool { return s.sql == "" }

// Row is one result row: an ordered mapping of column name to value.
type Row struct {
	columns []string
	values  []any
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Values returns the values in result order.
func (r Row) Values() []any { return r.values }

// Len returns the number of columns in the row.
func (r Row) Len() int { return len(r.columns) }

// Get returns the value for a column and whether it was present.
func (r Row) Get(col string) (any, bool) {
	for i, c := range r.columns {
		if c == col {
			return r.values[i], true
		}
	}
	return nil, false
}

// Text returns the value for col as a string, or "" if absent or not a string.
func (r Row) Text(col string) string {
	v, _ := r.Get(col)
	s, _ := v.(string)
	return s
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
