package core

// builder.go turns table names and ordered column/value pairs into
// parameterized statements.
//
// Identifiers (table and column names) are embedded as quoted identifiers
// after being checked against the registry allowlist. Values are never
// embedded in SQL text; they are always positional arguments.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoChanges is returned by BuildUpdate when, after dropping the creation
// timestamp, nothing but the update timestamp (or nothing at all) is left to
// set. Executors treat it as a successful no-op.
var ErrNoChanges = errors.New("nothing to update")

var (
	errUnknownTable    = errors.New("unknown table")
	errUnknownColumn   = errors.New("unknown column")
	errDuplicateColumn = errors.New("duplicate column")
	errNoFields        = errors.New("no fields")
	errNoCondition     = errors.New("update without condition")
)

// WhereBuilder accumulates equality conditions joined by AND.
// Placeholders are numbered from the start index passed to NewWhereBuilder.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder creates a builder whose first placeholder is $start.
// A start below 1 is treated as 1.
func NewWhereBuilder(start int) *WhereBuilder {
	if start < 1 {
		start = 1
	}
	return &WhereBuilder{argIndex: start}
}

// Add appends a "col" = $N condition.
func (wb *WhereBuilder) Add(col Column, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", quoteIdentifier(string(col)), wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// Build returns the WHERE clause (with a leading space) and its arguments.
// Returns "" and nil when no conditions were added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE (" + strings.Join(wb.conditions, " AND ") + ")", wb.args
}

// NextArgIndex returns the index the next placeholder would use.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// BuildInsert builds:
//
//	INSERT INTO "t" ("c1", "c2") VALUES ($1, $2) RETURNING *
//
// Column order follows the order of fields.
func BuildInsert(t Table, fields []Field) (Statement, error) {
	def, err := lookup(t)
	if err != nil {
		return Statement{}, err
	}
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("insert into %s: %w", t, errNoFields)
	}
	if err := checkFields(def, fields); err != nil {
		return Statement{}, fmt.Errorf("insert into %s: %w", t, err)
	}

	cols := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = quoteIdentifier(string(f.Column))
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = f.Value
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quoteIdentifier(string(t)),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	return Statement{sql: sql, args: args}, nil
}

// BuildSelect builds:
//
//	SELECT [DISTINCT] "c1", "c2" FROM "t" [WHERE ("a" = $1 AND "b" = $2)] [LIMIT n]
//
// An empty projection selects *. No WHERE clause is emitted when where is empty.
func BuildSelect(t Table, opts SelectOptions, where []Field) (Statement, error) {
	def, err := lookup(t)
	if err != nil {
		return Statement{}, err
	}
	for _, col := range opts.Columns {
		if !def.HasColumn(col) {
			return Statement{}, fmt.Errorf("select from %s: %w: %s", t, errUnknownColumn, col)
		}
	}
	if err := checkFields(def, where); err != nil {
		return Statement{}, fmt.Errorf("select from %s: %w", t, err)
	}

	projection := "*"
	if len(opts.Columns) > 0 {
		quoted := make([]string, len(opts.Columns))
		for i, col := range opts.Columns {
			quoted[i] = quoteIdentifier(string(col))
		}
		projection = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if opts.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(projection)
	b.WriteString(" FROM ")
	b.WriteString(quoteIdentifier(string(t)))

	wb := NewWhereBuilder(1)
	for _, f := range where {
		wb.Add(f.Column, f.Value)
	}
	clause, args := wb.Build()
	b.WriteString(clause)

	if opts.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(opts.Limit))
	}

	return Statement{sql: b.String(), args: args}, nil
}

// BuildUpdate builds:
//
//	UPDATE "t" SET "a" = $1, "b" = $2 WHERE ("k" = $3)
//
// SET placeholders are numbered before WHERE placeholders. The table's
// creation timestamp column is dropped from set. If nothing, or only the
// update timestamp column, remains, ErrNoChanges is returned.
func BuildUpdate(t Table, where, set []Field) (Statement, error) {
	def, err := lookup(t)
	if err != nil {
		return Statement{}, err
	}

	kept := make([]Field, 0, len(set))
	for _, f := range set {
		if f.Column == def.CreatedColumn {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 || (len(kept) == 1 && kept[0].Column == def.UpdatedColumn) {
		return Statement{}, ErrNoChanges
	}

	if len(where) == 0 {
		return Statement{}, fmt.Errorf("update %s: %w", t, errNoCondition)
	}
	if err := checkFields(def, kept); err != nil {
		return Statement{}, fmt.Errorf("update %s: %w", t, err)
	}
	if err := checkFields(def, where); err != nil {
		return Statement{}, fmt.Errorf("update %s: %w", t, err)
	}

	assignments := make([]string, len(kept))
	args := make([]any, 0, len(kept)+len(where))
	for i, f := range kept {
		assignments[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(string(f.Column)), i+1)
		args = append(args, f.Value)
	}

	wb := NewWhereBuilder(len(kept) + 1)
	for _, f := range where {
		wb.Add(f.Column, f.Value)
	}
	clause, whereArgs := wb.Build()
	args = append(args, whereArgs...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s",
		quoteIdentifier(string(t)),
		strings.Join(assignments, ", "),
		clause,
	)
	return Statement{sql: sql, args: args}, nil
}

// lookup returns the registered definition for t.
func lookup(t Table) (TableDefinition, error) {
	def, ok := Get(t)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", errUnknownTable, t)
	}
	return def, nil
}

// checkFields verifies every column is allowlisted and appears only once.
func checkFields(def TableDefinition, fields []Field) error {
	seen := make(map[Column]struct{}, len(fields))
	for _, f := range fields {
		if !def.HasColumn(f.Column) {
			return fmt.Errorf("%w: %s", errUnknownColumn, f.Column)
		}
		if _, dup := seen[f.Column]; dup {
			return fmt.Errorf("%w: %s", errDuplicateColumn, f.Column)
		}
		seen[f.Column] = struct{}{}
	}
	return nil
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
