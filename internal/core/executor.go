package core

// executor.go runs built statements against the pool.
//
// Each operation acquires exactly one connection, runs exactly one statement
// and releases the connection on every exit path via defer, including
// context cancellation. There are no retries: the first failure is
// translated into a domain error kind and returned.

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Executor runs single statements on connections acquired from a Pool.
// It is safe for concurrent use.
type Executor struct {
	pool Pool
}

// NewExecutor creates an Executor over pool.
func NewExecutor(pool Pool) *Executor {
	return &Executor{pool: pool}
}

// Insert inserts one row and returns it as stored (including server defaults).
// Any failure, or a result other than exactly one row, yields ErrInsertFailed.
func (e *Executor) Insert(ctx context.Context, t Table, fields ...Field) (Row, error) {
	f := failure{op: "insert", opID: uuid.NewString()}

	stmt, err := BuildInsert(t, fields)
	if err != nil {
		f.cause = err
		return Row{}, translate(ctx, ErrInsertFailed, f)
	}
	f.stmt = stmt

	var row Row
	err = e.withConn(ctx, f, func(conn Conn) error {
		rows, err := conn.Query(ctx, stmt.sql, stmt.args...)
		if err != nil {
			return err
		}
		row, err = pgx.CollectExactlyOneRow(rows, toRow)
		return err
	})
	if err != nil {
		f.cause = err
		return Row{}, translate(ctx, ErrInsertFailed, f)
	}
	return row, nil
}

// SelectAll returns every row of t under the given projection.
// An empty table yields an empty slice, not an error.
func (e *Executor) SelectAll(ctx context.Context, t Table, opts SelectOptions) ([]Row, error) {
	f := failure{op: "select_all", opID: uuid.NewString()}

	stmt, err := BuildSelect(t, opts, nil)
	if err != nil {
		f.cause = err
		return nil, translate(ctx, ErrQueryError, f)
	}
	f.stmt = stmt

	rows, err := e.fetch(ctx, f)
	if err != nil {
		f.cause = err
		return nil, translate(ctx, ErrQueryError, f)
	}
	return rows, nil
}

// SelectOne returns the first row of t matching every condition in where.
// No match, or any failure, yields ErrNotFound. At most two rows are read;
// when a second one exists the first is returned and a warning is logged.
func (e *Executor) SelectOne(ctx context.Context, t Table, opts SelectOptions, where ...Field) (Row, error) {
	f := failure{op: "select_one", opID: uuid.NewString()}

	opts.Limit = 2
	stmt, err := BuildSelect(t, opts, where)
	if err != nil {
		f.cause = err
		return Row{}, translate(ctx, ErrNotFound, f)
	}
	f.stmt = stmt

	var (
		row     Row
		matched int
	)
	err = e.withConn(ctx, f, func(conn Conn) error {
		rows, err := conn.Query(ctx, stmt.sql, stmt.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if matched++; matched > 1 {
				break
			}
			if row, err = toRow(rows); err != nil {
				return err
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if matched == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		f.cause = err
		return Row{}, translate(ctx, ErrNotFound, f)
	}

	if matched > 1 {
		logging.FromContext(ctx).Warn("select_one matched more than one row, returning first",
			"op_id", f.opID,
			"table", t,
			"query", stmt.sql,
		)
	}
	return row, nil
}

// SelectWhere returns every row of t matching all conditions in where.
// No match, or any failure, yields ErrNotFound.
func (e *Executor) SelectWhere(ctx context.Context, t Table, opts SelectOptions, where ...Field) ([]Row, error) {
	f := failure{op: "select_where", opID: uuid.NewString()}

	stmt, err := BuildSelect(t, opts, where)
	if err != nil {
		f.cause = err
		return nil, translate(ctx, ErrNotFound, f)
	}
	f.stmt = stmt

	rows, err := e.fetch(ctx, f)
	if err == nil && len(rows) == 0 {
		err = pgx.ErrNoRows
	}
	if err != nil {
		f.cause = err
		return nil, translate(ctx, ErrNotFound, f)
	}
	return rows, nil
}

// Update sets columns on rows of t matching where. It returns no rows.
// Updates that would only touch the update timestamp (or nothing) return
// nil without acquiring a connection. Failures yield ErrUpdateFailed.
func (e *Executor) Update(ctx context.Context, t Table, where, set []Field) error {
	f := failure{op: "update", opID: uuid.NewString()}

	stmt, err := BuildUpdate(t, where, set)
	if errors.Is(err, ErrNoChanges) {
		logging.FromContext(ctx).Debug("update skipped, nothing to change",
			"op_id", f.opID,
			"table", t,
		)
		return nil
	}
	if err != nil {
		f.cause = err
		return translate(ctx, ErrUpdateFailed, f)
	}
	f.stmt = stmt

	err = e.withConn(ctx, f, func(conn Conn) error {
		tag, err := conn.Exec(ctx, stmt.sql, stmt.args...)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("rows updated",
			"op_id", f.opID,
			"table", t,
			"rows_affected", tag.RowsAffected(),
		)
		return nil
	})
	if err != nil {
		f.cause = err
		return translate(ctx, ErrUpdateFailed, f)
	}
	return nil
}

// Query runs caller-supplied SQL and returns all resulting rows.
// No rows is a valid, empty outcome. Failures yield ErrQueryError.
func (e *Executor) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	f := failure{op: "query", opID: uuid.NewString(), stmt: Raw(sql, args...)}

	rows, err := e.fetch(ctx, f)
	if err != nil {
		f.cause = err
		return nil, translate(ctx, ErrQueryError, f)
	}
	return rows, nil
}

// fetch runs f.stmt and collects every row.
func (e *Executor) fetch(ctx context.Context, f failure) ([]Row, error) {
	var out []Row
	err := e.withConn(ctx, f, func(conn Conn) error {
		rows, err := conn.Query(ctx, f.stmt.sql, f.stmt.args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, toRow)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

// withConn acquires a connection, runs fn and always releases the connection.
func (e *Executor) withConn(ctx context.Context, f failure, fn func(Conn) error) error {
	start := time.Now()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if err := fn(conn); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug("statement executed",
		"op", f.op,
		"op_id", f.opID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// toRow maps the current result row to a Row keyed by result column name.
func toRow(r pgx.CollectableRow) (Row, error) {
	values, err := r.Values()
	if err != nil {
		return Row{}, err
	}
	fds := r.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return NewRow(cols, values), nil
}
