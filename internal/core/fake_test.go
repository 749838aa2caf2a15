package core

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const testTable Table = "cars"

// registerTestTable installs a cars table for the duration of the test.
func registerTestTable(t testing.TB) {
	t.Helper()
	Clear()
	Register(TableDefinition{
		Name: testTable,
		Columns: []Column{
			"id", "url", "brand", "model", "price", "city",
			"attributes", "create_date", "update_date",
		},
	})
	t.Cleanup(Clear)
}

// captureLogs returns a context whose logger writes into the returned buffer.
func captureLogs() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.WithLogger(context.Background(), logging.New(&buf, "debug", "text")), &buf
}

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	columns []string
	data    [][]any
	err     error // returned by Err once iteration ends
	idx     int
	closed  bool
}

func newFakeRows(columns []string, data ...[]any) *fakeRows {
	return &fakeRows{columns: columns, data: data}
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.closed || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return errors.New("fakeRows: Scan not supported")
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.idx-1], nil
}

// queryFunc produces the result of one Query call.
type queryFunc func(ctx context.Context, sql string, args []any) (pgx.Rows, error)

// execFunc produces the result of one Exec call.
type execFunc func(ctx context.Context, sql string, args []any) (pgconn.CommandTag, error)

// fakePool is a bounded pool of fake connections. It tracks how many
// connections are held at once, borrowing the semaphore shape of a slot limiter.
type fakePool struct {
	slots      chan struct{}
	query      queryFunc
	exec       execFunc
	acquireErr error

	acquired atomic.Int64
	released atomic.Int64
	inUse    atomic.Int64
	maxInUse atomic.Int64

	mu    sync.Mutex
	stmts []string
}

func newFakePool(capacity int) *fakePool {
	return &fakePool{slots: make(chan struct{}, capacity)}
}

func (p *fakePool) Acquire(ctx context.Context) (Conn, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.acquired.Add(1)
	n := p.inUse.Add(1)
	for {
		max := p.maxInUse.Load()
		if n <= max || p.maxInUse.CompareAndSwap(max, n) {
			break
		}
	}
	return &fakeConn{pool: p}, nil
}

func (p *fakePool) statements() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stmts...)
}

func (p *fakePool) record(sql string) {
	p.mu.Lock()
	p.stmts = append(p.stmts, sql)
	p.mu.Unlock()
}

// fakeConn routes statements to its pool's handlers.
type fakeConn struct {
	pool     *fakePool
	released bool
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.pool.record(sql)
	if c.pool.query == nil {
		return newFakeRows(nil), nil
	}
	return c.pool.query(ctx, sql, args)
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.pool.record(sql)
	if c.pool.exec == nil {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return c.pool.exec(ctx, sql, args)
}

func (c *fakeConn) Release() {
	if c.released {
		panic("connection released twice")
	}
	c.released = true
	c.pool.inUse.Add(-1)
	c.pool.released.Add(1)
	<-c.pool.slots
}
