// Package database owns the PostgreSQL connection pool.
//
// The pool is created once at startup, shared by every data-access call and
// closed at shutdown. Each new physical connection runs an init hook before
// it is handed out; the default hook registers JSON codecs so json and jsonb
// columns decode into Go maps and slices.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/carbot/internal/config"
	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationName is reported to the server for every pooled connection.
const ApplicationName = "carbot"

// InitFunc runs once on every new physical connection.
type InitFunc func(ctx context.Context, conn *pgx.Conn) error

// Pool is a bounded set of reusable connections. It satisfies core.Pool.
type Pool struct {
	pool *pgxpool.Pool
	name string
}

var _ core.Pool = (*Pool)(nil)

// Open parses cfg, creates the pool and verifies connectivity with a ping.
// A nil initConn uses RegisterJSONCodecs.
func Open(ctx context.Context, cfg config.DatabaseConfig, initConn InitFunc) (*Pool, error) {
	poolConfig, err := newPoolConfig(cfg, initConn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Pool{pool: pool, name: poolConfig.ConnConfig.Database}
	slog.Info("connected to database",
		"name", p.name,
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns,
	)
	return p, nil
}

// newPoolConfig applies cfg on top of the settings parsed from the connection string.
func newPoolConfig(cfg config.DatabaseConfig, initConn InitFunc) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	if initConn == nil {
		initConn = RegisterJSONCodecs
	}
	poolConfig.AfterConnect = initConn

	return poolConfig, nil
}

// RegisterJSONCodecs makes json and jsonb values round-trip through
// encoding/json on conn.
func RegisterJSONCodecs(ctx context.Context, conn *pgx.Conn) error {
	tm := conn.TypeMap()
	tm.RegisterType(&pgtype.Type{
		Name:  "json",
		OID:   pgtype.JSONOID,
		Codec: &pgtype.JSONCodec{Marshal: json.Marshal, Unmarshal: json.Unmarshal},
	})
	tm.RegisterType(&pgtype.Type{
		Name:  "jsonb",
		OID:   pgtype.JSONBOID,
		Codec: &pgtype.JSONBCodec{Marshal: json.Marshal, Unmarshal: json.Unmarshal},
	})
	return nil
}

// Acquire takes a connection from the pool, waiting while all are in use.
// The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (core.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Ping checks that a connection can be acquired and the server responds.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Name returns the database name the pool connects to.
func (p *Pool) Name() string { return p.name }

// Close waits for acquired connections to be released and closes the pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Status is a point-in-time snapshot of pool usage.
type Status struct {
	AcquiredConns        int32         `json:"acquired_conns"`
	IdleConns            int32         `json:"idle_conns"`
	TotalConns           int32         `json:"total_conns"`
	MaxConns             int32         `json:"max_conns"`
	AcquireCount         int64         `json:"acquire_count"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	EmptyAcquireCount    int64         `json:"empty_acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration_ns"`
}

// Status returns current pool statistics.
func (p *Pool) Status() Status {
	s := p.pool.Stat()
	return Status{
		AcquiredConns:        s.AcquiredConns(),
		IdleConns:            s.IdleConns(),
		TotalConns:           s.TotalConns(),
		MaxConns:             s.MaxConns(),
		AcquireCount:         s.AcquireCount(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
		EmptyAcquireCount:    s.EmptyAcquireCount(),
		AcquireDuration:      s.AcquireDuration(),
	}
}
