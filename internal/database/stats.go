package database

// stats.go periodically logs pool statistics.
//
// The reporter is long-running and context-aware for graceful shutdown.
// It logs a snapshot immediately on start, then every interval, and warns
// when callers had to wait for a connection since the previous snapshot.

import (
	"context"
	"log/slog"
	"time"
)

// StartStatsReporter logs p.Status every interval until ctx is cancelled.
// A non-positive interval disables reporting.
func (p *Pool) StartStatsReporter(ctx context.Context, interval time.Duration) {
	reportStats(ctx, slog.Default(), interval, p.Status)
}

func reportStats(ctx context.Context, logger *slog.Logger, interval time.Duration, status func() Status) {
	if interval <= 0 {
		return
	}

	logger.Info("pool stats reporter started", "interval", interval.String())

	// Report immediately on startup
	prev := status()
	logStatus(logger, prev, Status{})

	// Then report periodically
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("pool stats reporter stopped")
			return
		case <-ticker.C:
			cur := status()
			logStatus(logger, cur, prev)
			prev = cur
		}
	}
}

// logStatus logs cur. Counters are reported as deltas since prev.
func logStatus(logger *slog.Logger, cur, prev Status) {
	attrs := []any{
		"acquired", cur.AcquiredConns,
		"idle", cur.IdleConns,
		"total", cur.TotalConns,
		"max", cur.MaxConns,
		"acquires", cur.AcquireCount - prev.AcquireCount,
		"canceled_acquires", cur.CanceledAcquireCount - prev.CanceledAcquireCount,
	}

	if waited := cur.EmptyAcquireCount - prev.EmptyAcquireCount; waited > 0 && cur.AcquiredConns >= cur.MaxConns {
		logger.Warn("pool saturated", append(attrs, "waited_acquires", waited)...)
		return
	}
	logger.Debug("pool stats", attrs...)
}
