// Package audit persists pass-through override decisions to Postgres for
// compliance review. It is strictly write-only from the core's perspective:
// nothing under pkg/metric, pkg/scoring, pkg/passthrough, or pkg/action
// reads this table back, and a failure to write here never surfaces to the
// caller — matching spec.md's "core does not depend on the outcome"
// collaborator contract for the symbol-cache frequency counter, applied
// here to the audit sink instead.
//
// Grounded on internal/db/postgres.go's pgxpool usage (connection pool,
// context-scoped Exec, best-effort logging on failure instead of halting
// the caller).
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridgeline-security/symscore/pkg/metric"
)

// Sink writes pass-through decisions asynchronously to Postgres.
type Sink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect opens a pool against dsn and verifies connectivity. logger may be
// nil, in which case slog.Default() is used.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Sink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const insertDecisionSQL = `
	INSERT INTO passthrough_decisions
		(task_id, message_id, action, priority, target_score, message, module)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Record writes one pass-through decision. pkg/passthrough's Add calls it
// in its own goroutine when a decision is registered; pkg/action never
// calls it. Failures are logged and swallowed; the caller's action
// decision is never affected.
func (s *Sink) Record(ctx context.Context, taskID, messageID string, p metric.PassthroughResult) {
	if s == nil || s.pool == nil {
		return
	}

	var targetScore any
	if !isNaN(p.TargetScore) {
		targetScore = p.TargetScore
	}

	_, err := s.pool.Exec(ctx, insertDecisionSQL,
		taskID, messageID, string(p.Action), p.Priority, targetScore, p.Message, p.Module)
	if err != nil {
		s.logger.Warn("audit: failed to record pass-through decision",
			"task_id", taskID, "err", err)
	}
}

func isNaN(f float64) bool { return f != f }
