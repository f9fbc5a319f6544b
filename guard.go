package textsql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TaskKind names the kind of work a TaskGuard admits
type TaskKind string

const (
	// TaskIngest is a parse-and-load job
	TaskIngest TaskKind = "ingest"
	// TaskQuery is a query job
	TaskQuery TaskKind = "query"
)

// TaskGuard admits at most one ingest or query job at a time. A second job is
// refused with ErrBusy instead of being queued.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type TaskGuard struct {
	busy   atomic.Bool
	logger *slog.Logger
}

// NewTaskGuard creates an idle guard. A nil logger uses slog.Default().
func NewTaskGuard(logger *slog.Logger) *TaskGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskGuard{logger: logger}
}

// Busy reports whether a job is in flight
func (g *TaskGuard) Busy() bool {
	return g.busy.Load()
}

// Do runs fn if no other job is in flight and returns its error. The slot is
// released when fn returns or panics.
func (g *TaskGuard) Do(ctx context.Context, kind TaskKind, fn func(context.Context) error) error {
	if !g.busy.CompareAndSwap(false, true) {
		g.logger.Warn("job refused while another is in flight", "kind", string(kind))
		return fmt.Errorf("%w: %s refused", ErrBusy, kind)
	}
	defer g.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return err
	}

	jobID := uuid.NewString()
	logger := g.logger.With("job_id", jobID, "kind", string(kind))
	start := time.Now()
	logger.Debug("job started")

	err := fn(ctx)
	if err != nil {
		logger.Debug("job failed", "error", err, "elapsed", time.Since(start))
		return err
	}
	logger.Debug("job finished", "elapsed", time.Since(start))
	return nil
}
