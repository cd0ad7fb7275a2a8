package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

// SnapshotGenerator defines the interface for generating fund snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, date time.Time) ([]domain.BasketSnapshot, error)
}

// AfterSnapshotHook is called with the snapshots of each generation run.
type AfterSnapshotHook interface {
	Export(ctx context.Context, snaps []domain.BasketSnapshot) error
}

// SnapshotWorker periodically stores a snapshot of every fund.
type SnapshotWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterSnapshotHook // optional
	now       func() time.Time
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-generation hook.
func NewSnapshotWorker(generator SnapshotGenerator, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
		now:       time.Now,
	}
}

// UTCDate normalizes t to midnight UTC.
func UTCDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// generate runs one generation. Funds that failed are logged; the rest still reach the hook.
func (w *SnapshotWorker) generate(ctx context.Context) {
	snaps, err := w.generator.Generate(ctx, UTCDate(w.now()))
	if err != nil {
		slog.Error("SnapshotWorker: generation failed", "error", err, "generated", len(snaps))
	} else {
		slog.Info("SnapshotWorker: generation completed", "funds", len(snaps))
	}
	if len(snaps) == 0 || w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, snaps); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "interval", w.interval)

	w.generate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx)
		}
	}
}
