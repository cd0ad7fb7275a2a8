package metadata

import (
	"context"
	"log/slog"

	"github.com/mtlprog/basket/internal/domain"
)

// ActivityStore persists activity and target weights.
type ActivityStore interface {
	SaveActivity(ctx context.Context, a domain.Activity) error
	ReplaceWeights(ctx context.Context, fundID string, allocs []domain.Allocation) error
}

// Recorder writes committed fund operations to an ActivityStore.
// Storage failures are logged; the operations they describe have already committed.
type Recorder struct {
	store ActivityStore
}

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store ActivityStore) *Recorder {
	if store == nil {
		panic("metadata.NewRecorder: store must not be nil")
	}
	return &Recorder{store: store}
}

// Record implements fund.Observer.
func (r *Recorder) Record(ctx context.Context, a domain.Activity) {
	ctx = context.WithoutCancel(ctx)

	if err := r.store.SaveActivity(ctx, a); err != nil {
		slog.Warn("failed to record fund activity", "fund", a.FundID, "kind", a.Kind, "error", err)
	}
	if a.Kind != domain.ActivityRebalance || len(a.Allocations) == 0 {
		return
	}
	if err := r.store.ReplaceWeights(ctx, a.FundID, a.Allocations); err != nil {
		slog.Warn("failed to store rebalanced weights", "fund", a.FundID, "error", err)
	}
}
