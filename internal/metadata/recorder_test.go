package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/mtlprog/basket/internal/domain"
)

type mockActivityStore struct {
	activity   []domain.Activity
	weights    map[string][]domain.Allocation
	saveErr    error
	replaceErr error
}

func (m *mockActivityStore) SaveActivity(_ context.Context, a domain.Activity) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.activity = append(m.activity, a)
	return nil
}

func (m *mockActivityStore) ReplaceWeights(_ context.Context, fundID string, allocs []domain.Allocation) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if m.weights == nil {
		m.weights = make(map[string][]domain.Allocation)
	}
	m.weights[fundID] = allocs
	return nil
}

func TestRecorderRecord(t *testing.T) {
	joe := domain.Asset{ID: "joe", Symbol: "JOE", Decimals: 18}
	allocs := []domain.Allocation{{Asset: joe, Weight: 10000}}

	tests := []struct {
		name        string
		activity    domain.Activity
		wantWeights bool
	}{
		{"buy", domain.Activity{FundID: "f1", Kind: domain.ActivityBuy, Account: "alice", Amount: domain.NewAmount(5)}, false},
		{"sell", domain.Activity{FundID: "f1", Kind: domain.ActivitySell, Account: "alice"}, false},
		{"rebalance", domain.Activity{FundID: "f1", Kind: domain.ActivityRebalance, Account: "owner", Allocations: allocs}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockActivityStore{}
			NewRecorder(store).Record(context.Background(), tt.activity)

			if len(store.activity) != 1 {
				t.Fatalf("stored %d activity rows, want 1", len(store.activity))
			}
			if store.activity[0].Kind != tt.activity.Kind {
				t.Errorf("kind = %s, want %s", store.activity[0].Kind, tt.activity.Kind)
			}
			_, replaced := store.weights["f1"]
			if replaced != tt.wantWeights {
				t.Errorf("weights replaced = %v, want %v", replaced, tt.wantWeights)
			}
		})
	}
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	store := &mockActivityStore{saveErr: errors.New("db down"), replaceErr: errors.New("db down")}
	r := NewRecorder(store)

	// Must not panic or block.
	r.Record(context.Background(), domain.Activity{
		FundID:      "f1",
		Kind:        domain.ActivityRebalance,
		Allocations: []domain.Allocation{{Asset: domain.NativeAsset(), Weight: 10000}},
	})

	if len(store.activity) != 0 {
		t.Errorf("stored %d rows, want 0", len(store.activity))
	}
}

func TestRecorderIgnoresCancelledContext(t *testing.T) {
	store := &mockActivityStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewRecorder(store).Record(ctx, domain.Activity{FundID: "f1", Kind: domain.ActivityBuy})

	if len(store.activity) != 1 {
		t.Errorf("stored %d rows, want 1", len(store.activity))
	}
}
