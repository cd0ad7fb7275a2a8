package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
)

type mockTarget struct {
	id   string
	snap domain.BasketSnapshot
	err  error
}

func (m *mockTarget) ID() string { return m.id }

func (m *mockTarget) Snapshot(_ context.Context) (domain.BasketSnapshot, error) {
	return m.snap, m.err
}

type mockRepo struct {
	saveErr   error
	saved     map[string]json.RawMessage
	savedDate time.Time
	latest    *Snapshot
	latestErr error
	list      []Snapshot
	listErr   error
}

func (m *mockRepo) Save(_ context.Context, fundID string, date time.Time, data json.RawMessage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string]json.RawMessage)
	}
	m.saved[fundID] = data
	m.savedDate = date
	return nil
}

func (m *mockRepo) GetLatest(_ context.Context, _ string) (*Snapshot, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockRepo) GetByDate(_ context.Context, _ string, _ time.Time) (*Snapshot, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) GetNearestBefore(_ context.Context, _ string, _ time.Time) (*Snapshot, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, _ string, _ int) ([]Snapshot, error) {
	return m.list, m.listErr
}

func targets(ts ...Target) FundSource {
	return TargetsFunc(func() []Target { return ts })
}

func testSnapshot(id string, value int64) domain.BasketSnapshot {
	return domain.BasketSnapshot{
		FundID:     id,
		Ticker:     "IDX",
		TotalValue: domain.Value{Decimal: decimal.New(value, domain.ValueDecimals)},
	}
}

func TestGenerateSuccess(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(targets(
		&mockTarget{id: "f1", snap: testSnapshot("f1", 100)},
		&mockTarget{id: "f2", snap: testSnapshot("f2", 250)},
	), repo)

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snaps, err := svc.Generate(context.Background(), date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if len(repo.saved) != 2 {
		t.Fatalf("saved %d snapshots, want 2", len(repo.saved))
	}
	if !repo.savedDate.Equal(date) {
		t.Errorf("saved date = %v, want %v", repo.savedDate, date)
	}

	var decoded domain.BasketSnapshot
	if err := json.Unmarshal(repo.saved["f2"], &decoded); err != nil {
		t.Fatalf("stored data is not a snapshot: %v", err)
	}
	if decoded.TotalValue.Cmp(snaps[1].TotalValue) != 0 {
		t.Errorf("stored value = %s, want %s", decoded.TotalValue, snaps[1].TotalValue)
	}
}

func TestGeneratePartialFailure(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(targets(
		&mockTarget{id: "f1", err: domain.ErrPriceUnavailable},
		&mockTarget{id: "f2", snap: testSnapshot("f2", 10)},
	), repo)

	snaps, err := svc.Generate(context.Background(), time.Now())
	if !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
	if len(snaps) != 1 || snaps[0].FundID != "f2" {
		t.Errorf("snapshots = %+v, want only f2", snaps)
	}
	if _, ok := repo.saved["f1"]; ok {
		t.Error("failed fund must not be saved")
	}
}

func TestGenerateRepoSaveError(t *testing.T) {
	repo := &mockRepo{saveErr: errors.New("save failed")}
	svc := NewService(targets(&mockTarget{id: "f1", snap: testSnapshot("f1", 1)}), repo)

	snaps, err := svc.Generate(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error from repo save")
	}
	if len(snaps) != 0 {
		t.Errorf("got %d snapshots, want 0", len(snaps))
	}
}

func TestGenerateNoFunds(t *testing.T) {
	svc := NewService(targets(), &mockRepo{})

	snaps, err := svc.Generate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("got %d snapshots, want 0", len(snaps))
	}
}

func TestGetLatestNotFound(t *testing.T) {
	svc := NewService(targets(), &mockRepo{latestErr: ErrNotFound})

	_, err := svc.GetLatest(context.Background(), "f1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
