package oracle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

type countingOracle struct {
	calls atomic.Int32
	price domain.Price
	err   error
}

func (c *countingOracle) PriceOf(_ context.Context, _ string) (domain.Price, error) {
	c.calls.Add(1)
	return c.price, c.err
}

func TestMemoryPriceOf(t *testing.T) {
	m := NewMemory(map[string]domain.Price{"joe": domain.NewPrice(4_00000000)})

	p, err := m.PriceOf(context.Background(), "joe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Cmp(domain.NewPrice(4_00000000).Decimal) != 0 {
		t.Errorf("price = %s, want 400000000", p)
	}

	m.SetPrice("joe", domain.NewPrice(5_00000000))
	p, _ = m.PriceOf(context.Background(), "joe")
	if p.Cmp(domain.NewPrice(5_00000000).Decimal) != 0 {
		t.Errorf("price after SetPrice = %s, want 500000000", p)
	}

	if _, err := m.PriceOf(context.Background(), "uni"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Errorf("missing price error = %v, want ErrPriceUnavailable", err)
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMemory(map[string]domain.Price{
		"native": domain.NewPrice(30_00000000),
		"joe":    domain.NewPrice(4_00000000),
	})

	set, err := Snapshot(context.Background(), m, []string{"native", "joe", "joe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("len = %d, want 2", len(set))
	}
	if _, err := set.Price("uni"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Errorf("Price(uni) error = %v, want ErrPriceUnavailable", err)
	}
}

func TestSnapshotMissingPrice(t *testing.T) {
	m := NewMemory(map[string]domain.Price{"native": domain.NewPrice(30_00000000)})

	_, err := Snapshot(context.Background(), m, []string{"native", "joe"})
	if !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("error = %v, want ErrPriceUnavailable", err)
	}
}

func TestSnapshotRejectsZeroPrice(t *testing.T) {
	m := NewMemory(map[string]domain.Price{"joe": {}})

	if _, err := Snapshot(context.Background(), m, []string{"joe"}); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("error = %v, want ErrPriceUnavailable", err)
	}
}

func TestCachedHitsNextOnce(t *testing.T) {
	next := &countingOracle{price: domain.NewPrice(1_00000000)}
	c := NewCached(next, time.Minute)

	for range 5 {
		if _, err := c.PriceOf(context.Background(), "joe"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	c.Invalidate("joe")
	_, _ = c.PriceOf(context.Background(), "joe")
	if got := next.calls.Load(); got != 2 {
		t.Errorf("calls after invalidate = %d, want 2", got)
	}

	c.Reset()
	_, _ = c.PriceOf(context.Background(), "joe")
	if got := next.calls.Load(); got != 3 {
		t.Errorf("calls after reset = %d, want 3", got)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	next := &countingOracle{err: domain.ErrPriceUnavailable}
	c := NewCached(next, time.Minute)

	_, _ = c.PriceOf(context.Background(), "joe")
	_, _ = c.PriceOf(context.Background(), "joe")
	if got := next.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestParsePriceList(t *testing.T) {
	prices, err := ParsePriceList("native=30, joe=4,uni=5.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prices["uni"]; got.Cmp(domain.NewPrice(5_50000000).Decimal) != 0 {
		t.Errorf("uni = %s, want 550000000", got)
	}
	if _, err := ParsePriceList("joe"); err == nil {
		t.Error("expected error for entry without '='")
	}
	if _, err := ParsePriceList("joe=-1"); err == nil {
		t.Error("expected error for negative price")
	}
}
