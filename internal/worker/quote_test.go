package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockQuoteFetcher struct {
	callCount atomic.Int32
	err       error
}

func (m *mockQuoteFetcher) FetchAndStoreQuotes(_ context.Context) error {
	m.callCount.Add(1)
	return m.err
}

type mockCache struct {
	resets atomic.Int32
}

func (m *mockCache) Reset() { m.resets.Add(1) }

func TestQuoteWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockQuoteFetcher{}
	cache := &mockCache{}
	w := NewQuoteWorker(mock, 50*time.Millisecond, cache)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial fetch + some ticks
	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
	if got := cache.resets.Load(); got != mock.callCount.Load() {
		t.Errorf("resets = %d, want one per fetch (%d)", got, mock.callCount.Load())
	}
}

func TestQuoteWorkerKeepsCacheOnFailure(t *testing.T) {
	mock := &mockQuoteFetcher{err: errors.New("rate limited")}
	cache := &mockCache{}
	w := NewQuoteWorker(mock, time.Hour, cache)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got != 1 {
		t.Errorf("call count = %d, want 1", got)
	}
	if got := cache.resets.Load(); got != 0 {
		t.Errorf("resets = %d, want 0", got)
	}
}

func TestQuoteWorkerNilCache(t *testing.T) {
	mock := &mockQuoteFetcher{}
	w := NewQuoteWorker(mock, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got != 1 {
		t.Errorf("call count = %d, want 1", got)
	}
}
