package worker

import (
	"context"
	"log/slog"
	"time"
)

// QuoteFetcher defines the interface for fetching and storing asset quotes.
type QuoteFetcher interface {
	FetchAndStoreQuotes(ctx context.Context) error
}

// CacheResetter drops cached prices once fresh quotes are stored.
type CacheResetter interface {
	Reset()
}

// QuoteWorker periodically refreshes stored USD quotes.
type QuoteWorker struct {
	fetcher  QuoteFetcher
	interval time.Duration
	cache    CacheResetter // optional
}

// NewQuoteWorker creates a new QuoteWorker. cache may be nil.
func NewQuoteWorker(fetcher QuoteFetcher, interval time.Duration, cache CacheResetter) *QuoteWorker {
	return &QuoteWorker{
		fetcher:  fetcher,
		interval: interval,
		cache:    cache,
	}
}

func (w *QuoteWorker) fetch(ctx context.Context) error {
	if err := w.fetcher.FetchAndStoreQuotes(ctx); err != nil {
		return err
	}
	if w.cache != nil {
		w.cache.Reset()
	}
	return nil
}

// Run starts the quote worker loop. It blocks until the context is cancelled.
func (w *QuoteWorker) Run(ctx context.Context) {
	slog.Info("QuoteWorker: starting", "interval", w.interval)

	// Fetch immediately on startup
	if err := w.fetch(ctx); err != nil {
		slog.Error("QuoteWorker: initial fetch failed", "error", err)
	} else {
		slog.Info("QuoteWorker: initial fetch completed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("QuoteWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.fetch(ctx); err != nil {
				slog.Error("QuoteWorker: fetch failed", "error", err)
			} else {
				slog.Debug("QuoteWorker: fetch completed")
			}
		}
	}
}
