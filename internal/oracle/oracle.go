package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/basket/internal/domain"
)

// maxConcurrentLookups bounds parallel price requests within one snapshot.
const maxConcurrentLookups = 8

// Oracle returns the current USD price of an asset with 8 decimals.
type Oracle interface {
	PriceOf(ctx context.Context, assetID string) (domain.Price, error)
}

// PriceSet is a consistent set of prices taken once per fund operation.
type PriceSet map[string]domain.Price

// Price returns the price of assetID from the set.
func (s PriceSet) Price(assetID string) (domain.Price, error) {
	p, ok := s[assetID]
	if !ok || !p.IsPositive() {
		return domain.Price{}, fmt.Errorf("%s: %w", assetID, domain.ErrPriceUnavailable)
	}
	return p, nil
}

// Snapshot fetches prices for every asset in ids concurrently. Any missing price fails the whole snapshot.
func Snapshot(ctx context.Context, o Oracle, ids []string) (PriceSet, error) {
	ids = lo.Uniq(ids)

	var mu sync.Mutex
	prices := make(PriceSet, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, id := range ids {
		g.Go(func() error {
			p, err := o.PriceOf(ctx, id)
			if err != nil {
				return fmt.Errorf("pricing %s: %w", id, err)
			}
			if !p.IsPositive() {
				return fmt.Errorf("pricing %s: non-positive price: %w", id, domain.ErrPriceUnavailable)
			}
			mu.Lock()
			prices[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

// Memory is an in-process oracle whose prices are set explicitly.
type Memory struct {
	mu     sync.RWMutex
	prices map[string]domain.Price
}

// NewMemory creates a Memory oracle seeded with prices.
func NewMemory(prices map[string]domain.Price) *Memory {
	m := &Memory{prices: make(map[string]domain.Price, len(prices))}
	for id, p := range prices {
		m.prices[id] = p
	}
	return m
}

// SetPrice replaces the price of assetID.
func (m *Memory) SetPrice(assetID string, p domain.Price) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[assetID] = p
}

func (m *Memory) PriceOf(_ context.Context, assetID string) (domain.Price, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.prices[assetID]
	if !ok {
		return domain.Price{}, fmt.Errorf("%s: %w", assetID, domain.ErrPriceUnavailable)
	}
	return p, nil
}

// ParsePriceList parses "id=usd,id=usd" pairs, e.g. "native=30,joe=4".
func ParsePriceList(spec string) (map[string]domain.Price, error) {
	prices := make(map[string]domain.Price)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, usd, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid price entry %q, expected id=usd", pair)
		}
		p, err := domain.ParsePrice(strings.TrimSpace(usd))
		if err != nil {
			return nil, fmt.Errorf("price entry %q: %w", pair, err)
		}
		prices[strings.TrimSpace(id)] = p
	}
	return prices, nil
}
