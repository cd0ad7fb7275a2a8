package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
)

// PriceFetcher fetches current USD prices for a set of assets.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, assets []domain.Asset) (map[string]decimal.Decimal, error)
}

// Service keeps stored USD quotes fresh and serves them as fund prices.
type Service struct {
	fetcher    PriceFetcher
	repo       QuoteRepository
	catalog    *domain.Catalog
	staleAfter time.Duration
	now        func() time.Time
}

// NewService creates a quote service. A zero staleAfter disables the staleness check.
func NewService(fetcher PriceFetcher, repo QuoteRepository, catalog *domain.Catalog, staleAfter time.Duration) *Service {
	if repo == nil || catalog == nil {
		panic("external.NewService: repo and catalog must not be nil")
	}
	return &Service{
		fetcher:    fetcher,
		repo:       repo,
		catalog:    catalog,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// FetchAndStoreQuotes fetches prices for every priced catalog asset and stores them in the database.
func (s *Service) FetchAndStoreQuotes(ctx context.Context) error {
	if s.fetcher == nil {
		return errors.New("no price fetcher configured")
	}
	assets := s.catalog.Priced()
	prices, err := s.fetcher.FetchPrices(ctx, assets)
	if err != nil {
		return fmt.Errorf("fetching external prices: %w", err)
	}

	for _, a := range assets {
		usd, ok := prices[a.ID]
		if !ok {
			slog.Warn("no quote returned for asset", "asset", a.ID, "coingecko_id", a.CoinGeckoID)
			continue
		}
		if err := s.repo.SaveQuote(ctx, a.ID, usd); err != nil {
			return fmt.Errorf("storing quote for %s: %w", a.ID, err)
		}
	}

	return nil
}

// PriceOf returns the stored USD price of assetID with 8 decimals.
// Missing, non-positive or stale quotes yield domain.ErrPriceUnavailable.
func (s *Service) PriceOf(ctx context.Context, assetID string) (domain.Price, error) {
	q, err := s.repo.GetQuote(ctx, assetID)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return domain.Price{}, fmt.Errorf("%w: %w", domain.ErrPriceUnavailable, err)
		}
		return domain.Price{}, fmt.Errorf("getting quote for %s: %w", assetID, err)
	}
	if s.staleAfter > 0 && s.now().Sub(q.UpdatedAt) > s.staleAfter {
		return domain.Price{}, fmt.Errorf("quote for %s is stale since %s: %w", assetID, q.UpdatedAt.Format(time.RFC3339), domain.ErrPriceUnavailable)
	}

	p := domain.PriceFromUSD(q.PriceUSD)
	if !p.IsPositive() {
		return domain.Price{}, fmt.Errorf("quote for %s rounds to zero: %w", assetID, domain.ErrPriceUnavailable)
	}
	return p, nil
}

// Quotes returns all stored quotes.
func (s *Service) Quotes(ctx context.Context) ([]Quote, error) {
	return s.repo.GetAllQuotes(ctx)
}
