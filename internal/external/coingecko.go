package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
)

// CoinGeckoClient fetches prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchPrices fetches USD prices for assets that carry a CoinGecko id.
// Returns a map of asset ID -> price in USD. Assets missing from the response are omitted.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context, assets []domain.Asset) (map[string]decimal.Decimal, error) {
	assets = lo.Filter(assets, func(a domain.Asset, _ int) bool { return a.CoinGeckoID != "" })
	if len(assets) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	ids := lo.Uniq(lo.Map(assets, func(a domain.Asset, _ int) string { return a.CoinGeckoID }))
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	// {"bitcoin":{"usd":65000.12},"ethereum":{"usd":3100},...}
	var raw map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(assets))
	for _, a := range assets {
		usd, ok := raw[a.CoinGeckoID]["usd"]
		if !ok || !usd.IsPositive() {
			continue
		}
		result[a.ID] = usd
	}
	return result, nil
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
