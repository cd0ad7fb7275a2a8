package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

type swapRequest struct {
	AssetIn  string        `json:"assetIn"`
	AssetOut string        `json:"assetOut"`
	AmountIn domain.Amount `json:"amountIn"`
}

type swapResponse struct {
	AmountOut domain.Amount `json:"amountOut"`
}

// RemoteRouter executes swaps against an HTTP router service with retry on 429.
type RemoteRouter struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewRemoteRouter creates a client for the router service at baseURL.
func NewRemoteRouter(baseURL string, maxRetries int, baseDelay time.Duration) *RemoteRouter {
	return &RemoteRouter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

func (c *RemoteRouter) Swap(ctx context.Context, assetIn, assetOut string, amountIn domain.Amount) (domain.Amount, error) {
	payload, err := json.Marshal(swapRequest{AssetIn: assetIn, AssetOut: assetOut, AmountIn: amountIn})
	if err != nil {
		return domain.Amount{}, fmt.Errorf("encoding swap request: %w", err)
	}

	body, err := c.post(ctx, "/swap", payload)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("swap %s->%s: %w: %w", assetIn, assetOut, domain.ErrSwapFailed, err)
	}

	var resp swapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Amount{}, fmt.Errorf("parsing swap response: %w", err)
	}
	if !resp.AmountOut.IsPositive() {
		return domain.Amount{}, fmt.Errorf("swap %s->%s returned %s: %w", assetIn, assetOut, resp.AmountOut, domain.ErrSwapFailed)
	}
	return resp.AmountOut, nil
}

// post performs a POST request with retry on 429.
func (c *RemoteRouter) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", url, attempt+1, c.maxRetries+1)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	return nil, lastErr
}
