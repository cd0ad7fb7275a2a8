package swap

import (
	"context"
	"fmt"
	"sync"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/oracle"
)

// Router converts an amount of one asset into another.
type Router interface {
	Swap(ctx context.Context, assetIn, assetOut string, amountIn domain.Amount) (domain.Amount, error)
}

// OracleRouter is a simulated exchange that fills every swap at the oracle price minus a fee.
// Liquidity can optionally be limited per output asset.
type OracleRouter struct {
	catalog *domain.Catalog
	oracle  oracle.Oracle
	feeBps  domain.BasisPoints

	mu        sync.Mutex
	liquidity map[string]domain.Amount
}

// NewOracleRouter creates a simulated router charging feeBps on every swap.
func NewOracleRouter(catalog *domain.Catalog, o oracle.Oracle, feeBps domain.BasisPoints) *OracleRouter {
	if catalog == nil || o == nil {
		panic("swap.NewOracleRouter: catalog and oracle must not be nil")
	}
	return &OracleRouter{
		catalog:   catalog,
		oracle:    o,
		feeBps:    feeBps,
		liquidity: make(map[string]domain.Amount),
	}
}

// SetLiquidity caps the total output the router can deliver in assetID.
func (r *OracleRouter) SetLiquidity(assetID string, amount domain.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liquidity[assetID] = amount
}

func (r *OracleRouter) Swap(ctx context.Context, assetIn, assetOut string, amountIn domain.Amount) (domain.Amount, error) {
	if !amountIn.IsPositive() {
		return domain.Amount{}, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, domain.ErrZeroAmount)
	}
	if assetIn == assetOut {
		return amountIn, nil
	}

	in, err := r.catalog.Lookup(assetIn)
	if err != nil {
		return domain.Amount{}, err
	}
	out, err := r.catalog.Lookup(assetOut)
	if err != nil {
		return domain.Amount{}, err
	}

	prices, err := oracle.Snapshot(ctx, r.oracle, []string{assetIn, assetOut})
	if err != nil {
		return domain.Amount{}, fmt.Errorf("swap %s->%s: %w", assetIn, assetOut, err)
	}

	value := domain.ValueOf(amountIn, in, prices[assetIn])
	value = value.Sub(domain.Value{Decimal: domain.ApplyBasisPoints(value.Decimal, r.feeBps)})
	amountOut, err := domain.AmountFor(value, out, prices[assetOut])
	if err != nil {
		return domain.Amount{}, err
	}
	if amountOut.IsZero() {
		return domain.Amount{}, fmt.Errorf("swap %s->%s: output rounds to zero: %w", assetIn, assetOut, domain.ErrSwapFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if avail, limited := r.liquidity[assetOut]; limited {
		if avail.Cmp(amountOut) < 0 {
			return domain.Amount{}, fmt.Errorf("swap %s->%s: insufficient liquidity (%s < %s): %w",
				assetIn, assetOut, avail, amountOut, domain.ErrSwapFailed)
		}
		r.liquidity[assetOut] = avail.Sub(amountOut)
	}
	if avail, limited := r.liquidity[assetIn]; limited {
		r.liquidity[assetIn] = avail.Add(amountIn)
	}

	return amountOut, nil
}
