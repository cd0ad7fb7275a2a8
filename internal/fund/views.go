package fund

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/basket"
	"github.com/mtlprog/basket/internal/domain"
)

// Info returns the fund's registry record with its current allocation.
func (f *Fund) Info() domain.FundInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()

	info := f.info
	info.Allocations = slices.Clone(f.info.Allocations)
	return info
}

// ID returns the fund's unique identifier. Identity fields are fixed at creation and read without the lock.
func (f *Fund) ID() string { return f.info.ID }

// Creator returns the account that created the fund.
func (f *Fund) Creator() string { return f.info.Creator }

// BalanceOf returns holder's shares.
func (f *Fund) BalanceOf(holder string) domain.Shares {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ledger.BalanceOf(holder)
}

// TotalSupply returns the shares outstanding.
func (f *Fund) TotalSupply() domain.Shares {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ledger.TotalSupply()
}

// Holders returns every account holding shares.
func (f *Fund) Holders() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ledger.Holders()
}

// TokenBalance returns how much of assetID the fund holds.
func (f *Fund) TokenBalance(assetID string) domain.Amount {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.holdings.Get(assetID)
}

// Holdings returns a copy of every non-zero holding.
func (f *Fund) Holdings() basket.Holdings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.holdings.Clone()
}

// Weights returns the current target allocation in order.
func (f *Fund) Weights() []domain.Allocation {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.info.Allocations)
}

// ValidateWeights reports whether the stored target weights sum to exactly 10000.
func (f *Fund) ValidateWeights() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.ValidateWeights(domain.AllocationWeights(f.info.Allocations))
}

// CurrentValue values the holdings at current oracle prices.
func (f *Fund) CurrentValue(ctx context.Context) (domain.Value, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.currentValueLocked(ctx)
}

func (f *Fund) currentValueLocked(ctx context.Context) (domain.Value, error) {
	prices, err := f.snapshotPrices(ctx, nil)
	if err != nil {
		return domain.Value{}, err
	}
	return f.accountant.ValueOf(f.holdings, prices)
}

// Snapshot values every holding at current oracle prices.
func (f *Fund) Snapshot(ctx context.Context) (domain.BasketSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	prices, err := f.snapshotPrices(ctx, nil)
	if err != nil {
		return domain.BasketSnapshot{}, err
	}
	snap, err := f.accountant.Snapshot(f.info.ID, f.holdings, prices, f.ledger.TotalSupply(), f.opts.Now())
	if err != nil {
		return domain.BasketSnapshot{}, fmt.Errorf("snapshotting %s: %w", f.info.Ticker, err)
	}
	snap.Ticker = f.info.Ticker
	return snap, nil
}

// Composition compares target weights with the current value split.
func (f *Fund) Composition(ctx context.Context) (domain.Composition, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	prices, err := f.snapshotPrices(ctx, f.info.Allocations)
	if err != nil {
		return domain.Composition{}, err
	}
	return f.accountant.Composition(f.info.ID, f.info.Allocations, f.holdings, prices)
}

// SharePrice returns the value of one whole share, or zero when no shares exist.
func (f *Fund) SharePrice(ctx context.Context) (domain.Value, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	value, err := f.currentValueLocked(ctx)
	if err != nil {
		return domain.Value{}, err
	}
	supply := f.ledger.TotalSupply()
	if supply.IsZero() {
		return domain.Value{}, nil
	}
	return domain.Value{Decimal: domain.MulDiv(value.Decimal, decimal.New(1, domain.ShareDecimals), supply.Decimal)}, nil
}
