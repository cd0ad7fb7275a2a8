// Package fund implements a single index fund: deposits, redemptions and rebalancing
// of a weighted basket with all-or-nothing semantics.
package fund

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/basket/internal/basket"
	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/ledger"
	"github.com/mtlprog/basket/internal/oracle"
	"github.com/mtlprog/basket/internal/swap"
)

// Custody moves the base asset between investors and the fund.
type Custody interface {
	Collect(ctx context.Context, from string, amount domain.Amount) error
	Pay(ctx context.Context, to string, amount domain.Amount) error
}

// Observer is notified of every committed operation.
type Observer interface {
	Record(ctx context.Context, activity domain.Activity)
}

// Deps are the collaborators every fund requires.
type Deps struct {
	Catalog *domain.Catalog
	Oracle  oracle.Oracle
	Router  swap.Router
	Custody Custody
}

// Options tune fund behaviour. The zero value is strict: no slippage, no redemption fee.
type Options struct {
	// MaxSlippage is the tolerated shortfall of a swap below its oracle-implied output.
	MaxSlippage domain.BasisPoints
	// RedemptionFee is withheld from sell proceeds and stays in the fund.
	RedemptionFee domain.BasisPoints
	// Owner may rebalance any fund in addition to its creator.
	Owner    string
	Observer Observer
	Now      func() time.Time
}

// Fund is one basket fund. Every mutating operation holds the fund lock for its whole duration,
// including oracle and router calls.
type Fund struct {
	mu         sync.RWMutex
	info       domain.FundInfo
	holdings   basket.Holdings
	ledger     *ledger.Ledger
	accountant *basket.Accountant

	catalog *domain.Catalog
	oracle  oracle.Oracle
	router  swap.Router
	custody Custody
	opts    Options
}

// New creates an empty fund. All deps are required.
func New(info domain.FundInfo, deps Deps, opts Options) *Fund {
	if deps.Catalog == nil {
		panic("fund.New: catalog is nil")
	}
	if deps.Oracle == nil {
		panic("fund.New: oracle is nil")
	}
	if deps.Router == nil {
		panic("fund.New: router is nil")
	}
	if deps.Custody == nil {
		panic("fund.New: custody is nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Fund{
		info:       info,
		holdings:   make(basket.Holdings),
		ledger:     ledger.New(),
		accountant: basket.NewAccountant(deps.Catalog),
		catalog:    deps.Catalog,
		oracle:     deps.Oracle,
		router:     deps.Router,
		custody:    deps.Custody,
		opts:       opts,
	}
}

// Buy converts amount of the base asset from depositor into the basket and mints shares
// for the value actually acquired.
func (f *Fund) Buy(ctx context.Context, depositor string, amount domain.Amount) (domain.BuyReceipt, error) {
	receipt, err := f.buy(ctx, depositor, amount)
	if err != nil {
		return domain.BuyReceipt{}, err
	}
	slog.Info("fund buy committed",
		"fund", f.info.Ticker, "depositor", depositor, "amount", amount, "shares", receipt.Shares)
	f.record(ctx, domain.Activity{
		FundID:  f.info.ID,
		Kind:    domain.ActivityBuy,
		Account: depositor,
		Amount:  amount,
		Shares:  receipt.Shares,
	})
	return receipt, nil
}

func (f *Fund) buy(ctx context.Context, depositor string, amount domain.Amount) (domain.BuyReceipt, error) {
	if !amount.IsPositive() {
		return domain.BuyReceipt{}, domain.ErrZeroAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prices, err := f.snapshotPrices(ctx, f.info.Allocations)
	if err != nil {
		return domain.BuyReceipt{}, err
	}
	valueBefore, err := f.accountant.ValueOf(f.holdings, prices)
	if err != nil {
		return domain.BuyReceipt{}, fmt.Errorf("valuing fund: %w", err)
	}

	if err := f.custody.Collect(ctx, depositor, amount); err != nil {
		return domain.BuyReceipt{}, fmt.Errorf("collecting deposit: %w", err)
	}

	native := f.catalog.Native()
	acquired := make(basket.Holdings, len(f.info.Allocations))
	spent := domain.Amount{}
	var j journal

	abort := func(cause error) (domain.BuyReceipt, error) {
		j.unwind(ctx, f.router, f.info.Ticker)
		if err := f.custody.Pay(context.WithoutCancel(ctx), depositor, amount); err != nil {
			slog.Error("refunding failed deposit", "fund", f.info.Ticker, "depositor", depositor, "amount", amount, "error", err)
		}
		return domain.BuyReceipt{}, cause
	}

	for _, alloc := range f.info.Allocations {
		if alloc.Asset.IsNative() {
			continue
		}
		slice := domain.Amount{Decimal: domain.ApplyBasisPoints(amount.Decimal, alloc.Weight)}
		if slice.IsZero() {
			continue
		}
		got, err := f.swapChecked(ctx, &j, native, alloc.Asset, slice, prices)
		if err != nil {
			return abort(err)
		}
		acquired[alloc.Asset.ID] = acquired[alloc.Asset.ID].Add(got)
		spent = spent.Add(slice)
	}
	// base-asset weight plus truncation dust
	if rest := amount.Sub(spent); rest.IsPositive() {
		acquired[native.ID] = acquired[native.ID].Add(rest)
	}

	depositValue, err := f.accountant.ValueOf(acquired, prices)
	if err != nil {
		return abort(fmt.Errorf("valuing deposit: %w", err))
	}
	minted, err := f.ledger.Mint(depositor, depositValue, valueBefore)
	if err != nil {
		return abort(err)
	}

	for id, amt := range acquired {
		f.holdings[id] = f.holdings[id].Add(amt)
	}

	return domain.BuyReceipt{
		FundID:          f.info.ID,
		Depositor:       depositor,
		Deposit:         amount,
		Acquired:        acquired,
		DepositValue:    depositValue,
		FundValueBefore: valueBefore,
		Shares:          minted,
	}, nil
}

// Sell burns shares from holder, converts the proportional slice of every holding into the base
// asset and pays it out less the redemption fee.
func (f *Fund) Sell(ctx context.Context, holder string, shares domain.Shares) (domain.SellReceipt, error) {
	receipt, err := f.sell(ctx, holder, shares)
	if err != nil {
		return domain.SellReceipt{}, err
	}
	slog.Info("fund sell committed",
		"fund", f.info.Ticker, "holder", holder, "shares", shares, "proceeds", receipt.Proceeds)
	f.record(ctx, domain.Activity{
		FundID:  f.info.ID,
		Kind:    domain.ActivitySell,
		Account: holder,
		Amount:  receipt.Proceeds,
		Shares:  shares,
		Fee:     receipt.Fee,
	})
	return receipt, nil
}

func (f *Fund) sell(ctx context.Context, holder string, shares domain.Shares) (domain.SellReceipt, error) {
	if !shares.IsPositive() {
		return domain.SellReceipt{}, domain.ErrZeroAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prices, err := f.snapshotPrices(ctx, nil)
	if err != nil {
		return domain.SellReceipt{}, err
	}

	frac, err := f.ledger.Burn(holder, shares)
	if err != nil {
		return domain.SellReceipt{}, err
	}

	native := f.catalog.Native()
	withdrawn := make(basket.Holdings)
	for _, id := range f.holdings.AssetIDs() {
		if w := frac.Apply(f.holdings[id]); w.IsPositive() {
			withdrawn[id] = w
		}
	}

	var j journal
	abort := func(cause error) (domain.SellReceipt, error) {
		j.unwind(ctx, f.router, f.info.Ticker)
		f.ledger.Restore(holder, shares)
		return domain.SellReceipt{}, cause
	}

	proceeds := withdrawn.Get(native.ID)
	for _, id := range withdrawn.AssetIDs() {
		if id == native.ID {
			continue
		}
		asset, err := f.catalog.Lookup(id)
		if err != nil {
			return abort(err)
		}
		got, err := f.swapChecked(ctx, &j, asset, native, withdrawn[id], prices)
		if err != nil {
			return abort(err)
		}
		proceeds = proceeds.Add(got)
	}

	fee := domain.Amount{Decimal: domain.ApplyBasisPoints(proceeds.Decimal, f.opts.RedemptionFee)}
	payout := proceeds.Sub(fee)
	if !payout.IsPositive() {
		return abort(fmt.Errorf("redeeming %s shares yields nothing: %w", shares, domain.ErrZeroAmount))
	}
	if err := f.custody.Pay(ctx, holder, payout); err != nil {
		return abort(fmt.Errorf("paying proceeds: %w", err))
	}

	for id, w := range withdrawn {
		f.holdings[id] = f.holdings[id].Sub(w)
	}
	if fee.IsPositive() {
		f.holdings[native.ID] = f.holdings[native.ID].Add(fee)
	}
	f.pruneHoldings()

	return domain.SellReceipt{
		FundID:    f.info.ID,
		Holder:    holder,
		Shares:    shares,
		Withdrawn: withdrawn,
		Fee:       fee,
		Proceeds:  payout,
	}, nil
}

// Rebalance replaces the fund's weights and trades the holdings toward them: all disposals into the
// base asset first, then acquisitions funded from the base balance. Weights change only if every
// trade succeeds.
func (f *Fund) Rebalance(ctx context.Context, caller string, assetIDs []string, weights []domain.BasisPoints) (domain.RebalanceReport, error) {
	report, err := f.rebalance(ctx, caller, assetIDs, weights)
	if err != nil {
		return domain.RebalanceReport{}, err
	}
	slog.Info("fund rebalance committed",
		"fund", f.info.Ticker, "caller", caller, "assets", assetIDs, "weights", weights)
	f.record(ctx, domain.Activity{
		FundID:      f.info.ID,
		Kind:        domain.ActivityRebalance,
		Account:     caller,
		Allocations: report.After,
	})
	return report, nil
}

func (f *Fund) rebalance(ctx context.Context, caller string, assetIDs []string, weights []domain.BasisPoints) (domain.RebalanceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isController(caller) {
		return domain.RebalanceReport{}, fmt.Errorf("%s on %s: %w", caller, f.info.Ticker, domain.ErrUnauthorized)
	}
	allocs, err := domain.NewAllocations(f.catalog, assetIDs, weights)
	if err != nil {
		return domain.RebalanceReport{}, err
	}

	prices, err := f.snapshotPrices(ctx, allocs)
	if err != nil {
		return domain.RebalanceReport{}, err
	}
	total, err := f.accountant.ValueOf(f.holdings, prices)
	if err != nil {
		return domain.RebalanceReport{}, fmt.Errorf("valuing fund: %w", err)
	}
	targets, err := f.accountant.TargetAmounts(allocs, total, prices)
	if err != nil {
		return domain.RebalanceReport{}, err
	}
	deltas := basket.Deltas(f.holdings, targets)

	native := f.catalog.Native()
	staged := f.holdings.Clone()
	sold := make(map[string]domain.Amount)
	bought := make(map[string]domain.Amount)
	var j journal

	abort := func(cause error) (domain.RebalanceReport, error) {
		j.unwind(ctx, f.router, f.info.Ticker)
		return domain.RebalanceReport{}, cause
	}

	disposals := lo.Filter(lo.Keys(deltas), func(id string, _ int) bool {
		return id != native.ID && deltas[id].IsNegative()
	})
	sort.Strings(disposals)
	for _, id := range disposals {
		asset, err := f.catalog.Lookup(id)
		if err != nil {
			return abort(err)
		}
		amt := domain.Amount{Decimal: deltas[id].Neg()}
		got, err := f.swapChecked(ctx, &j, asset, native, amt, prices)
		if err != nil {
			return abort(err)
		}
		staged[id] = staged[id].Sub(amt)
		staged[native.ID] = staged[native.ID].Add(got)
		sold[id] = amt
	}

	for _, alloc := range allocs {
		id := alloc.Asset.ID
		delta, ok := deltas[id]
		if !ok || id == native.ID || !delta.IsPositive() {
			continue
		}
		cost, err := domain.AmountFor(domain.ValueOf(delta, alloc.Asset, prices[id]), native, prices[native.ID])
		if err != nil {
			return abort(err)
		}
		cost = cost.Min(staged.Get(native.ID))
		if cost.IsZero() {
			continue
		}
		got, err := f.swapChecked(ctx, &j, native, alloc.Asset, cost, prices)
		if err != nil {
			return abort(err)
		}
		staged[native.ID] = staged[native.ID].Sub(cost)
		staged[id] = staged[id].Add(got)
		bought[id] = got
	}

	valueAfter, err := f.accountant.ValueOf(staged, prices)
	if err != nil {
		return abort(fmt.Errorf("valuing rebalanced fund: %w", err))
	}

	before := f.info.Allocations
	f.holdings = staged
	f.info.Allocations = allocs
	f.pruneHoldings()

	return domain.RebalanceReport{
		FundID:     f.info.ID,
		Before:     before,
		After:      allocs,
		Sold:       sold,
		Bought:     bought,
		ValueAfter: valueAfter,
	}, nil
}

// snapshotPrices prices the base asset, everything held, and the given allocation in one pass.
func (f *Fund) snapshotPrices(ctx context.Context, allocs []domain.Allocation) (oracle.PriceSet, error) {
	ids := lo.Union(
		[]string{domain.NativeAssetID},
		f.holdings.AssetIDs(),
		domain.AllocationAssetIDs(allocs),
	)
	prices, err := oracle.Snapshot(ctx, f.oracle, ids)
	if err != nil {
		return nil, fmt.Errorf("pricing basket: %w", err)
	}
	return prices, nil
}

func (f *Fund) isController(caller string) bool {
	return caller != "" && (caller == f.info.Creator || caller == f.opts.Owner)
}

func (f *Fund) pruneHoldings() {
	for id, amt := range f.holdings {
		if amt.IsZero() {
			delete(f.holdings, id)
		}
	}
}

func (f *Fund) record(ctx context.Context, a domain.Activity) {
	if f.opts.Observer == nil {
		return
	}
	a.At = f.opts.Now()
	f.opts.Observer.Record(ctx, a)
}
