// Package basket values fund holdings and derives the per-asset trades needed to reach target weights.
package basket

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/oracle"
)

// Holdings maps asset ID to the amount a fund holds.
type Holdings map[string]domain.Amount

// Get returns the held amount of assetID, zero if absent.
func (h Holdings) Get(assetID string) domain.Amount {
	return h[assetID]
}

// Clone returns an independent copy.
func (h Holdings) Clone() Holdings {
	c := make(Holdings, len(h))
	for id, amt := range h {
		c[id] = amt
	}
	return c
}

// AssetIDs returns the IDs of all non-zero holdings in sorted order.
func (h Holdings) AssetIDs() []string {
	ids := lo.Keys(lo.PickBy(h, func(_ string, amt domain.Amount) bool { return !amt.IsZero() }))
	sort.Strings(ids)
	return ids
}

// Accountant performs basket valuation against a fixed set of prices.
// It holds no state besides the asset catalog.
type Accountant struct {
	catalog *domain.Catalog
}

// NewAccountant creates an Accountant.
func NewAccountant(catalog *domain.Catalog) *Accountant {
	if catalog == nil {
		panic("basket.NewAccountant: catalog must not be nil")
	}
	return &Accountant{catalog: catalog}
}

// ValueOf returns the total USD value of holdings. Zero holdings need no price.
func (a *Accountant) ValueOf(holdings Holdings, prices oracle.PriceSet) (domain.Value, error) {
	total := domain.Value{}
	for _, id := range holdings.AssetIDs() {
		v, err := a.valueOfAsset(id, holdings[id], prices)
		if err != nil {
			return domain.Value{}, err
		}
		total = total.Add(v)
	}
	return total, nil
}

// TargetAmounts returns the amount of each allocated asset worth total*weight/10000 at the given prices.
// Both steps truncate, so the targets never exceed total in value.
func (a *Accountant) TargetAmounts(allocs []domain.Allocation, total domain.Value, prices oracle.PriceSet) (map[string]domain.Amount, error) {
	targets := make(map[string]domain.Amount, len(allocs))
	for _, alloc := range allocs {
		price, err := prices.Price(alloc.Asset.ID)
		if err != nil {
			return nil, err
		}
		share := domain.Value{Decimal: domain.ApplyBasisPoints(total.Decimal, alloc.Weight)}
		amt, err := domain.AmountFor(share, alloc.Asset, price)
		if err != nil {
			return nil, fmt.Errorf("target for %s: %w", alloc.Asset.ID, err)
		}
		targets[alloc.Asset.ID] = amt
	}
	return targets, nil
}

// Deltas returns target minus held for every asset in either map. Positive entries are acquisitions,
// negative entries disposals. Assets held but absent from targets have a target of zero.
// Zero deltas are omitted.
func Deltas(holdings Holdings, targets map[string]domain.Amount) map[string]domain.Amount {
	ids := lo.Union(lo.Keys(holdings), lo.Keys(targets))
	deltas := make(map[string]domain.Amount, len(ids))
	for _, id := range ids {
		d := targets[id].Sub(holdings[id])
		if !d.IsZero() {
			deltas[id] = d
		}
	}
	return deltas
}

// Snapshot values every non-zero holding and returns the snapshot stamped with now.
func (a *Accountant) Snapshot(fundID string, holdings Holdings, prices oracle.PriceSet, supply domain.Shares, now time.Time) (domain.BasketSnapshot, error) {
	snap := domain.BasketSnapshot{
		FundID:      fundID,
		TotalSupply: supply,
		TakenAt:     now,
	}
	for _, id := range holdings.AssetIDs() {
		asset, err := a.catalog.Lookup(id)
		if err != nil {
			return domain.BasketSnapshot{}, err
		}
		price, err := prices.Price(id)
		if err != nil {
			return domain.BasketSnapshot{}, err
		}
		v := domain.ValueOf(holdings[id], asset, price)
		snap.Holdings = append(snap.Holdings, domain.Holding{
			Asset:  asset,
			Amount: holdings[id],
			Price:  price,
			Value:  v,
		})
		snap.TotalValue = snap.TotalValue.Add(v)
	}
	return snap, nil
}

// Composition compares target weights with the current value split. Held assets outside the allocation
// are listed with a zero target weight.
func (a *Accountant) Composition(fundID string, allocs []domain.Allocation, holdings Holdings, prices oracle.PriceSet) (domain.Composition, error) {
	total, err := a.ValueOf(holdings, prices)
	if err != nil {
		return domain.Composition{}, err
	}

	targets := lo.SliceToMap(allocs, func(al domain.Allocation) (string, domain.BasisPoints) {
		return al.Asset.ID, al.Weight
	})
	ids := domain.AllocationAssetIDs(allocs)
	ids = append(ids, lo.Without(holdings.AssetIDs(), ids...)...)

	comp := domain.Composition{FundID: fundID, TotalValue: total, Display: total.Display()}
	for _, id := range ids {
		asset, err := a.catalog.Lookup(id)
		if err != nil {
			return domain.Composition{}, err
		}
		entry := domain.CompositionEntry{
			Asset:        asset,
			TargetWeight: targets[id],
			Amount:       holdings[id],
		}
		if !entry.Amount.IsZero() {
			v, err := a.valueOfAsset(id, entry.Amount, prices)
			if err != nil {
				return domain.Composition{}, err
			}
			entry.Value = v
			if total.IsPositive() {
				bps := domain.MulDiv(v.Decimal, decimal.NewFromInt(domain.MaxBasisPoints), total.Decimal)
				entry.ActualWeight = domain.BasisPoints(bps.IntPart())
			}
		}
		comp.Entries = append(comp.Entries, entry)
	}
	return comp, nil
}

func (a *Accountant) valueOfAsset(id string, amount domain.Amount, prices oracle.PriceSet) (domain.Value, error) {
	asset, err := a.catalog.Lookup(id)
	if err != nil {
		return domain.Value{}, err
	}
	price, err := prices.Price(id)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.ValueOf(amount, asset, price), nil
}
