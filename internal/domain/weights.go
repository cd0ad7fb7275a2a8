package domain

import (
	"fmt"

	"github.com/samber/lo"
)

// Allocation is one asset of a basket and its target weight.
type Allocation struct {
	Asset  Asset       `json:"asset"`
	Weight BasisPoints `json:"weight"`
}

// ValidateWeights reports whether every weight is within [0, 10000] and the weights sum to exactly 10000.
func ValidateWeights(weights []BasisPoints) bool {
	if lo.SomeBy(weights, func(w BasisPoints) bool { return w < 0 || w > MaxBasisPoints }) {
		return false
	}
	return lo.Sum(weights) == MaxBasisPoints
}

// EqualWeights splits 10000 basis points across n assets. The truncation remainder is handed out
// one point at a time starting from the first asset, so the result always sums to 10000.
func EqualWeights(n int) []BasisPoints {
	if n <= 0 {
		return nil
	}
	base := BasisPoints(MaxBasisPoints / n)
	rem := MaxBasisPoints % n
	return lo.Times(n, func(i int) BasisPoints {
		if i < rem {
			return base + 1
		}
		return base
	})
}

// NewAllocations validates a basket definition and resolves its assets against the catalog.
func NewAllocations(catalog *Catalog, assetIDs []string, weights []BasisPoints) ([]Allocation, error) {
	if len(assetIDs) == 0 && len(weights) == 0 {
		return nil, ErrEmptyBasket
	}
	if len(assetIDs) != len(weights) {
		return nil, fmt.Errorf("%d assets, %d weights: %w", len(assetIDs), len(weights), ErrLengthMismatch)
	}
	if dups := lo.FindDuplicates(assetIDs); len(dups) > 0 {
		return nil, fmt.Errorf("%v: %w", dups, ErrDuplicateAsset)
	}
	if !ValidateWeights(weights) {
		return nil, fmt.Errorf("weights sum to %d: %w", lo.Sum(weights), ErrInvalidWeights)
	}

	allocs := make([]Allocation, 0, len(assetIDs))
	for i, id := range assetIDs {
		asset, err := catalog.Lookup(id)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, Allocation{Asset: asset, Weight: weights[i]})
	}
	return allocs, nil
}

// AllocationWeights returns the weights of allocs in order.
func AllocationWeights(allocs []Allocation) []BasisPoints {
	return lo.Map(allocs, func(a Allocation, _ int) BasisPoints { return a.Weight })
}

// AllocationAssetIDs returns the asset IDs of allocs in order.
func AllocationAssetIDs(allocs []Allocation) []string {
	return lo.Map(allocs, func(a Allocation, _ int) string { return a.Asset.ID })
}
