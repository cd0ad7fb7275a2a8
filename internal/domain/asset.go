package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// NativeAssetID identifies the base asset that deposits and redemptions are denominated in.
const NativeAssetID = "native"

// NativeDecimals is the precision of the base asset.
const NativeDecimals = 18

// maxAssetDecimals bounds the precision of a single asset.
const maxAssetDecimals = 36

// Asset describes an asset a fund can hold.
type Asset struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Decimals    int32  `json:"decimals"`
	CoinGeckoID string `json:"coingeckoId,omitempty"`
}

// IsNative returns true if this asset is the base asset.
func (a Asset) IsNative() bool {
	return a.ID == NativeAssetID
}

// String returns the symbol if set, otherwise the ID.
func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.ID
}

// NativeAsset returns the default base asset description.
func NativeAsset() Asset {
	return Asset{ID: NativeAssetID, Symbol: "NATIVE", Decimals: NativeDecimals}
}

// Catalog is the set of assets known to the engine, keyed by ID.
// The base asset is always present.
type Catalog struct {
	assets map[string]Asset
	order  []string
}

// NewCatalog builds a catalog. A base asset entry in the input overrides the default one.
func NewCatalog(assets ...Asset) (*Catalog, error) {
	c := &Catalog{assets: make(map[string]Asset, len(assets)+1)}
	c.assets[NativeAssetID] = NativeAsset()
	c.order = append(c.order, NativeAssetID)

	for _, a := range assets {
		if a.ID == "" {
			return nil, fmt.Errorf("asset with empty id")
		}
		if a.Decimals < 0 || a.Decimals > maxAssetDecimals {
			return nil, fmt.Errorf("asset %s: decimals %d out of range", a.ID, a.Decimals)
		}
		if a.IsNative() {
			c.assets[NativeAssetID] = a
			continue
		}
		if _, ok := c.assets[a.ID]; ok {
			return nil, fmt.Errorf("asset %s: %w", a.ID, ErrDuplicateAsset)
		}
		c.assets[a.ID] = a
		c.order = append(c.order, a.ID)
	}
	return c, nil
}

// ParseCatalog parses a comma-separated list of "id:symbol:decimals[:coingeckoID]" entries.
func ParseCatalog(spec string) (*Catalog, error) {
	var assets []Asset
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid asset entry %q, expected id:symbol:decimals[:coingeckoID]", entry)
		}
		dec, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid decimals in asset entry %q: %w", entry, err)
		}
		a := Asset{ID: parts[0], Symbol: parts[1], Decimals: int32(dec)}
		if len(parts) == 4 {
			a.CoinGeckoID = parts[3]
		}
		assets = append(assets, a)
	}
	return NewCatalog(assets...)
}

// Lookup returns the asset with the given ID.
func (c *Catalog) Lookup(id string) (Asset, error) {
	a, ok := c.assets[id]
	if !ok {
		return Asset{}, fmt.Errorf("%s: %w", id, ErrUnknownAsset)
	}
	return a, nil
}

// Native returns the base asset.
func (c *Catalog) Native() Asset {
	return c.assets[NativeAssetID]
}

// All returns every asset in registration order, base asset first.
func (c *Catalog) All() []Asset {
	return lo.Map(c.order, func(id string, _ int) Asset { return c.assets[id] })
}

// Priced returns assets that carry a CoinGecko id.
func (c *Catalog) Priced() []Asset {
	return lo.Filter(c.All(), func(a Asset, _ int) bool { return a.CoinGeckoID != "" })
}
