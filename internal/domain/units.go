package domain

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// PriceDecimals is the fixed precision of oracle prices (USD per whole unit).
	PriceDecimals = 8
	// ValueDecimals is the fixed precision of USD values.
	ValueDecimals = 18
	// ShareDecimals is the fixed precision of fund shares.
	ShareDecimals = 18
	// MaxBasisPoints is 100% expressed in basis points.
	MaxBasisPoints = 10000
)

// BasisPoints is a weight or rate where 10000 is 100%.
type BasisPoints int

// Amount is an integer count of an asset's base units.
type Amount struct{ decimal.Decimal }

// Price is a USD price per whole asset unit scaled by 10^8.
type Price struct{ decimal.Decimal }

// Value is a USD amount scaled by 10^18.
type Value struct{ decimal.Decimal }

// Shares is a fund share quantity scaled by 10^18.
type Shares struct{ decimal.Decimal }

// NewAmount returns an amount of n base units.
func NewAmount(n int64) Amount { return Amount{decimal.NewFromInt(n)} }

// AmountFromDecimal wraps d, truncating any fractional part.
func AmountFromDecimal(d decimal.Decimal) Amount { return Amount{d.Truncate(0)} }

// ParseAmount parses a non-negative integer base-unit amount.
func ParseAmount(s string) (Amount, error) {
	d, err := parseIntegral(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount: %w", err)
	}
	return Amount{d}, nil
}

// WholeUnits converts a human quantity (e.g. "1.5") into base units of asset, truncated.
func WholeUnits(s string, asset Asset) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing quantity %q: %w", s, err)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("negative quantity %q", s)
	}
	return Amount{d.Shift(asset.Decimals).Truncate(0)}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{a.Decimal.Add(b.Decimal)} }
func (a Amount) Sub(b Amount) Amount { return Amount{a.Decimal.Sub(b.Decimal)} }
func (a Amount) Cmp(b Amount) int    { return a.Decimal.Cmp(b.Decimal) }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// NewPrice returns a price from an already-scaled integer (4_00000000 is $4).
func NewPrice(scaled int64) Price { return Price{decimal.NewFromInt(scaled)} }

// PriceFromUSD converts a decimal USD quote into a fixed-point price, truncating past 8 decimals.
func PriceFromUSD(usd decimal.Decimal) Price {
	return Price{usd.Shift(PriceDecimals).Truncate(0)}
}

// ParsePrice parses a decimal USD string such as "4" or "25000.5".
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parsing price %q: %w", s, err)
	}
	if !d.IsPositive() {
		return Price{}, fmt.Errorf("price %q must be positive", s)
	}
	return PriceFromUSD(d), nil
}

// USD returns the price as a plain decimal USD amount.
func (p Price) USD() decimal.Decimal { return p.Decimal.Shift(-PriceDecimals) }

func (v Value) Add(b Value) Value { return Value{v.Decimal.Add(b.Decimal)} }
func (v Value) Sub(b Value) Value { return Value{v.Decimal.Sub(b.Decimal)} }
func (v Value) Cmp(b Value) int   { return v.Decimal.Cmp(b.Decimal) }

// USD returns the value as a plain decimal USD amount.
func (v Value) USD() decimal.Decimal { return v.Decimal.Shift(-ValueDecimals) }

// Display formats the value as US dollars, truncated to cents.
func (v Value) Display() string {
	cents := v.Decimal.Shift(2 - ValueDecimals).IntPart()
	return money.New(cents, money.USD).Display()
}

// ParseShares parses a non-negative integer share quantity in 18-decimal units.
func ParseShares(s string) (Shares, error) {
	d, err := parseIntegral(s)
	if err != nil {
		return Shares{}, fmt.Errorf("parsing shares: %w", err)
	}
	return Shares{d}, nil
}

func (s Shares) Add(b Shares) Shares { return Shares{s.Decimal.Add(b.Decimal)} }
func (s Shares) Sub(b Shares) Shares { return Shares{s.Decimal.Sub(b.Decimal)} }
func (s Shares) Cmp(b Shares) int    { return s.Decimal.Cmp(b.Decimal) }

func parseIntegral(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q is negative", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%q is not an integer", s)
	}
	return d, nil
}
