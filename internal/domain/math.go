package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// pow10 returns 10^n as a decimal.
func pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// MulDiv returns a*b/c truncated toward zero to an integer. c must not be zero.
func MulDiv(a, b, c decimal.Decimal) decimal.Decimal {
	q, _ := a.Mul(b).QuoRem(c, 0)
	return q
}

// ValueOf converts an amount of asset base units into an 18-decimal USD value:
// amount * price * 10^18 / (10^decimals * 10^8), truncated.
func ValueOf(amount Amount, asset Asset, price Price) Value {
	if amount.IsZero() || price.IsZero() {
		return Value{}
	}
	return Value{MulDiv(
		amount.Decimal,
		price.Decimal.Mul(pow10(ValueDecimals)),
		pow10(asset.Decimals+PriceDecimals),
	)}
}

// AmountFor converts an 18-decimal USD value into base units of the asset at the given price, truncated.
func AmountFor(value Value, asset Asset, price Price) (Amount, error) {
	if !price.IsPositive() {
		return Amount{}, fmt.Errorf("%s: non-positive price: %w", asset.ID, ErrPriceUnavailable)
	}
	if value.IsZero() {
		return Amount{}, nil
	}
	return Amount{MulDiv(
		value.Decimal,
		pow10(asset.Decimals+PriceDecimals),
		price.Decimal.Mul(pow10(ValueDecimals)),
	)}, nil
}

// ApplyBasisPoints returns d*bps/10000, truncated.
func ApplyBasisPoints(d decimal.Decimal, bps BasisPoints) decimal.Decimal {
	return MulDiv(d, decimal.NewFromInt(int64(bps)), decimal.NewFromInt(MaxBasisPoints))
}
