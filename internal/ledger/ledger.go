// Package ledger tracks fund share ownership.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
)

// Fraction is an exact rational share of a fund, Num/Den.
type Fraction struct {
	Num decimal.Decimal
	Den decimal.Decimal
}

// Apply returns amount*Num/Den, truncated.
func (f Fraction) Apply(amount domain.Amount) domain.Amount {
	if f.Den.IsZero() || amount.IsZero() {
		return domain.Amount{}
	}
	return domain.Amount{Decimal: domain.MulDiv(amount.Decimal, f.Num, f.Den)}
}

// IsWhole reports whether the fraction is 1.
func (f Fraction) IsWhole() bool {
	return !f.Den.IsZero() && f.Num.Equal(f.Den)
}

// Ledger holds share balances for one fund. Total supply always equals the sum of balances.
type Ledger struct {
	mu       sync.RWMutex
	supply   domain.Shares
	balances map[string]domain.Shares
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[string]domain.Shares)}
}

// Mint credits holder with shares for a deposit worth depositValue into a fund worth fundValueBefore.
// The first deposit mints one share unit per value unit; later deposits mint
// depositValue*supply/fundValueBefore, truncated.
func (l *Ledger) Mint(holder string, depositValue, fundValueBefore domain.Value) (domain.Shares, error) {
	if !depositValue.IsPositive() {
		return domain.Shares{}, domain.ErrZeroValueDeposit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var minted domain.Shares
	if l.supply.IsZero() {
		minted = domain.Shares{Decimal: depositValue.Decimal}
	} else {
		if !fundValueBefore.IsPositive() {
			return domain.Shares{}, fmt.Errorf("fund with %s shares outstanding has no value: %w", l.supply, domain.ErrZeroValueDeposit)
		}
		minted = domain.Shares{Decimal: domain.MulDiv(depositValue.Decimal, l.supply.Decimal, fundValueBefore.Decimal)}
	}
	if !minted.IsPositive() {
		return domain.Shares{}, fmt.Errorf("deposit of %s mints no shares: %w", depositValue, domain.ErrZeroValueDeposit)
	}

	l.supply = l.supply.Add(minted)
	l.balances[holder] = l.balances[holder].Add(minted)
	return minted, nil
}

// Burn removes shares from holder and returns shares/supplyBefore.
// On ErrInsufficientShares nothing changes.
func (l *Ledger) Burn(holder string, shares domain.Shares) (Fraction, error) {
	if !shares.IsPositive() {
		return Fraction{}, domain.ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balances[holder]
	if bal.Cmp(shares) < 0 {
		return Fraction{}, fmt.Errorf("%s holds %s, wants %s: %w", holder, bal, shares, domain.ErrInsufficientShares)
	}

	frac := Fraction{Num: shares.Decimal, Den: l.supply.Decimal}
	l.supply = l.supply.Sub(shares)
	if remaining := bal.Sub(shares); remaining.IsZero() {
		delete(l.balances, holder)
	} else {
		l.balances[holder] = remaining
	}
	return frac, nil
}

// Restore re-credits shares burned by an operation that failed afterwards.
func (l *Ledger) Restore(holder string, shares domain.Shares) {
	if !shares.IsPositive() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.supply = l.supply.Add(shares)
	l.balances[holder] = l.balances[holder].Add(shares)
}

// BalanceOf returns holder's shares.
func (l *Ledger) BalanceOf(holder string) domain.Shares {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[holder]
}

// TotalSupply returns the number of shares outstanding.
func (l *Ledger) TotalSupply() domain.Shares {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply
}

// Holders returns every account with a positive balance, sorted.
func (l *Ledger) Holders() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	holders := lo.Keys(l.balances)
	sort.Strings(holders)
	return holders
}
