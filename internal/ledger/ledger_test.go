package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
)

func usd(n int64) domain.Value {
	return domain.Value{Decimal: decimal.New(n, domain.ValueDecimals)}
}

func shares(n int64) domain.Shares {
	return domain.Shares{Decimal: decimal.New(n, domain.ShareDecimals)}
}

func sumBalances(l *Ledger) domain.Shares {
	total := domain.Shares{}
	for _, h := range l.Holders() {
		total = total.Add(l.BalanceOf(h))
	}
	return total
}

func TestMintSeedRate(t *testing.T) {
	l := New()

	got, err := l.Mint("alice", usd(300), domain.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(shares(300)) != 0 {
		t.Errorf("minted = %s, want 300e18", got)
	}
	if l.TotalSupply().Cmp(shares(300)) != 0 {
		t.Errorf("supply = %s, want 300e18", l.TotalSupply())
	}
}

func TestMintProportional(t *testing.T) {
	l := New()
	if _, err := l.Mint("alice", usd(100), domain.Value{}); err != nil {
		t.Fatalf("seed mint: %v", err)
	}

	// fund doubled in value: new money buys half as many shares per dollar
	got, err := l.Mint("bob", usd(100), usd(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(shares(50)) != 0 {
		t.Errorf("minted = %s, want 50e18", got)
	}
	if l.BalanceOf("alice").Cmp(shares(100)) != 0 {
		t.Errorf("alice balance changed to %s", l.BalanceOf("alice"))
	}
	if sumBalances(l).Cmp(l.TotalSupply()) != 0 {
		t.Errorf("sum of balances %s != supply %s", sumBalances(l), l.TotalSupply())
	}
}

func TestMintZeroValue(t *testing.T) {
	tests := []struct {
		name    string
		seed    bool
		deposit domain.Value
		before  domain.Value
	}{
		{"zero deposit", false, domain.Value{}, domain.Value{}},
		{"rounds to zero shares", true, domain.Value{Decimal: decimal.NewFromInt(1)}, usd(1_000_000_000_000)},
		{"worthless fund with supply", true, usd(1), domain.Value{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			if tt.seed {
				if _, err := l.Mint("alice", domain.Value{Decimal: decimal.NewFromInt(1)}, domain.Value{}); err != nil {
					t.Fatalf("seed mint: %v", err)
				}
			}
			supply := l.TotalSupply()

			_, err := l.Mint("bob", tt.deposit, tt.before)
			if !errors.Is(err, domain.ErrZeroValueDeposit) {
				t.Fatalf("error = %v, want ErrZeroValueDeposit", err)
			}
			if l.TotalSupply().Cmp(supply) != 0 {
				t.Errorf("supply changed from %s to %s", supply, l.TotalSupply())
			}
		})
	}
}

func TestBurn(t *testing.T) {
	l := New()
	if _, err := l.Mint("alice", usd(300), domain.Value{}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := l.Mint("bob", usd(100), usd(300)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	frac, err := l.Burn("alice", shares(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !frac.Num.Equal(shares(100).Decimal) || !frac.Den.Equal(shares(400).Decimal) {
		t.Errorf("fraction = %s/%s, want 100e18/400e18", frac.Num, frac.Den)
	}
	if got := frac.Apply(domain.NewAmount(1000)); got.Cmp(domain.NewAmount(250)) != 0 {
		t.Errorf("Apply(1000) = %s, want 250", got)
	}
	if l.TotalSupply().Cmp(shares(300)) != 0 {
		t.Errorf("supply = %s, want 300e18", l.TotalSupply())
	}
	if sumBalances(l).Cmp(l.TotalSupply()) != 0 {
		t.Errorf("sum of balances %s != supply %s", sumBalances(l), l.TotalSupply())
	}
}

func TestBurnAllRemovesHolder(t *testing.T) {
	l := New()
	minted, _ := l.Mint("alice", usd(5), domain.Value{})

	frac, err := l.Burn("alice", minted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !frac.IsWhole() {
		t.Errorf("fraction = %s/%s, want whole", frac.Num, frac.Den)
	}
	if len(l.Holders()) != 0 {
		t.Errorf("holders = %v, want none", l.Holders())
	}
	if !l.TotalSupply().IsZero() {
		t.Errorf("supply = %s, want 0", l.TotalSupply())
	}
}

func TestBurnInsufficientShares(t *testing.T) {
	l := New()
	minted, _ := l.Mint("alice", usd(5), domain.Value{})

	_, err := l.Burn("alice", minted.Add(domain.Shares{Decimal: decimal.NewFromInt(1)}))
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Fatalf("error = %v, want ErrInsufficientShares", err)
	}
	if l.BalanceOf("alice").Cmp(minted) != 0 {
		t.Errorf("balance = %s, want %s", l.BalanceOf("alice"), minted)
	}
	if l.TotalSupply().Cmp(minted) != 0 {
		t.Errorf("supply = %s, want %s", l.TotalSupply(), minted)
	}

	if _, err := l.Burn("nobody", shares(1)); !errors.Is(err, domain.ErrInsufficientShares) {
		t.Errorf("unknown holder error = %v, want ErrInsufficientShares", err)
	}
}

func TestRestore(t *testing.T) {
	l := New()
	minted, _ := l.Mint("alice", usd(5), domain.Value{})

	if _, err := l.Burn("alice", minted); err != nil {
		t.Fatalf("burn: %v", err)
	}
	l.Restore("alice", minted)

	if l.BalanceOf("alice").Cmp(minted) != 0 {
		t.Errorf("balance = %s, want %s", l.BalanceOf("alice"), minted)
	}
	if l.TotalSupply().Cmp(minted) != 0 {
		t.Errorf("supply = %s, want %s", l.TotalSupply(), minted)
	}
}
