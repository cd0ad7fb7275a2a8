package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/oracle"
)

func e18(n int64) domain.Amount {
	return domain.Amount{Decimal: decimal.New(n, 18)}
}

func newTestRouter(t *testing.T, feeBps domain.BasisPoints) *OracleRouter {
	t.Helper()
	catalog, err := domain.NewCatalog(
		domain.Asset{ID: "joe", Symbol: "JOE", Decimals: 18},
		domain.Asset{ID: "usdc", Symbol: "USDC", Decimals: 6},
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	o := oracle.NewMemory(map[string]domain.Price{
		"native": domain.NewPrice(30_00000000),
		"joe":    domain.NewPrice(4_00000000),
		"usdc":   domain.NewPrice(1_00000000),
	})
	return NewOracleRouter(catalog, o, feeBps)
}

func TestOracleRouterSwap(t *testing.T) {
	tests := []struct {
		name   string
		feeBps domain.BasisPoints
		in     string
		out    string
		amount domain.Amount
		want   domain.Amount
	}{
		{"native to joe without fee", 0, "native", "joe", e18(4), e18(30)},
		{"joe to native without fee", 0, "joe", "native", e18(30), e18(4)},
		{"native to usdc", 0, "native", "usdc", e18(1), domain.NewAmount(30_000_000)},
		{"one percent fee", 100, "native", "usdc", e18(1), domain.NewAmount(29_700_000)},
		{"same asset passes through", 100, "joe", "joe", e18(7), e18(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.feeBps)
			got, err := r.Swap(context.Background(), tt.in, tt.out, tt.amount)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cmp(tt.want) != 0 {
				t.Errorf("Swap = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOracleRouterLiquidity(t *testing.T) {
	r := newTestRouter(t, 0)
	r.SetLiquidity("joe", e18(40))

	if _, err := r.Swap(context.Background(), "native", "joe", e18(4)); err != nil {
		t.Fatalf("first swap: %v", err)
	}
	_, err := r.Swap(context.Background(), "native", "joe", e18(4))
	if !errors.Is(err, domain.ErrSwapFailed) {
		t.Fatalf("second swap error = %v, want ErrSwapFailed", err)
	}

	// selling joe back replenishes the pool
	if _, err := r.Swap(context.Background(), "joe", "native", e18(30)); err != nil {
		t.Fatalf("reverse swap: %v", err)
	}
	if _, err := r.Swap(context.Background(), "native", "joe", e18(4)); err != nil {
		t.Fatalf("swap after replenish: %v", err)
	}
}

func TestOracleRouterErrors(t *testing.T) {
	r := newTestRouter(t, 0)

	if _, err := r.Swap(context.Background(), "native", "joe", domain.Amount{}); !errors.Is(err, domain.ErrZeroAmount) {
		t.Errorf("zero amount error = %v, want ErrZeroAmount", err)
	}
	if _, err := r.Swap(context.Background(), "native", "btc", e18(1)); !errors.Is(err, domain.ErrUnknownAsset) {
		t.Errorf("unknown asset error = %v, want ErrUnknownAsset", err)
	}
	// 1 wei of native is worth less than one usdc base unit
	if _, err := r.Swap(context.Background(), "native", "usdc", domain.NewAmount(1)); !errors.Is(err, domain.ErrSwapFailed) {
		t.Errorf("dust swap error = %v, want ErrSwapFailed", err)
	}
}
