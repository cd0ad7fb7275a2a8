package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return d
}

func TestValueOf(t *testing.T) {
	native := NativeAsset()
	usdc := Asset{ID: "usdc", Symbol: "USDC", Decimals: 6}

	tests := []struct {
		name   string
		amount string
		asset  Asset
		price  string
		want   string
	}{
		{"ten native at $30", "10000000000000000000", native, "30", "300000000000000000000"},
		{"one usdc at $1", "1000000", usdc, "1", "1000000000000000000"},
		{"zero amount", "0", native, "30", "0"},
		{"truncates sub-unit value", "1", Asset{ID: "x", Decimals: 30}, "0.00000001", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := ParsePrice(tt.price)
			if err != nil {
				t.Fatalf("ParsePrice: %v", err)
			}
			got := ValueOf(Amount{mustDec(t, tt.amount)}, tt.asset, price)
			if !got.Decimal.Equal(mustDec(t, tt.want)) {
				t.Errorf("ValueOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountFor(t *testing.T) {
	joe := Asset{ID: "joe", Symbol: "JOE", Decimals: 18}

	got, err := AmountFor(Value{mustDec(t, "120000000000000000000")}, joe, NewPrice(4_00000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Decimal.Equal(mustDec(t, "30000000000000000000")) {
		t.Errorf("AmountFor = %s, want 30e18", got)
	}

	// $7 worth of an asset priced at $3 truncates toward zero
	got, err = AmountFor(Value{mustDec(t, "7000000000000000000")}, Asset{ID: "x", Decimals: 0}, NewPrice(3_00000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Decimal.Equal(decimal.NewFromInt(2)) {
		t.Errorf("AmountFor = %s, want 2", got)
	}
}

func TestAmountForZeroPrice(t *testing.T) {
	_, err := AmountFor(Value{decimal.NewFromInt(1)}, NativeAsset(), Price{})
	if err == nil {
		t.Fatal("expected error for zero price")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"100", false},
		{"0", false},
		{"1.5", true},
		{"-1", true},
		{"abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestWholeUnits(t *testing.T) {
	got, err := WholeUnits("1.5", Asset{ID: "usdc", Decimals: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Decimal.Equal(decimal.NewFromInt(1_500_000)) {
		t.Errorf("WholeUnits = %s, want 1500000", got)
	}
}

func TestPriceFromUSD(t *testing.T) {
	p := PriceFromUSD(mustDec(t, "25000.123456789"))
	if !p.Decimal.Equal(decimal.NewFromInt(2_500_012_345_678)) {
		t.Errorf("PriceFromUSD = %s, want 2500012345678", p)
	}
	if !p.USD().Equal(mustDec(t, "25000.12345678")) {
		t.Errorf("USD() = %s", p.USD())
	}
}

func TestValueDisplay(t *testing.T) {
	v := Value{mustDec(t, "1234567890000000000000")}
	if got := v.Display(); got != "$1,234.56" {
		t.Errorf("Display() = %q, want $1,234.56", got)
	}
}

func TestAmountMin(t *testing.T) {
	a, b := NewAmount(5), NewAmount(3)
	if got := a.Min(b); got.Cmp(b) != 0 {
		t.Errorf("Min = %s, want 3", got)
	}
}
