package domain

import (
	"errors"
	"testing"

	"github.com/samber/lo"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		Asset{ID: "joe", Symbol: "JOE", Decimals: 18},
		Asset{ID: "uni", Symbol: "UNI", Decimals: 18},
		Asset{ID: "png", Symbol: "PNG", Decimals: 18},
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []BasisPoints
		want    bool
	}{
		{"exact", []BasisPoints{4000, 3000, 3000}, true},
		{"single", []BasisPoints{10000}, true},
		{"short", []BasisPoints{4000, 3000, 2000}, false},
		{"over", []BasisPoints{6000, 6000}, false},
		{"negative", []BasisPoints{11000, -1000}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateWeights(tt.weights); got != tt.want {
				t.Errorf("ValidateWeights(%v) = %v, want %v", tt.weights, got, tt.want)
			}
		})
	}
}

func TestEqualWeights(t *testing.T) {
	for n := 1; n <= 12; n++ {
		ws := EqualWeights(n)
		if len(ws) != n {
			t.Fatalf("EqualWeights(%d) len = %d", n, len(ws))
		}
		if sum := lo.Sum(ws); sum != MaxBasisPoints {
			t.Errorf("EqualWeights(%d) sum = %d, want 10000", n, sum)
		}
	}
	if got := EqualWeights(3); got[0] != 3334 || got[1] != 3333 || got[2] != 3333 {
		t.Errorf("EqualWeights(3) = %v, want [3334 3333 3333]", got)
	}
}

func TestNewAllocations(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name    string
		assets  []string
		weights []BasisPoints
		wantErr error
	}{
		{"valid", []string{"joe", "uni", "png"}, []BasisPoints{4000, 3000, 3000}, nil},
		{"with native", []string{"native", "joe"}, []BasisPoints{5000, 5000}, nil},
		{"sum 9000", []string{"joe", "uni", "png"}, []BasisPoints{4000, 3000, 2000}, ErrInvalidWeights},
		{"length mismatch", []string{"joe", "uni"}, []BasisPoints{10000}, ErrLengthMismatch},
		{"duplicate", []string{"joe", "joe"}, []BasisPoints{5000, 5000}, ErrDuplicateAsset},
		{"unknown", []string{"joe", "btc"}, []BasisPoints{5000, 5000}, ErrUnknownAsset},
		{"empty", nil, nil, ErrEmptyBasket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocs, err := NewAllocations(catalog, tt.assets, tt.weights)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := AllocationAssetIDs(allocs); !lo.Every(got, tt.assets) || len(got) != len(tt.assets) {
				t.Errorf("asset IDs = %v, want %v", got, tt.assets)
			}
		})
	}
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog("native:AVAX:18:avalanche-2, joe:JOE:18:joe,usdc:USDC:6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Native().Symbol != "AVAX" {
		t.Errorf("native symbol = %q, want AVAX", c.Native().Symbol)
	}
	usdc, err := c.Lookup("usdc")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if usdc.Decimals != 6 {
		t.Errorf("usdc decimals = %d, want 6", usdc.Decimals)
	}
	if got := len(c.All()); got != 3 {
		t.Errorf("All() len = %d, want 3", got)
	}
	if got := len(c.Priced()); got != 2 {
		t.Errorf("Priced() len = %d, want 2", got)
	}
}

func TestParseCatalogInvalid(t *testing.T) {
	for _, spec := range []string{"joe:JOE", "joe:JOE:x", "joe:JOE:18,joe:JOE:18", "joe:JOE:99"} {
		if _, err := ParseCatalog(spec); err == nil {
			t.Errorf("ParseCatalog(%q) expected error", spec)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidWeights, "InvalidWeights"},
		{errors.Join(errors.New("ctx"), ErrSwapFailed), "SwapFailed"},
		{errors.New("boom"), "Internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
