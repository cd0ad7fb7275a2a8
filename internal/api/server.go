package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/export"
	"github.com/mtlprog/basket/internal/registry"
	"github.com/mtlprog/basket/internal/snapshot"
	"github.com/mtlprog/basket/internal/wallet"
)

// ActivityLister reads the stored activity log of a fund.
type ActivityLister interface {
	ListActivity(ctx context.Context, fundID string, limit int) ([]domain.Activity, error)
}

// PriceSetter overrides oracle prices.
type PriceSetter interface {
	SetPrice(assetID string, p domain.Price)
}

// PriceInvalidator drops a cached price.
type PriceInvalidator interface {
	Invalidate(assetID string)
}

// Deps wires the API to the engine. Registry, Native and FeeBook are required; the rest are optional
// and disable their routes when nil.
type Deps struct {
	Registry  *registry.Registry
	Native    *wallet.Book
	FeeBook   *wallet.Book
	Snapshots *snapshot.Service
	Reports   *export.Service
	Activity  ActivityLister
	Prices    PriceSetter
	Cache     PriceInvalidator
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, deps Deps, adminAPIKey string) *http.Server {
	h := NewHandler(deps)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/funds", h.ListFunds)
	mux.HandleFunc("POST /api/v1/funds", h.CreateFund)
	mux.HandleFunc("GET /api/v1/funds/count", h.CountFunds)
	mux.HandleFunc("GET /api/v1/funds/{index}", h.GetFund)
	mux.HandleFunc("POST /api/v1/funds/{index}/buy", h.Buy)
	mux.HandleFunc("POST /api/v1/funds/{index}/sell", h.Sell)
	mux.HandleFunc("POST /api/v1/funds/{index}/rebalance", h.Rebalance)
	mux.HandleFunc("GET /api/v1/funds/{index}/value", h.GetValue)
	mux.HandleFunc("GET /api/v1/funds/{index}/composition", h.GetComposition)
	mux.HandleFunc("GET /api/v1/funds/{index}/weights", h.GetWeights)
	mux.HandleFunc("GET /api/v1/funds/{index}/weights/valid", h.ValidateWeights)
	mux.HandleFunc("GET /api/v1/funds/{index}/balances/{holder}", h.GetBalance)
	mux.HandleFunc("GET /api/v1/funds/{index}/tokens/{asset}", h.GetTokenBalance)
	mux.HandleFunc("GET /api/v1/funds/{index}/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/v1/funds/{index}/snapshots", h.ListSnapshots)
	mux.HandleFunc("GET /api/v1/funds/{index}/activity", h.ListActivity)
	mux.HandleFunc("GET /api/v1/funds/{index}/report.xlsx", h.GetReport)

	mux.HandleFunc("POST /api/v1/fee/approve", h.ApproveFee)
	mux.HandleFunc("GET /api/v1/fee/balance/{account}", h.GetFeeBalance)

	// Balance and price mutations exist only behind a key.
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/admin/credit", requireAuth(adminAPIKey, http.HandlerFunc(h.Credit)))
		mux.Handle("PUT /api/v1/admin/prices/{asset}", requireAuth(adminAPIKey, http.HandlerFunc(h.SetPrice)))
	}

	generateHandler := http.HandlerFunc(h.GenerateSnapshots)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/admin/snapshots/generate", requireAuth(adminAPIKey, generateHandler))
	} else {
		mux.Handle("POST /api/v1/admin/snapshots/generate", generateHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, kindUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
