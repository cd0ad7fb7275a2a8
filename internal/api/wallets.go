package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/registry"
	"github.com/mtlprog/basket/internal/wallet"
	"github.com/mtlprog/basket/internal/worker"
)

type approveRequest struct {
	Amount string `json:"amount"`
}

type creditRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type priceRequest struct {
	USD string `json:"usd"`
}

type generateResponse struct {
	Snapshots []domain.BasketSnapshot `json:"snapshots"`
	Failed    string                  `json:"failed,omitempty"`
}

// ApproveFee handles POST /api/v1/fee/approve. It sets how much of the caller's fee tokens
// the registry may spend on fund creation.
func (h *Handler) ApproveFee(w http.ResponseWriter, r *http.Request) {
	owner, ok := account(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	h.deps.FeeBook.Approve(owner, registry.SpenderAccount, amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"account":   owner,
		"spender":   registry.SpenderAccount,
		"allowance": amount,
	})
}

// GetFeeBalance handles GET /api/v1/fee/balance/{account}.
func (h *Handler) GetFeeBalance(w http.ResponseWriter, r *http.Request) {
	acc := r.PathValue("account")
	writeJSON(w, http.StatusOK, map[string]any{
		"account":   acc,
		"asset":     h.deps.FeeBook.Asset(),
		"balance":   h.deps.FeeBook.BalanceOf(acc),
		"allowance": h.deps.FeeBook.Allowance(acc, registry.SpenderAccount),
	})
}

// Credit handles POST /api/v1/admin/credit, minting base or fee tokens to an account.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "account is required")
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	book, err := h.bookFor(req.Asset)
	if err != nil {
		writeDomainError(w, err, "crediting account")
		return
	}
	if err := book.Credit(req.Account, amount); err != nil {
		writeDomainError(w, err, "crediting account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": req.Account,
		"asset":   book.Asset(),
		"balance": book.BalanceOf(req.Account),
	})
}

func (h *Handler) bookFor(assetID string) (*wallet.Book, error) {
	switch assetID {
	case h.deps.Native.Asset():
		return h.deps.Native, nil
	case h.deps.FeeBook.Asset():
		return h.deps.FeeBook, nil
	default:
		return nil, fmt.Errorf("no wallet for %q: %w", assetID, domain.ErrUnknownAsset)
	}
}

// SetPrice handles PUT /api/v1/admin/prices/{asset}. Only available with the static oracle.
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	if h.deps.Prices == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "price overrides require the static oracle")
		return
	}
	asset, err := h.deps.Registry.Catalog().Lookup(r.PathValue("asset"))
	if err != nil {
		writeDomainError(w, err, "setting price")
		return
	}
	var req priceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	price, err := domain.ParsePrice(req.USD)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	h.deps.Prices.SetPrice(asset.ID, price)
	if h.deps.Cache != nil {
		h.deps.Cache.Invalidate(asset.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": asset.ID, "price": price, "usd": price.USD().String()})
}

// GenerateSnapshots handles POST /api/v1/admin/snapshots/generate.
func (h *Handler) GenerateSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.deps.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "snapshot history is not configured")
		return
	}

	snaps, err := h.deps.Snapshots.Generate(r.Context(), worker.UTCDate(time.Now()))
	if err != nil && len(snaps) == 0 {
		writeDomainError(w, err, "generating snapshots")
		return
	}

	resp := generateResponse{Snapshots: snaps}
	if err != nil {
		resp.Failed = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
