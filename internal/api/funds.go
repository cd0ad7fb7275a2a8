package api

import (
	"bytes"
	"net/http"

	"github.com/samber/lo"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/export"
)

type basketRequest struct {
	Assets  []string `json:"assets"`
	Weights []int    `json:"weights,omitempty"`
}

func (b basketRequest) basisPoints() []domain.BasisPoints {
	return lo.Map(b.Weights, func(w int, _ int) domain.BasisPoints { return domain.BasisPoints(w) })
}

type createFundRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	basketRequest
}

type buyRequest struct {
	Amount string `json:"amount"`
}

type sellRequest struct {
	Shares string `json:"shares"`
}

type fundResponse struct {
	domain.FundInfo
	TotalSupply domain.Shares `json:"totalSupply"`
	Holders     int           `json:"holders"`
}

type valueResponse struct {
	Value      domain.Value `json:"value"`
	Display    string       `json:"display"`
	SharePrice domain.Value `json:"sharePrice"`
}

// ListFunds handles GET /api/v1/funds. An optional ?creator= filters by creator.
func (h *Handler) ListFunds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Registry.List(r.URL.Query().Get("creator")))
}

// CountFunds handles GET /api/v1/funds/count.
func (h *Handler) CountFunds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.deps.Registry.TotalFunds()})
}

// CreateFund handles POST /api/v1/funds. Omitting weights splits the basket equally.
func (h *Handler) CreateFund(w http.ResponseWriter, r *http.Request) {
	creator, ok := account(w, r)
	if !ok {
		return
	}
	var req createFundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		info domain.FundInfo
		err  error
	)
	if req.Weights == nil {
		info, err = h.deps.Registry.CreateEqualWeightFund(r.Context(), creator, req.Name, req.Ticker, req.Assets)
	} else {
		info, err = h.deps.Registry.CreateFund(r.Context(), creator, req.Name, req.Ticker, req.Assets, req.basisPoints())
	}
	if err != nil {
		writeDomainError(w, err, "creating fund")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// GetFund handles GET /api/v1/funds/{index}.
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fundResponse{
		FundInfo:    f.Info(),
		TotalSupply: f.TotalSupply(),
		Holders:     len(f.Holders()),
	})
}

// Buy handles POST /api/v1/funds/{index}/buy.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	depositor, ok := account(w, r)
	if !ok {
		return
	}
	var req buyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	receipt, err := f.Buy(r.Context(), depositor, amount)
	if err != nil {
		writeDomainError(w, err, "buying fund shares")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Sell handles POST /api/v1/funds/{index}/sell.
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	holder, ok := account(w, r)
	if !ok {
		return
	}
	var req sellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	shares, err := domain.ParseShares(req.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	receipt, err := f.Sell(r.Context(), holder, shares)
	if err != nil {
		writeDomainError(w, err, "selling fund shares")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Rebalance handles POST /api/v1/funds/{index}/rebalance.
func (h *Handler) Rebalance(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	caller, ok := account(w, r)
	if !ok {
		return
	}
	var req basketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := f.Rebalance(r.Context(), caller, req.Assets, req.basisPoints())
	if err != nil {
		writeDomainError(w, err, "rebalancing fund")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetValue handles GET /api/v1/funds/{index}/value.
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	snap, err := f.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err, "valuing fund")
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{
		Value:      snap.TotalValue,
		Display:    snap.TotalValue.Display(),
		SharePrice: snap.SharePrice(),
	})
}

// GetComposition handles GET /api/v1/funds/{index}/composition.
func (h *Handler) GetComposition(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	comp, err := f.Composition(r.Context())
	if err != nil {
		writeDomainError(w, err, "computing composition")
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// GetWeights handles GET /api/v1/funds/{index}/weights.
func (h *Handler) GetWeights(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.Weights())
}

// ValidateWeights handles GET /api/v1/funds/{index}/weights/valid.
func (h *Handler) ValidateWeights(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": f.ValidateWeights()})
}

// GetBalance handles GET /api/v1/funds/{index}/balances/{holder}.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	holder := r.PathValue("holder")
	writeJSON(w, http.StatusOK, map[string]any{"holder": holder, "shares": f.BalanceOf(holder)})
}

// GetTokenBalance handles GET /api/v1/funds/{index}/tokens/{asset}.
func (h *Handler) GetTokenBalance(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	asset, err := h.deps.Registry.Catalog().Lookup(r.PathValue("asset"))
	if err != nil {
		writeDomainError(w, err, "looking up asset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": asset, "amount": f.TokenBalance(asset.ID)})
}

// GetSnapshot handles GET /api/v1/funds/{index}/snapshot, a live valuation of the basket.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	snap, err := f.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err, "snapshotting fund")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListSnapshots handles GET /api/v1/funds/{index}/snapshots, the stored daily history.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	if h.deps.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "snapshot history is not configured")
		return
	}

	snapshots, err := h.deps.Snapshots.List(r.Context(), f.ID(), queryLimit(r, 30, 365))
	if err != nil {
		writeDomainError(w, err, "listing snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// ListActivity handles GET /api/v1/funds/{index}/activity.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	if h.deps.Activity == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "activity log is not configured")
		return
	}

	activity, err := h.deps.Activity.ListActivity(r.Context(), f.ID(), queryLimit(r, 50, 500))
	if err != nil {
		writeDomainError(w, err, "listing activity")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// GetReport handles GET /api/v1/funds/{index}/report.xlsx.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	f, ok := h.fundFromPath(w, r)
	if !ok {
		return
	}
	snap, err := f.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err, "snapshotting fund")
		return
	}

	reports := h.deps.Reports
	if reports == nil {
		reports = export.NewService(nil, nil)
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, reports.Tables(r.Context(), []domain.BasketSnapshot{snap})); err != nil {
		writeDomainError(w, err, "rendering report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.Ticker+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
