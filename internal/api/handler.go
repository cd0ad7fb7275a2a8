package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/fund"
)

const (
	accountHeader = "X-Account"
	maxBodyBytes  = 1 << 20

	kindInvalidRequest = "InvalidRequest"
	kindUnauthorized   = "Unauthorized"
	kindUnavailable    = "Unavailable"
	kindInternal       = "Internal"
)

// kindStatus maps error kinds to HTTP statuses. Unlisted kinds are internal errors.
var kindStatus = map[string]int{
	"InvalidWeights":     http.StatusBadRequest,
	"LengthMismatch":     http.StatusBadRequest,
	"DuplicateAsset":     http.StatusBadRequest,
	"EmptyBasket":        http.StatusBadRequest,
	"UnknownAsset":       http.StatusBadRequest,
	"InvalidFund":        http.StatusBadRequest,
	"ZeroAmount":         http.StatusBadRequest,
	"ZeroValueDeposit":   http.StatusBadRequest,
	"Unauthorized":       http.StatusForbidden,
	"FeeNotApproved":     http.StatusForbidden,
	"FundNotFound":       http.StatusNotFound,
	"InsufficientShares": http.StatusConflict,
	"InsufficientFee":    http.StatusConflict,
	"InsufficientFunds":  http.StatusConflict,
	"PriceUnavailable":   http.StatusBadGateway,
	"SwapFailed":         http.StatusBadGateway,
}

// Handler provides HTTP endpoints for the fund API.
type Handler struct {
	deps Deps
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Registry == nil || deps.Native == nil || deps.FeeBook == nil {
		panic("api.NewHandler: registry, native book and fee book are required")
	}
	return &Handler{deps: deps}
}

// fundFromPath resolves the {index} path value. It writes the error response itself.
func (h *Handler) fundFromPath(w http.ResponseWriter, r *http.Request) (*fund.Fund, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "invalid fund index")
		return nil, false
	}
	f, err := h.deps.Registry.Fund(index)
	if err != nil {
		writeDomainError(w, err, "resolving fund")
		return nil, false
	}
	return f, true
}

// account returns the caller identity. It writes the error response itself.
func account(w http.ResponseWriter, r *http.Request) (string, bool) {
	acc := strings.TrimSpace(r.Header.Get(accountHeader))
	if acc == "" {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "missing "+accountHeader+" header")
		return "", false
	}
	return acc, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func queryLimit(r *http.Request, def, maxLimit int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error","kind":"Internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

// writeDomainError maps err to a status by its kind. Internal errors are logged and hidden.
func writeDomainError(w http.ResponseWriter, err error, action string) {
	kind := domain.ErrorKind(err)
	status, ok := kindStatus[kind]
	if !ok {
		slog.Error("request failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
		return
	}
	writeError(w, status, kind, err.Error())
}
