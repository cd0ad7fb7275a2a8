// Package registry creates funds and keeps them in an append-only, index-addressed collection.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/fund"
	"github.com/mtlprog/basket/internal/wallet"
)

// SpenderAccount is the identity the registry spends fee-token allowances as.
const SpenderAccount = "registry"

// FeeMode selects what happens to collected creation fees.
type FeeMode string

const (
	FeeModeBurn     FeeMode = "burn"
	FeeModeTreasury FeeMode = "treasury"
)

// ParseFeeMode parses a fee mode, defaulting to burn for unknown input.
func ParseFeeMode(s string) FeeMode {
	if FeeMode(strings.ToLower(s)) == FeeModeTreasury {
		return FeeModeTreasury
	}
	return FeeModeBurn
}

// FeeConfig describes the fund creation fee. A nil Book or zero Amount disables the fee.
type FeeConfig struct {
	Book     *wallet.Book
	Amount   domain.Amount
	Mode     FeeMode
	Treasury string
}

// MetadataStore persists display metadata for newly created funds.
type MetadataStore interface {
	SaveFund(ctx context.Context, info domain.FundInfo) error
}

// Registry owns every fund. Funds are never removed; index i always refers to the same fund.
type Registry struct {
	mu    sync.RWMutex
	funds []*fund.Fund
	byID  map[string]int

	deps  fund.Deps
	opts  fund.Options
	fee   FeeConfig
	store MetadataStore
	now   func() time.Time
}

// New creates an empty registry. store may be nil.
func New(deps fund.Deps, opts fund.Options, fee FeeConfig, store MetadataStore) *Registry {
	if deps.Catalog == nil {
		panic("registry.New: catalog is nil")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		byID:  make(map[string]int),
		deps:  deps,
		opts:  opts,
		fee:   fee,
		store: store,
		now:   now,
	}
}

// CreateFund validates the basket, charges the creation fee and registers a new empty fund.
func (r *Registry) CreateFund(ctx context.Context, creator, name, ticker string, assetIDs []string, weights []domain.BasisPoints) (domain.FundInfo, error) {
	name, ticker = strings.TrimSpace(name), strings.TrimSpace(ticker)
	if creator == "" || name == "" || ticker == "" {
		return domain.FundInfo{}, fmt.Errorf("creator, name and ticker are required: %w", domain.ErrInvalidFund)
	}
	allocs, err := domain.NewAllocations(r.deps.Catalog, assetIDs, weights)
	if err != nil {
		return domain.FundInfo{}, err
	}

	if err := r.chargeFee(creator); err != nil {
		return domain.FundInfo{}, err
	}

	r.mu.Lock()
	info := domain.FundInfo{
		ID:          uuid.NewString(),
		Index:       len(r.funds),
		Creator:     creator,
		Name:        name,
		Ticker:      strings.ToUpper(ticker),
		Allocations: allocs,
		CreatedAt:   r.now().UTC(),
	}
	r.funds = append(r.funds, fund.New(info, r.deps, r.opts))
	r.byID[info.ID] = info.Index
	r.mu.Unlock()

	slog.Info("fund created",
		"index", info.Index, "id", info.ID, "ticker", info.Ticker, "creator", creator,
		"assets", domain.AllocationAssetIDs(allocs))

	if r.store != nil {
		if err := r.store.SaveFund(ctx, info); err != nil {
			slog.Warn("failed to save fund metadata", "id", info.ID, "error", err)
		}
	}
	return info, nil
}

// CreateEqualWeightFund creates a fund splitting weight evenly across assetIDs.
func (r *Registry) CreateEqualWeightFund(ctx context.Context, creator, name, ticker string, assetIDs []string) (domain.FundInfo, error) {
	return r.CreateFund(ctx, creator, name, ticker, assetIDs, domain.EqualWeights(len(assetIDs)))
}

func (r *Registry) chargeFee(creator string) error {
	if r.fee.Book == nil || !r.fee.Amount.IsPositive() {
		return nil
	}

	var err error
	switch r.fee.Mode {
	case FeeModeTreasury:
		err = r.fee.Book.TransferFrom(SpenderAccount, creator, r.fee.Treasury, r.fee.Amount)
	default:
		err = r.fee.Book.BurnFrom(SpenderAccount, creator, r.fee.Amount)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, wallet.ErrInsufficientAllowance):
		return fmt.Errorf("charging creation fee: %w: %w", domain.ErrFeeNotApproved, err)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return fmt.Errorf("charging creation fee: %w: %w", domain.ErrInsufficientFee, err)
	default:
		return fmt.Errorf("charging creation fee: %w", err)
	}
}

// Fund returns the fund at index.
func (r *Registry) Fund(index int) (*fund.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.funds) {
		return nil, fmt.Errorf("index %d: %w", index, domain.ErrFundNotFound)
	}
	return r.funds[index], nil
}

// FundByID returns the fund with the given id.
func (r *Registry) FundByID(id string) (*fund.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("id %s: %w", id, domain.ErrFundNotFound)
	}
	return r.funds[i], nil
}

// GetFund returns the registry record of the fund at index.
func (r *Registry) GetFund(index int) (domain.FundInfo, error) {
	f, err := r.Fund(index)
	if err != nil {
		return domain.FundInfo{}, err
	}
	return f.Info(), nil
}

// TotalFunds returns the number of funds ever created.
func (r *Registry) TotalFunds() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funds)
}

// Funds returns every fund in creation order.
func (r *Registry) Funds() []*fund.Fund {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*fund.Fund(nil), r.funds...)
}

// List returns the registry records of every fund, optionally filtered by creator.
func (r *Registry) List(creator string) []domain.FundInfo {
	infos := lo.Map(r.Funds(), func(f *fund.Fund, _ int) domain.FundInfo { return f.Info() })
	if creator == "" {
		return infos
	}
	return lo.Filter(infos, func(info domain.FundInfo, _ int) bool { return info.Creator == creator })
}

// Catalog returns the assets funds may hold.
func (r *Registry) Catalog() *domain.Catalog {
	return r.deps.Catalog
}

// Owner returns the account allowed to rebalance every fund.
func (r *Registry) Owner() string {
	return r.opts.Owner
}
