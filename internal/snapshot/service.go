package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

// Target is a fund that can report its current basket.
type Target interface {
	ID() string
	Snapshot(ctx context.Context) (domain.BasketSnapshot, error)
}

// FundSource enumerates the funds to snapshot.
type FundSource interface {
	Targets() []Target
}

// TargetsFunc adapts a plain function to FundSource.
type TargetsFunc func() []Target

func (f TargetsFunc) Targets() []Target { return f() }

// Service manages snapshot generation and retrieval.
type Service struct {
	funds FundSource
	repo  Repository
}

// NewService creates a new snapshot service.
func NewService(funds FundSource, repo Repository) *Service {
	return &Service{funds: funds, repo: repo}
}

// Generate stores a snapshot of every fund for the given date.
// A fund that cannot be valued is skipped; its error is joined into the returned error
// alongside the snapshots that did succeed.
func (s *Service) Generate(ctx context.Context, date time.Time) ([]domain.BasketSnapshot, error) {
	var (
		out  []domain.BasketSnapshot
		errs []error
	)
	for _, t := range s.funds.Targets() {
		snap, err := s.generateOne(ctx, t, date)
		if err != nil {
			slog.Warn("failed to snapshot fund", "fund", t.ID(), "error", err)
			errs = append(errs, fmt.Errorf("fund %s: %w", t.ID(), err))
			continue
		}
		out = append(out, snap)
	}
	return out, errors.Join(errs...)
}

func (s *Service) generateOne(ctx context.Context, t Target, date time.Time) (domain.BasketSnapshot, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return domain.BasketSnapshot{}, fmt.Errorf("valuing basket: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return domain.BasketSnapshot{}, fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := s.repo.Save(ctx, t.ID(), date, data); err != nil {
		return domain.BasketSnapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return snap, nil
}

// GetLatest retrieves the most recent snapshot of a fund.
func (s *Service) GetLatest(ctx context.Context, fundID string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, fundID)
}

// GetByDate retrieves the snapshot of a fund for a specific date.
func (s *Service) GetByDate(ctx context.Context, fundID string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, fundID, date)
}

// List retrieves recent snapshots of a fund.
func (s *Service) List(ctx context.Context, fundID string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, fundID, limit)
}
