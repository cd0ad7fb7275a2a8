// Package metadata persists fund descriptions and the activity log for display.
package metadata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/basket/internal/database"
	"github.com/mtlprog/basket/internal/domain"
)

// PgStore stores fund metadata in PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL metadata store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// SaveFund stores the fund row and its target weights.
func (s *PgStore) SaveFund(ctx context.Context, info domain.FundInfo) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO funds (id, fund_index, creator, name, ticker, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET name = $4, ticker = $5`,
			info.ID, info.Index, info.Creator, info.Name, info.Ticker, info.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving fund %s: %w", info.ID, err)
		}
		return replaceTokens(ctx, tx, info.ID, info.Allocations)
	})
}

// ReplaceWeights overwrites the stored target weights of a fund.
func (s *PgStore) ReplaceWeights(ctx context.Context, fundID string, allocs []domain.Allocation) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return replaceTokens(ctx, tx, fundID, allocs)
	})
}

func replaceTokens(ctx context.Context, tx pgx.Tx, fundID string, allocs []domain.Allocation) error {
	if _, err := tx.Exec(ctx, `DELETE FROM fund_tokens WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("clearing tokens of %s: %w", fundID, err)
	}

	batch := &pgx.Batch{}
	for i, a := range allocs {
		batch.Queue(
			`INSERT INTO fund_tokens (fund_id, position, asset_id, weight_bps) VALUES ($1, $2, $3, $4)`,
			fundID, i, a.Asset.ID, int(a.Weight))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving tokens of %s: %w", fundID, err)
	}
	return nil
}

// SaveActivity appends an entry to the activity log.
func (s *PgStore) SaveActivity(ctx context.Context, a domain.Activity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fund_activity (fund_id, kind, account, amount, shares, fee, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.FundID, string(a.Kind), a.Account, a.Amount.Decimal, a.Shares.Decimal, a.Fee.Decimal, a.At)
	if err != nil {
		return fmt.Errorf("saving %s activity of %s: %w", a.Kind, a.FundID, err)
	}
	return nil
}

// ListActivity returns the most recent activity of a fund, newest first.
func (s *PgStore) ListActivity(ctx context.Context, fundID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT fund_id, kind, account, amount, shares, fee, created_at
		 FROM fund_activity
		 WHERE fund_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, fundID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			a    domain.Activity
			kind string
		)
		if err := rows.Scan(&a.FundID, &kind, &a.Account, &a.Amount.Decimal, &a.Shares.Decimal, &a.Fee.Decimal, &a.At); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.Kind = domain.ActivityKind(kind)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return out, nil
}

// ListFunds returns every stored fund in index order. Allocations are not loaded.
func (s *PgStore) ListFunds(ctx context.Context) ([]domain.FundInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, fund_index, creator, name, ticker, created_at FROM funds ORDER BY fund_index`)
	if err != nil {
		return nil, fmt.Errorf("listing funds: %w", err)
	}
	defer rows.Close()

	var out []domain.FundInfo
	for rows.Next() {
		var info domain.FundInfo
		if err := rows.Scan(&info.ID, &info.Index, &info.Creator, &info.Name, &info.Ticker, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning fund: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating funds: %w", err)
	}
	return out, nil
}
