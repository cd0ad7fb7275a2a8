package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrQuoteNotFound indicates that no quote is stored for an asset.
var ErrQuoteNotFound = errors.New("quote not found")

// Quote represents a USD price quote stored in the database.
type Quote struct {
	AssetID   string          `json:"assetId"`
	PriceUSD  decimal.Decimal `json:"priceUsd"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// QuoteRepository defines persistent storage for asset quotes.
type QuoteRepository interface {
	SaveQuote(ctx context.Context, assetID string, priceUSD decimal.Decimal) error
	GetQuote(ctx context.Context, assetID string) (Quote, error)
	GetAllQuotes(ctx context.Context) ([]Quote, error)
}

// PgQuoteRepository implements QuoteRepository with PostgreSQL.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

// NewPgQuoteRepository creates a new PostgreSQL quote repository.
func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) SaveQuote(ctx context.Context, assetID string, priceUSD decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO asset_quotes (asset_id, price_usd, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (asset_id) DO UPDATE SET price_usd = $2, updated_at = NOW()`,
		assetID, priceUSD)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", assetID, err)
	}
	return nil
}

func (r *PgQuoteRepository) GetQuote(ctx context.Context, assetID string) (Quote, error) {
	var q Quote
	err := r.pool.QueryRow(ctx,
		`SELECT asset_id, price_usd, updated_at FROM asset_quotes WHERE asset_id = $1`,
		assetID).Scan(&q.AssetID, &q.PriceUSD, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, fmt.Errorf("%s: %w", assetID, ErrQuoteNotFound)
		}
		return Quote{}, fmt.Errorf("getting quote for %s: %w", assetID, err)
	}
	return q, nil
}

func (r *PgQuoteRepository) GetAllQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asset_id, price_usd, updated_at FROM asset_quotes ORDER BY asset_id`)
	if err != nil {
		return nil, fmt.Errorf("getting all quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.AssetID, &q.PriceUSD, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
