package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/snapshot"
)

// Sheet names written on every export.
const (
	SheetFunds    = "FUNDS"
	SheetHoldings = "HOLDINGS"
)

// Table is one named sheet of rows. The first row is the header.
type Table struct {
	Name string
	Rows [][]any
}

// SheetWriter writes tables to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, tables []Table) error
}

// changePeriods are the look-back windows, in days, reported for each fund.
var changePeriods = []int{7, 30}

// Service builds report tables from fund snapshots and delegates writing to a SheetWriter.
type Service struct {
	snapshots snapshot.Repository
	writer    SheetWriter
	now       func() time.Time
}

// NewService creates a new export Service. snapshots may be nil, in which case change columns stay empty.
// writer may be nil when the service only builds tables.
func NewService(snapshots snapshot.Repository, writer SheetWriter) *Service {
	return &Service{snapshots: snapshots, writer: writer, now: time.Now}
}

// Export writes the FUNDS and HOLDINGS sheets. Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, snaps []domain.BasketSnapshot) error {
	if s.writer == nil {
		return errors.New("no sheet writer configured")
	}
	if err := s.writer.Write(ctx, s.Tables(ctx, snaps)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Tables builds the report tables for snaps.
func (s *Service) Tables(ctx context.Context, snaps []domain.BasketSnapshot) []Table {
	history := s.fetchHistorical(ctx, snaps)
	return []Table{
		{Name: SheetFunds, Rows: buildFunds(snaps, history)},
		{Name: SheetHoldings, Rows: buildHoldings(snaps)},
	}
}

// fetchHistorical returns, per period, the share price of each fund that many days ago.
func (s *Service) fetchHistorical(ctx context.Context, snaps []domain.BasketSnapshot) map[int]map[string]domain.Value {
	result := make(map[int]map[string]domain.Value, len(changePeriods))
	if s.snapshots == nil {
		return result
	}
	now := s.now().UTC()

	for _, days := range changePeriods {
		pastDate := now.AddDate(0, 0, -days)
		byFund := make(map[string]domain.Value, len(snaps))
		for _, cur := range snaps {
			stored, err := s.snapshots.GetNearestBefore(ctx, cur.FundID, pastDate)
			if err != nil {
				slog.Debug("export: historical snapshot unavailable", "fund", cur.FundID, "days", days, "error", err)
				continue
			}
			var hist domain.BasketSnapshot
			if err := json.Unmarshal(stored.Data, &hist); err != nil {
				slog.Warn("export: failed to unmarshal historical snapshot", "fund", cur.FundID, "days", days, "error", err)
				continue
			}
			byFund[cur.FundID] = hist.SharePrice()
		}
		result[days] = byFund
	}
	return result
}

// buildFunds builds the FUNDS sheet.
// Columns: Ticker | Fund ID | Value USD | Shares | Share Price USD | Week | Month | Taken At
func buildFunds(snaps []domain.BasketSnapshot, history map[int]map[string]domain.Value) [][]any {
	data := make([][]any, 0, len(snaps)+1)
	data = append(data, []any{
		"Ticker", "Fund ID", "Value USD", "Shares", "Share Price USD", "Week", "Month", "Taken At",
	})

	for _, snap := range snaps {
		price := snap.SharePrice()
		data = append(data, []any{
			snap.Ticker,
			snap.FundID,
			toFloat(snap.TotalValue.USD()),
			toFloat(snap.TotalSupply.Shift(-domain.ShareDecimals)),
			toFloat(price.USD()),
			computeChange(price, history[7][snap.FundID]),
			computeChange(price, history[30][snap.FundID]),
			snap.TakenAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}

// buildHoldings builds the HOLDINGS sheet, one row per fund and asset.
// Columns: Ticker | Asset | Amount | Price USD | Value USD | Weight
func buildHoldings(snaps []domain.BasketSnapshot) [][]any {
	data := [][]any{
		{"Ticker", "Asset", "Amount", "Price USD", "Value USD", "Weight"},
	}

	for _, snap := range snaps {
		holdings := lo.Filter(snap.Holdings, func(h domain.Holding, _ int) bool { return h.Amount.IsPositive() })
		for _, h := range holdings {
			var weight any
			if snap.TotalValue.IsPositive() {
				weight = toFloat(h.Value.Div(snap.TotalValue.Decimal))
			}
			data = append(data, []any{
				snap.Ticker,
				h.Asset.String(),
				toFloat(h.Amount.Shift(-h.Asset.Decimals)),
				toFloat(h.Price.USD()),
				toFloat(h.Value.USD()),
				weight,
			})
		}
	}
	return data
}

// computeChange returns (current - historical) / historical, or nil if unavailable.
func computeChange(current, hist domain.Value) any {
	if hist.IsZero() {
		return nil
	}
	return toFloat(current.Sub(hist).Div(hist.Decimal))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
