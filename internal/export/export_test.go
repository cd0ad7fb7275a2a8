package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/snapshot"
)

type mockWriter struct {
	tables []Table
	err    error
}

func (m *mockWriter) Write(_ context.Context, tables []Table) error {
	m.tables = tables
	return m.err
}

type mockSnapshotRepo struct {
	snapshot.Repository
	history map[string]domain.BasketSnapshot
}

func (m *mockSnapshotRepo) GetNearestBefore(_ context.Context, fundID string, _ time.Time) (*snapshot.Snapshot, error) {
	snap, ok := m.history[fundID]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return &snapshot.Snapshot{FundID: fundID, Data: data}, nil
}

var joe = domain.Asset{ID: "joe", Symbol: "JOE", Decimals: 18}

func usd(s string) domain.Value {
	return domain.Value{Decimal: decimal.RequireFromString(s).Shift(domain.ValueDecimals)}
}

func shares(s string) domain.Shares {
	return domain.Shares{Decimal: decimal.RequireFromString(s).Shift(domain.ShareDecimals)}
}

func testSnapshot() domain.BasketSnapshot {
	return domain.BasketSnapshot{
		FundID: "f1",
		Ticker: "IDX",
		Holdings: []domain.Holding{
			{Asset: joe, Amount: domain.Amount{Decimal: decimal.New(15, 18)}, Price: domain.NewPrice(4_00000000), Value: usd("60")},
			{Asset: domain.NativeAsset(), Amount: domain.Amount{Decimal: decimal.New(2, 18)}, Price: domain.NewPrice(20_00000000), Value: usd("40")},
			{Asset: domain.Asset{ID: "uni", Symbol: "UNI", Decimals: 18}, Price: domain.NewPrice(5_00000000)},
		},
		TotalValue:  usd("100"),
		TotalSupply: shares("50"),
		TakenAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportBuildsTables(t *testing.T) {
	writer := &mockWriter{}
	svc := NewService(nil, writer)

	if err := svc.Export(context.Background(), []domain.BasketSnapshot{testSnapshot()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(writer.tables))
	}

	funds := writer.tables[0]
	if funds.Name != SheetFunds || len(funds.Rows) != 2 {
		t.Fatalf("funds table = %s with %d rows", funds.Name, len(funds.Rows))
	}
	row := funds.Rows[1]
	if row[0] != "IDX" || row[2] != 100.0 || row[3] != 50.0 || row[4] != 2.0 {
		t.Errorf("fund row = %v", row)
	}
	if row[5] != nil || row[6] != nil {
		t.Errorf("changes without history = %v, %v, want nil", row[5], row[6])
	}

	holdings := writer.tables[1]
	if holdings.Name != SheetHoldings {
		t.Fatalf("holdings table name = %s", holdings.Name)
	}
	// header + two non-empty holdings
	if len(holdings.Rows) != 3 {
		t.Fatalf("holdings rows = %d, want 3", len(holdings.Rows))
	}
	if got := holdings.Rows[1]; got[1] != "JOE" || got[2] != 15.0 || got[3] != 4.0 || got[5] != 0.6 {
		t.Errorf("JOE row = %v", got)
	}
}

func TestExportComputesChanges(t *testing.T) {
	past := testSnapshot()
	past.TotalValue = usd("80") // share price 1.6

	writer := &mockWriter{}
	svc := NewService(&mockSnapshotRepo{history: map[string]domain.BasketSnapshot{"f1": past}}, writer)

	if err := svc.Export(context.Background(), []domain.BasketSnapshot{testSnapshot()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := writer.tables[0].Rows[1]
	if row[5] != 0.25 || row[6] != 0.25 {
		t.Errorf("week/month change = %v/%v, want 0.25", row[5], row[6])
	}
}

func TestExportWriterError(t *testing.T) {
	svc := NewService(nil, &mockWriter{err: errors.New("quota exceeded")})
	if err := svc.Export(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteWorkbook(t *testing.T) {
	svc := NewService(nil, &mockWriter{})
	tables := svc.Tables(context.Background(), []domain.BasketSnapshot{testSnapshot()})

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, tables); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != SheetFunds || got[1] != SheetHoldings {
		t.Fatalf("sheets = %v", got)
	}
	rows, err := f.GetRows(SheetHoldings)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("holdings rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Ticker" || rows[1][1] != "JOE" {
		t.Errorf("rows = %v", rows)
	}
}
