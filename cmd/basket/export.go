package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/mtlprog/basket/internal/config"
	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/export"
	"github.com/mtlprog/basket/internal/metadata"
	"github.com/mtlprog/basket/internal/snapshot"
)

func exportReport(ctx context.Context, cfg config.Config, out string) error {
	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	funds, err := metadata.NewPgStore(pool).ListFunds(ctx)
	if err != nil {
		return err
	}

	repo := snapshot.NewPgRepository(pool)
	var snaps []domain.BasketSnapshot
	for _, info := range funds {
		stored, err := repo.GetLatest(ctx, info.ID)
		if errors.Is(err, snapshot.ErrNotFound) {
			slog.Warn("fund has no snapshot yet", "fund", info.ID, "ticker", info.Ticker)
			continue
		}
		if err != nil {
			return err
		}
		var snap domain.BasketSnapshot
		if err := json.Unmarshal(stored.Data, &snap); err != nil {
			return fmt.Errorf("decoding snapshot of %s: %w", info.Ticker, err)
		}
		snaps = append(snaps, snap)
	}

	if err := export.NewService(repo, export.NewFileWriter(out)).Export(ctx, snaps); err != nil {
		return err
	}
	log.Printf("Wrote %d funds to %s", len(snaps), out)
	return nil
}
