package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/basket/internal/api"
	"github.com/mtlprog/basket/internal/config"
	"github.com/mtlprog/basket/internal/domain"
	"github.com/mtlprog/basket/internal/export"
	"github.com/mtlprog/basket/internal/external"
	"github.com/mtlprog/basket/internal/fund"
	"github.com/mtlprog/basket/internal/metadata"
	"github.com/mtlprog/basket/internal/oracle"
	"github.com/mtlprog/basket/internal/registry"
	"github.com/mtlprog/basket/internal/snapshot"
	"github.com/mtlprog/basket/internal/swap"
	"github.com/mtlprog/basket/internal/wallet"
	"github.com/mtlprog/basket/internal/worker"
)

func serve(ctx context.Context, cfg config.Config) error {
	catalog, err := domain.ParseCatalog(cfg.Assets)
	if err != nil {
		return fmt.Errorf("parsing ASSETS: %w", err)
	}
	creationFee, err := domain.ParseAmount(cfg.CreationFee)
	if err != nil {
		return fmt.Errorf("parsing CREATION_FEE: %w", err)
	}

	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Price source
	var (
		base     oracle.Oracle
		prices   api.PriceSetter
		quoteSvc *external.Service
	)
	switch cfg.OracleSource {
	case config.OracleStatic:
		seed, err := oracle.ParsePriceList(cfg.AssetPrices)
		if err != nil {
			return fmt.Errorf("parsing ASSET_PRICES: %w", err)
		}
		mem := oracle.NewMemory(seed)
		base, prices = mem, mem
	default:
		coingecko := external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
		quoteSvc = external.NewService(coingecko, external.NewPgQuoteRepository(pool), catalog, cfg.QuoteStaleThreshold)
		base = quoteSvc
	}
	cached := oracle.NewCached(base, 0)

	var router swap.Router
	if cfg.RouterURL != "" {
		router = swap.NewRemoteRouter(cfg.RouterURL, cfg.RouterRetryMax, cfg.RouterRetryBaseDelay)
	} else {
		router = swap.NewOracleRouter(catalog, cached, cfg.RouterFee)
	}

	// Wallets and registry
	native := wallet.NewBook(domain.NativeAssetID)
	feeBook := wallet.NewBook(cfg.FeeAsset)
	store := metadata.NewPgStore(pool)

	reg := registry.New(
		fund.Deps{
			Catalog: catalog,
			Oracle:  cached,
			Router:  router,
			Custody: wallet.NewCustody(native),
		},
		fund.Options{
			MaxSlippage:   cfg.MaxSlippage,
			RedemptionFee: cfg.RedemptionFee,
			Owner:         cfg.RegistryOwner,
			Observer:      metadata.NewRecorder(store),
		},
		registry.FeeConfig{
			Book:     feeBook,
			Amount:   creationFee,
			Mode:     registry.ParseFeeMode(cfg.FeeMode),
			Treasury: cfg.TreasuryAccount,
		},
		store,
	)

	// Snapshots and reports
	snapshotRepo := snapshot.NewPgRepository(pool)
	snapshotSvc := snapshot.NewService(snapshot.TargetsFunc(func() []snapshot.Target {
		return lo.Map(reg.Funds(), func(f *fund.Fund, _ int) snapshot.Target { return f })
	}), snapshotRepo)

	var (
		sheetWriter export.SheetWriter
		hook        worker.AfterSnapshotHook
	)
	if cfg.GoogleSheetsID != "" && cfg.GoogleCredentialsJSON != "" {
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			slog.Error("Google Sheets export disabled", "error", err)
		} else {
			sheetWriter = sw
		}
	}
	reports := export.NewService(snapshotRepo, sheetWriter)
	if sheetWriter != nil {
		hook = reports
	}

	// Start workers
	if quoteSvc != nil {
		go worker.NewQuoteWorker(quoteSvc, cfg.QuoteWorkerInterval, cached).Run(ctx)
	}
	go worker.NewSnapshotWorker(snapshotSvc, cfg.SnapshotWorkerInterval, hook).Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, credit and price endpoints are disabled")
	}

	// Start HTTP server
	srv := api.NewServer(cfg.HTTPPort, api.Deps{
		Registry:  reg,
		Native:    native,
		FeeBook:   feeBook,
		Snapshots: snapshotSvc,
		Reports:   reports,
		Activity:  store,
		Prices:    prices,
		Cache:     cached,
	}, cfg.AdminAPIKey)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort, "oracle", cfg.OracleSource, "assets", len(catalog.All()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
