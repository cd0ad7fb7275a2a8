package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

// Oracle sources.
const (
	OracleCoinGecko = "coingecko"
	OracleStatic    = "static"
)

// defaultAssets is the catalog used when ASSETS is unset.
const defaultAssets = "wbtc:WBTC:8:wrapped-bitcoin,weth:WETH:18:weth,joe:JOE:18:joe,png:PNG:18:pangolin,uni:UNI:18:uniswap"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	AdminAPIKey string

	CoinGeckoURL           string
	CoinGeckoDelay         time.Duration
	CoinGeckoRetryMax      int
	QuoteStaleThreshold    time.Duration
	QuoteWorkerInterval    time.Duration
	SnapshotWorkerInterval time.Duration

	OracleSource string
	AssetPrices  string
	Assets       string

	RouterURL            string
	RouterFee            domain.BasisPoints
	RouterRetryMax       int
	RouterRetryBaseDelay time.Duration

	MaxSlippage   domain.BasisPoints
	RedemptionFee domain.BasisPoints

	CreationFee     string
	FeeAsset        string
	FeeMode         string
	TreasuryAccount string
	RegistryOwner   string

	GoogleSheetsID        string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL: envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),

		CoinGeckoURL:           envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoDelay:         envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:      envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		QuoteStaleThreshold:    envOrDefaultDuration("QUOTE_STALE_THRESHOLD", 2*time.Hour),
		QuoteWorkerInterval:    envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 10*time.Minute),
		SnapshotWorkerInterval: envOrDefaultDuration("SNAPSHOT_WORKER_INTERVAL", 24*time.Hour),

		OracleSource: envOrDefaultOneOf("ORACLE_SOURCE", OracleCoinGecko, OracleCoinGecko, OracleStatic),
		AssetPrices:  envOrDefault("ASSET_PRICES", ""),
		Assets:       envOrDefault("ASSETS", defaultAssets),

		RouterURL:            envOrDefault("ROUTER_URL", ""),
		RouterFee:            envOrDefaultBps("ROUTER_FEE_BPS", 30),
		RouterRetryMax:       envOrDefaultInt("ROUTER_RETRY_MAX", 3),
		RouterRetryBaseDelay: envOrDefaultDuration("ROUTER_RETRY_BASE_DELAY", time.Second),

		MaxSlippage:   envOrDefaultBps("MAX_SLIPPAGE_BPS", 100),
		RedemptionFee: envOrDefaultBps("REDEMPTION_FEE_BPS", 0),

		CreationFee:     envOrDefault("CREATION_FEE", "0"),
		FeeAsset:        envOrDefault("FEE_ASSET", "agi"),
		FeeMode:         envOrDefaultOneOf("FEE_MODE", "burn", "burn", "treasury"),
		TreasuryAccount: envOrDefault("TREASURY_ACCOUNT", "treasury"),
		RegistryOwner:   envOrDefault("REGISTRY_OWNER", ""),

		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultBps(key string, defaultVal domain.BasisPoints) domain.BasisPoints {
	n := envOrDefaultInt(key, int(defaultVal))
	if n < 0 || n > domain.MaxBasisPoints {
		slog.Warn("basis points out of range, using default", "key", key, "value", n, "default", defaultVal)
		return defaultVal
	}
	return domain.BasisPoints(n)
}

func envOrDefaultOneOf(key, defaultVal string, allowed ...string) string {
	v := envOrDefault(key, defaultVal)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	slog.Warn("unsupported env var value, using default", "key", key, "value", v, "default", defaultVal)
	return defaultVal
}
