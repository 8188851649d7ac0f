package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreCosmos   = "cosmos"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	// Server
	Port string // default: 3000

	// Billing
	SubscriptionID         string
	BillingBreakerFailures uint32 // consecutive failures before the breaker opens, default: 3

	// Document store
	StoreBackend    string // "cosmos", "postgres" or "sqlite"
	CosmosEndpoint  string
	CosmosKey       string
	CosmosDatabase  string // default: CloudSaverDB
	CosmosContainer string // default: CostData
	PostgresDSN     string
	SQLitePath      string

	// Rate Limiting (disabled when RedisAddr is empty)
	RedisAddr    string
	RateLimitRPM int64 // requests per tenant per minute, default: 60

	// Observability
	OTELExporterType     string // "stdout", "otlp" or "none"
	OTELExporterEndpoint string // default: "localhost:4317"
}

func Load() (*Config, error) {
	// Load .env file if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		SubscriptionID:       getEnv("AZURE_SUBSCRIPTION_ID", "YOUR_SUBSCRIPTION_ID"),
		StoreBackend:         getEnv("STORE_BACKEND", StoreCosmos),
		CosmosEndpoint:       getEnv("COSMOS_ENDPOINT", "YOUR_COSMOS_ENDPOINT"),
		CosmosKey:            getEnv("COSMOS_KEY", "YOUR_COSMOS_KEY"),
		CosmosDatabase:       getEnv("COSMOS_DATABASE", "CloudSaverDB"),
		CosmosContainer:      getEnv("COSMOS_CONTAINER", "CostData"),
		PostgresDSN:          os.Getenv("POSTGRES_DSN"),
		SQLitePath:           getEnv("SQLITE_PATH", "data/cloudsaver.db"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "stdout"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
	}

	rpm, err := strconv.ParseInt(getEnv("RATE_LIMIT_RPM", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPM: %w", err)
	}
	if rpm <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", rpm)
	}
	cfg.RateLimitRPM = rpm

	failures, err := strconv.ParseUint(getEnv("BILLING_BREAKER_FAILURES", "3"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_BREAKER_FAILURES: %w", err)
	}
	if failures == 0 {
		return nil, fmt.Errorf("BILLING_BREAKER_FAILURES must be at least 1")
	}
	cfg.BillingBreakerFailures = uint32(failures)

	// Validation
	switch cfg.StoreBackend {
	case StoreCosmos:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=postgres")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when STORE_BACKEND=sqlite")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.OTELExporterType {
	case "stdout", "otlp", "none":
	default:
		return nil, fmt.Errorf("unknown OTEL_EXPORTER_TYPE %q", cfg.OTELExporterType)
	}

	return cfg, nil
}

// getEnv treats a set-but-empty variable the same as an unset one.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
