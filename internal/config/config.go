package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	NotifierURL     string
	BankDeliveryURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// PIX
	PixISPB   string // 8-digit participant code used in end-to-end ids
	PixTTL    time.Duration
	SweepTick time.Duration

	// Reconciliation tolerances
	ValueTolerance    decimal.Decimal
	DateToleranceDays int

	// Charging defaults, % of face value
	DefaultPenaltyPct  decimal.Decimal
	DefaultInterestPct decimal.Decimal
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NotifierURL:     getEnv("NOTIFIER_URL", "http://localhost:8085"),
		BankDeliveryURL: getEnv("BANK_DELIVERY_URL", "http://localhost:8086"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxBackoff:     getEnvDuration("MAX_BACKOFF", 30*time.Second),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		PixISPB:   getEnv("PIX_ISPB", "00000000"),
		PixTTL:    getEnvDuration("PIX_TTL", 24*time.Hour),
		SweepTick: getEnvDuration("PIX_SWEEP_INTERVAL", time.Minute),

		ValueTolerance:    getEnvDecimal("VALUE_TOLERANCE", decimal.NewFromFloat(0.01)),
		DateToleranceDays: getEnvInt("DATE_TOLERANCE_DAYS", 1),

		DefaultPenaltyPct:  getEnvDecimal("DEFAULT_PENALTY_PCT", decimal.NewFromInt(2)),
		DefaultInterestPct: getEnvDecimal("DEFAULT_INTEREST_PCT", decimal.NewFromInt(1)),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}
