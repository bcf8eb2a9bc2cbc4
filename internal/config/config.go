package config

import (
	"os"
	"strconv"
	"time"
)

// PaymentConfig holds the payment engine configuration
type PaymentConfig struct {
	// Global amount limits, in the ledger currency
	MinAmount float64
	MaxAmount float64
	Currency  string

	// Provider call budget; on expiry the record is left for reconciliation
	ProviderTimeout time.Duration
}

// ReconcileConfig holds the reconciliation job configuration
type ReconcileConfig struct {
	LookBackHours int
	StaleHoldDays int
	BatchSize     int
	// Pause between provider status calls to throttle request rate
	ThrottleDelay time.Duration
	// How often the reconciler ticks
	Interval time.Duration
}

// LoadPaymentConfig loads payment limits from the environment
func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		MinAmount:       getEnvFloat("PAYMENT_MIN_AMOUNT", 1),
		MaxAmount:       getEnvFloat("PAYMENT_MAX_AMOUNT", 1_000_000),
		Currency:        getEnv("PAYMENT_CURRENCY", "ZMW"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
	}
}

// LoadReconcileConfig loads reconciliation defaults from the environment
func LoadReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		LookBackHours: getEnvInt("RECONCILE_LOOKBACK_HOURS", 24),
		StaleHoldDays: getEnvInt("RECONCILE_STALE_HOLD_DAYS", 7),
		BatchSize:     getEnvInt("RECONCILE_BATCH_SIZE", 50),
		ThrottleDelay: getEnvDuration("RECONCILE_THROTTLE_DELAY", 100*time.Millisecond),
		Interval:      getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
