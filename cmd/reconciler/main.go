package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment"
	"github.com/zemo-rentals/payment-engine/internal/payment/reconcile"
	"github.com/zemo-rentals/payment-engine/kafka"
	"github.com/zemo-rentals/payment-engine/pkg/database"
	"github.com/zemo-rentals/payment-engine/pkg/logger"
	"github.com/zemo-rentals/payment-engine/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "payment-reconciler")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	logger.Logger.Info().
		Str("service", serviceName).
		Msg("Starting payment reconciler")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "paymentdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	var publisher *kafka.Publisher
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		publisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to initialize Kafka publisher, events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	reconcileCfg := config.LoadReconcileConfig()
	service, err := payment.InitializeReconcileService(db, publisher, reconcileCfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize reconciliation service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go run(ctx, service, reconcileCfg.Interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down reconciler...")
	cancel()
}

// run executes a pass immediately, then on every tick. A tick that arrives
// while a pass is still in flight is skipped.
func run(ctx context.Context, service *reconcile.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	inFlight := make(chan struct{}, 1)
	pass := func() {
		select {
		case inFlight <- struct{}{}:
		default:
			logger.Logger.Warn().Msg("Previous reconciliation pass still running, skipping tick")
			return
		}
		defer func() { <-inFlight }()

		if _, err := service.ReconcilePayments(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Reconciliation pass failed")
		}
		if _, err := service.ReconcileStaleHolds(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Stale hold sweep failed")
		}
	}

	pass()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go pass()
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
