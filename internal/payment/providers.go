// Package payment assembles the payment engine from its parts. The Provide
// functions are consumed by Wire; wire_gen.go holds the generated injectors.
package payment

import (
	"gorm.io/gorm"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/internal/payment/reconcile"
	"github.com/zemo-rentals/payment-engine/internal/payment/repository"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/command"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/query"
	"github.com/zemo-rentals/payment-engine/kafka"
)

// ProvidePaymentRepository provides the traced ledger repository
func ProvidePaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return repository.NewGormPaymentRepositoryWithTracing(db)
}

// ProvideBookingService provides the booking status service
func ProvideBookingService(db *gorm.DB) domain.BookingService {
	return repository.NewGormBookingService(db)
}

// ProvideProviderFactory provides the provider adapter registry
func ProvideProviderFactory() *provider.Factory {
	return provider.NewFactory(provider.NoFaults{})
}

func ProvideProviderRegistry(f *provider.Factory) command.ProviderRegistry {
	return f
}

func ProvideCardRegistry(f *provider.Factory) command.CardRegistry {
	return f
}

func ProvideProviderResolver(f *provider.Factory) provider.Resolver {
	return f
}

func ProvideProviderCatalog(f *provider.Factory) query.ProviderCatalog {
	return f
}

// ProvideEventPublisher adapts an optional Kafka publisher for the command
// handlers. A nil *kafka.Publisher must become a nil interface.
func ProvideEventPublisher(p *kafka.Publisher) command.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func ProvideReconcilePublisher(p *kafka.Publisher) reconcile.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// Command Handlers Providers
func ProvideProcessPaymentHandler(repo domain.PaymentRepository, bookings domain.BookingService, providers command.ProviderRegistry, publisher command.EventPublisher, cfg config.PaymentConfig) *command.ProcessPaymentHandler {
	return command.NewProcessPaymentHandler(repo, bookings, providers, publisher, cfg.ProviderTimeout)
}

func ProvideCaptureHoldHandler(repo domain.PaymentRepository, providers command.ProviderRegistry, publisher command.EventPublisher, cfg config.PaymentConfig) *command.CaptureHoldHandler {
	return command.NewCaptureHoldHandler(repo, providers, publisher, cfg.ProviderTimeout)
}

func ProvideReleaseHoldHandler(repo domain.PaymentRepository, providers command.ProviderRegistry, publisher command.EventPublisher, cfg config.PaymentConfig) *command.ReleaseHoldHandler {
	return command.NewReleaseHoldHandler(repo, providers, publisher, cfg.ProviderTimeout)
}

func ProvideRefundPaymentHandler(repo domain.PaymentRepository, providers command.ProviderRegistry, publisher command.EventPublisher, cfg config.PaymentConfig) *command.RefundPaymentHandler {
	return command.NewRefundPaymentHandler(repo, providers, publisher, cfg.ProviderTimeout)
}

func ProvideTokenizeCardHandler(providers command.CardRegistry, cfg config.PaymentConfig) *command.TokenizeCardHandler {
	return command.NewTokenizeCardHandler(providers, cfg.ProviderTimeout)
}

// Query Handlers Providers
func ProvideGetPaymentHandler(repo domain.PaymentRepository) *query.GetPaymentHandler {
	return query.NewGetPaymentHandler(repo)
}

func ProvideGetBookingPaymentsHandler(repo domain.PaymentRepository) *query.GetBookingPaymentsHandler {
	return query.NewGetBookingPaymentsHandler(repo)
}

func ProvideListPaymentsHandler(repo domain.PaymentRepository) *query.ListPaymentsHandler {
	return query.NewListPaymentsHandler(repo)
}

func ProvideListProvidersHandler(catalog query.ProviderCatalog) *query.ListProvidersHandler {
	return query.NewListProvidersHandler(catalog)
}

// Reconciliation Provider
func ProvideReconcileService(repo domain.PaymentRepository, bookings domain.BookingService, resolver provider.Resolver, publisher reconcile.EventPublisher, cfg config.ReconcileConfig) *reconcile.Service {
	return reconcile.NewService(repo, bookings, resolver, publisher, cfg)
}
