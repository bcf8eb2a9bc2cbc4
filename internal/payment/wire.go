//go:build wireinject
// +build wireinject

package payment

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment/handler"
	"github.com/zemo-rentals/payment-engine/internal/payment/idempotency"
	"github.com/zemo-rentals/payment-engine/internal/payment/reconcile"
	"github.com/zemo-rentals/payment-engine/kafka"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvidePaymentRepository,
	ProvideBookingService,
)

var ProviderSet = wire.NewSet(
	ProvideProviderFactory,
	ProvideProviderRegistry,
	ProvideCardRegistry,
	ProvideProviderResolver,
	ProvideProviderCatalog,
	ProvideEventPublisher,
	ProvideReconcilePublisher,
)

var CommandHandlerSet = wire.NewSet(
	ProvideProcessPaymentHandler,
	ProvideCaptureHoldHandler,
	ProvideReleaseHoldHandler,
	ProvideRefundPaymentHandler,
	ProvideTokenizeCardHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetPaymentHandler,
	ProvideGetBookingPaymentsHandler,
	ProvideListPaymentsHandler,
	ProvideListProvidersHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	ProviderSet,
	CommandHandlerSet,
	QueryHandlerSet,
	ProvideReconcileService,
)

// InitializeHandler initializes payment handler with all dependencies
func InitializeHandler(db *gorm.DB, publisher *kafka.Publisher, keys idempotency.Store, paymentCfg config.PaymentConfig, reconcileCfg config.ReconcileConfig) (*handler.PaymentHandler, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewPaymentHandler,
	)
	return nil, nil
}

// InitializeReconcileService initializes the standalone reconciliation service
func InitializeReconcileService(db *gorm.DB, publisher *kafka.Publisher, reconcileCfg config.ReconcileConfig) (*reconcile.Service, error) {
	wire.Build(
		RepositorySet,
		ProvideProviderFactory,
		ProvideProviderResolver,
		ProvideReconcilePublisher,
		ProvideReconcileService,
	)
	return nil, nil
}
