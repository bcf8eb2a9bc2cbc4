package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/zemo-rentals/payment-engine/pkg/logger"
)

// breakerProvider shields a rail adapter with a circuit breaker so a
// misbehaving provider fails fast instead of tying up request handlers
type breakerProvider struct {
	inner PaymentProvider
	cb    *gobreaker.CircuitBreaker
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state changed")
		},
	})
}

// WithBreaker wraps a provider's base contract with a circuit breaker
func WithBreaker(inner PaymentProvider) PaymentProvider {
	return &breakerProvider{inner: inner, cb: newBreaker(inner.Name())}
}

func (b *breakerProvider) Name() string {
	return b.inner.Name()
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (*T, error)) (*T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}

func (b *breakerProvider) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	return execute(b.cb, func() (*PaymentResult, error) { return b.inner.ProcessPayment(ctx, req) })
}

func (b *breakerProvider) HoldFunds(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	return execute(b.cb, func() (*HoldResult, error) { return b.inner.HoldFunds(ctx, req) })
}

func (b *breakerProvider) CaptureFunds(ctx context.Context, holdID string, amount float64) (*PaymentResult, error) {
	return execute(b.cb, func() (*PaymentResult, error) { return b.inner.CaptureFunds(ctx, holdID, amount) })
}

func (b *breakerProvider) ReleaseFunds(ctx context.Context, holdID string) (*PaymentResult, error) {
	return execute(b.cb, func() (*PaymentResult, error) { return b.inner.ReleaseFunds(ctx, holdID) })
}

func (b *breakerProvider) RefundPayment(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	return execute(b.cb, func() (*RefundResult, error) { return b.inner.RefundPayment(ctx, req) })
}

func (b *breakerProvider) GetPaymentStatus(ctx context.Context, providerTransactionID string) (*StatusResult, error) {
	return execute(b.cb, func() (*StatusResult, error) { return b.inner.GetPaymentStatus(ctx, providerTransactionID) })
}

// mobileBreakerProvider extends the breaker to the mobile-money capability
type mobileBreakerProvider struct {
	breakerProvider
	mobile MobileMoneyProvider
}

func (b *mobileBreakerProvider) InitiateMobilePayment(ctx context.Context, req MobileMoneyRequest) (*MobileMoneyResult, error) {
	return execute(b.cb, func() (*MobileMoneyResult, error) { return b.mobile.InitiateMobilePayment(ctx, req) })
}

func (b *mobileBreakerProvider) CheckMobilePaymentStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	return execute(b.cb, func() (*StatusResult, error) { return b.mobile.CheckMobilePaymentStatus(ctx, transactionID) })
}

// cardBreakerProvider extends the breaker to the card capability
type cardBreakerProvider struct {
	breakerProvider
	card CardProvider
}

func (b *cardBreakerProvider) TokenizeCard(ctx context.Context, req TokenizeCardRequest) (*TokenizeCardResult, error) {
	return execute(b.cb, func() (*TokenizeCardResult, error) { return b.card.TokenizeCard(ctx, req) })
}
