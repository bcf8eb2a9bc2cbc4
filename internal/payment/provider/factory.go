package provider

import (
	"fmt"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

// Resolver maps a provider identifier to an adapter. The orchestrator and the
// reconciliation service depend on this, not on the concrete factory.
type Resolver interface {
	Get(providerID string) (PaymentProvider, error)
}

// Factory holds one adapter instance per supported provider, each wrapped in
// a circuit breaker. Unsupported identifiers resolve to an error, never to a
// nil adapter.
type Factory struct {
	providers map[string]PaymentProvider
}

// NewFactory builds the adapter registry. The fault policy is shared by all
// sandbox adapters; production wiring passes NoFaults.
func NewFactory(faults FaultPolicy) *Factory {
	return &Factory{providers: map[string]PaymentProvider{
		domain.ProviderAirtelMoney:  wrapMobile(NewAirtelMoney(faults)),
		domain.ProviderMTNMoMo:      wrapMobile(NewMTNMoMo(faults)),
		domain.ProviderZamtelKwacha: wrapMobile(NewZamtelKwacha(faults)),
		domain.ProviderStripe:       wrapCard(NewStripe(faults)),
		domain.ProviderDPO:          wrapCard(NewDPO(faults)),
	}}
}

func wrapMobile(p MobileMoneyProvider) PaymentProvider {
	return &mobileBreakerProvider{
		breakerProvider: breakerProvider{inner: p, cb: newBreaker(p.Name())},
		mobile:          p,
	}
}

func wrapCard(p CardProvider) PaymentProvider {
	return &cardBreakerProvider{
		breakerProvider: breakerProvider{inner: p, cb: newBreaker(p.Name())},
		card:            p,
	}
}

// Get resolves a provider identifier to its adapter
func (f *Factory) Get(providerID string) (PaymentProvider, error) {
	p, ok := f.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("unsupported payment provider: %s", providerID)
	}
	return p, nil
}

// MobileMoneyService returns a handle narrowed to the mobile-money capability
func (f *Factory) MobileMoneyService(providerID string) (MobileMoneyProvider, error) {
	p, err := f.Get(providerID)
	if err != nil {
		return nil, err
	}
	mm, ok := p.(MobileMoneyProvider)
	if !ok {
		return nil, fmt.Errorf("provider %s is not a mobile money service", providerID)
	}
	return mm, nil
}

// CardService returns a handle narrowed to the card capability
func (f *Factory) CardService(providerID string) (CardProvider, error) {
	p, err := f.Get(providerID)
	if err != nil {
		return nil, err
	}
	c, ok := p.(CardProvider)
	if !ok {
		return nil, fmt.Errorf("provider %s is not a card payment service", providerID)
	}
	return c, nil
}

// IsMobileMoneyProvider reports whether the identifier names a wallet rail
func (f *Factory) IsMobileMoneyProvider(providerID string) bool {
	p, ok := f.providers[providerID]
	if !ok {
		return false
	}
	_, mm := p.(MobileMoneyProvider)
	return mm
}

// IsCardPaymentProvider reports whether the identifier names a card rail
func (f *Factory) IsCardPaymentProvider(providerID string) bool {
	p, ok := f.providers[providerID]
	if !ok {
		return false
	}
	_, c := p.(CardProvider)
	return c
}

// SupportedProviders lists the registered provider identifiers in a stable
// order
func (f *Factory) SupportedProviders() []string {
	return []string{
		domain.ProviderAirtelMoney,
		domain.ProviderMTNMoMo,
		domain.ProviderZamtelKwacha,
		domain.ProviderStripe,
		domain.ProviderDPO,
	}
}
