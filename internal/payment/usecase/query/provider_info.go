package query

import (
	"context"

	"github.com/zemo-rentals/payment-engine/internal/payment/paymentutil"
)

// ProviderCatalog is the slice of the provider registry the listing needs
type ProviderCatalog interface {
	SupportedProviders() []string
	IsMobileMoneyProvider(providerID string) bool
}

// ProviderInfo describes one rail as shown to clients
type ProviderInfo struct {
	Provider       string  `json:"provider"`
	Type           string  `json:"type"`
	ServiceFeeRate float64 `json:"service_fee_rate"`
}

// Limits are the global amount bounds advertised alongside the rails
type Limits struct {
	MinAmount float64 `json:"min_amount"`
	MaxAmount float64 `json:"max_amount"`
	Currency  string  `json:"currency"`
}

// ProviderListing is the full listing payload
type ProviderListing struct {
	Providers []ProviderInfo `json:"providers"`
	Limits    Limits         `json:"limits"`
}

type ListProvidersHandler struct {
	catalog ProviderCatalog
}

func NewListProvidersHandler(catalog ProviderCatalog) *ListProvidersHandler {
	return &ListProvidersHandler{catalog: catalog}
}

func (h *ListProvidersHandler) Handle(ctx context.Context) ProviderListing {
	ids := h.catalog.SupportedProviders()
	infos := make([]ProviderInfo, 0, len(ids))
	for _, id := range ids {
		kind := "CARD"
		if h.catalog.IsMobileMoneyProvider(id) {
			kind = "MOBILE_MONEY"
		}
		infos = append(infos, ProviderInfo{
			Provider:       id,
			Type:           kind,
			ServiceFeeRate: paymentutil.ServiceFeeRate(id),
		})
	}
	return ProviderListing{
		Providers: infos,
		Limits: Limits{
			MinAmount: paymentutil.MinAmount,
			MaxAmount: paymentutil.MaxAmount,
			Currency:  paymentutil.DefaultCurrency,
		},
	}
}
