package command

import (
	"context"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
)

// TokenizeCardCommand exchanges raw card details for a reusable token.
// Card data is never persisted; only the token leaves this handler.
type TokenizeCardCommand struct {
	Provider       string
	CardNumber     string
	ExpiryMonth    int
	ExpiryYear     int
	CVV            string
	CardholderName string
	CustomerID     string
}

type TokenizeCardHandler struct {
	providers       CardRegistry
	providerTimeout time.Duration
}

// CardRegistry is the slice of the provider registry the tokenizer needs
type CardRegistry interface {
	CardService(providerID string) (provider.CardProvider, error)
}

func NewTokenizeCardHandler(providers CardRegistry, providerTimeout time.Duration) *TokenizeCardHandler {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &TokenizeCardHandler{providers: providers, providerTimeout: providerTimeout}
}

func (h *TokenizeCardHandler) Handle(ctx context.Context, cmd TokenizeCardCommand) (*provider.TokenizeCardResult, error) {
	card, err := h.providers.CardService(cmd.Provider)
	if err != nil {
		return nil, domain.NewValidationError("provider", err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	result, err := card.TokenizeCard(callCtx, provider.TokenizeCardRequest{
		CardNumber:     cmd.CardNumber,
		ExpiryMonth:    cmd.ExpiryMonth,
		ExpiryYear:     cmd.ExpiryYear,
		CVV:            cmd.CVV,
		CardholderName: cmd.CardholderName,
		CustomerID:     cmd.CustomerID,
	})
	if err != nil {
		return nil, &domain.ProviderError{Provider: cmd.Provider, Transient: true, Reason: err.Error()}
	}
	if !result.Success {
		return nil, domain.NewValidationError("card", result.FailureReason)
	}
	return result, nil
}
