package provider

import (
	"context"
	"strings"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/paymentutil"
)

// cardSandbox adds the card capability to a sandbox adapter
type cardSandbox struct {
	sandboxCore
	tokenPrefix string
}

// TokenizeCard exchanges card details for an opaque token. Malformed card
// numbers are rejected before any simulated network call.
func (c *cardSandbox) TokenizeCard(ctx context.Context, req TokenizeCardRequest) (*TokenizeCardResult, error) {
	number := strings.ReplaceAll(req.CardNumber, " ", "")

	if reason := validateCard(number, req); reason != "" {
		return &TokenizeCardResult{Success: false, FailureReason: reason}, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	return &TokenizeCardResult{
		Success:     true,
		Token:       paymentutil.GenerateTransactionID(c.tokenPrefix),
		Last4:       number[len(number)-4:],
		Brand:       cardBrand(number),
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
	}, nil
}

func validateCard(number string, req TokenizeCardRequest) string {
	if len(number) < 13 || len(number) > 19 {
		return "invalid card number length"
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return "card number must contain only digits"
		}
	}
	if !luhnValid(number) {
		return "invalid card number"
	}
	if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
		return "invalid expiry month"
	}
	if req.ExpiryYear < time.Now().Year() {
		return "card is expired"
	}
	if len(req.CVV) < 3 || len(req.CVV) > 4 {
		return "invalid CVV"
	}
	if len(req.CardholderName) < 2 {
		return "cardholder name required"
	}
	return ""
}

// luhnValid runs the standard mod-10 checksum
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "5") || strings.HasPrefix(number, "2"):
		return "Mastercard"
	case strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37"):
		return "American Express"
	default:
		return "Unknown"
	}
}
