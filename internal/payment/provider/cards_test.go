package provider

import (
	"context"
	"testing"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

func TestTokenizeCard(t *testing.T) {
	f := NewFactory(NoFaults{})
	card, err := f.CardService(domain.ProviderStripe)
	if err != nil {
		t.Fatalf("CardService error: %v", err)
	}

	res, err := card.TokenizeCard(context.Background(), TokenizeCardRequest{
		CardNumber:     "4242 4242 4242 4242",
		ExpiryMonth:    12,
		ExpiryYear:     2030,
		CVV:            "123",
		CardholderName: "Chanda Mwila",
	})
	if err != nil {
		t.Fatalf("TokenizeCard error: %v", err)
	}
	if !res.Success {
		t.Fatalf("tokenization declined: %s", res.FailureReason)
	}
	if res.Token == "" {
		t.Error("expected a non-empty token")
	}
	if res.Last4 != "4242" {
		t.Errorf("Last4 = %q, want 4242", res.Last4)
	}
	if res.Brand != "Visa" {
		t.Errorf("Brand = %q, want Visa", res.Brand)
	}
}

func TestTokenizeCardRejectsBadInput(t *testing.T) {
	f := NewFactory(NoFaults{})
	card, _ := f.CardService(domain.ProviderDPO)
	ctx := context.Background()

	base := TokenizeCardRequest{
		CardNumber:     "4242424242424242",
		ExpiryMonth:    6,
		ExpiryYear:     2031,
		CVV:            "456",
		CardholderName: "Bwalya Banda",
	}

	tests := []struct {
		name   string
		mutate func(*TokenizeCardRequest)
	}{
		{"luhn failure", func(r *TokenizeCardRequest) { r.CardNumber = "4242424242424241" }},
		{"too short", func(r *TokenizeCardRequest) { r.CardNumber = "42424242" }},
		{"non numeric", func(r *TokenizeCardRequest) { r.CardNumber = "4242abcd42424242" }},
		{"bad month", func(r *TokenizeCardRequest) { r.ExpiryMonth = 13 }},
		{"expired year", func(r *TokenizeCardRequest) { r.ExpiryYear = 2020 }},
		{"bad cvv", func(r *TokenizeCardRequest) { r.CVV = "12" }},
		{"missing name", func(r *TokenizeCardRequest) { r.CardholderName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			res, err := card.TokenizeCard(ctx, req)
			if err != nil {
				t.Fatalf("validation failure must not be a transport error: %v", err)
			}
			if res.Success {
				t.Error("expected tokenization to be declined")
			}
		})
	}
}

func TestCardBrandDetection(t *testing.T) {
	f := NewFactory(NoFaults{})
	card, _ := f.CardService(domain.ProviderStripe)
	ctx := context.Background()

	tests := []struct {
		number string
		brand  string
	}{
		{"4242424242424242", "Visa"},
		{"5555555555554444", "Mastercard"},
		{"378282246310005", "Amex"},
	}
	for _, tt := range tests {
		res, err := card.TokenizeCard(ctx, TokenizeCardRequest{
			CardNumber:     tt.number,
			ExpiryMonth:    3,
			ExpiryYear:     2032,
			CVV:            "789",
			CardholderName: "Mutale Zulu",
		})
		if err != nil || !res.Success {
			t.Fatalf("TokenizeCard(%q) failed: %v %+v", tt.number, err, res)
		}
		if res.Brand != tt.brand {
			t.Errorf("brand for %q = %q, want %q", tt.number, res.Brand, tt.brand)
		}
	}
}
