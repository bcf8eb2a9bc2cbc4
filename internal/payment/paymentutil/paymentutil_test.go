package paymentutil

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   bool
	}{
		{"minimum", 1, true},
		{"maximum", 1_000_000, true},
		{"typical", 450.75, true},
		{"below minimum", 0.99, false},
		{"zero", 0, false},
		{"negative", -50, false},
		{"above maximum", 1_000_000.01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAmount(tt.amount); got != tt.want {
				t.Errorf("ValidateAmount(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"international", "+260971234567", true},
		{"local", "0971234567", true},
		{"bare subscriber", "971234567", true},
		{"with spaces", "+260 97 123 4567", true},
		{"mtn prefix", "0761234567", true},
		{"zamtel prefix", "0951234567", true},
		{"subscriber starts below 7", "0561234567", false},
		{"too short", "09712345", false},
		{"too long", "09712345678", false},
		{"wrong country code", "+254971234567", false},
		{"letters", "09712345ab", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePhoneNumber(tt.phone); got != tt.want {
				t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0971234567", "+260971234567"},
		{"971234567", "+260971234567"},
		{"+260971234567", "+260971234567"},
		{"097 123 4567", "+260971234567"},
	}
	for _, tt := range tests {
		if got := NormalizePhoneNumber(tt.in); got != tt.want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhoneNumberIdempotent(t *testing.T) {
	once := NormalizePhoneNumber("0971234567")
	twice := NormalizePhoneNumber(once)
	if once != twice {
		t.Errorf("normalization not idempotent: %q != %q", once, twice)
	}
}

func TestValidateCurrency(t *testing.T) {
	valid := []string{"ZMW", "USD", "EUR"}
	for _, c := range valid {
		if !ValidateCurrency(c) {
			t.Errorf("ValidateCurrency(%q) = false, want true", c)
		}
	}
	invalid := []string{"", "ZM", "ZMWK", "zmw", "Z1W"}
	for _, c := range invalid {
		if ValidateCurrency(c) {
			t.Errorf("ValidateCurrency(%q) = true, want false", c)
		}
	}
}

func TestServiceFeeRates(t *testing.T) {
	tests := []struct {
		provider string
		want     float64
	}{
		{domain.ProviderAirtelMoney, 0.015},
		{domain.ProviderMTNMoMo, 0.015},
		{domain.ProviderZamtelKwacha, 0.02},
		{domain.ProviderStripe, 0.029},
		{domain.ProviderDPO, 0.025},
		{"UNKNOWN", 0.02},
	}
	for _, tt := range tests {
		if got := ServiceFeeRate(tt.provider); got != tt.want {
			t.Errorf("ServiceFeeRate(%q) = %v, want %v", tt.provider, got, tt.want)
		}
	}
}

func TestCalculateServiceFee(t *testing.T) {
	// 1000 * 0.029 = 29.00
	if got := CalculateServiceFee(1000, domain.ProviderStripe); got != 29 {
		t.Errorf("CalculateServiceFee(1000, STRIPE) = %v, want 29", got)
	}
	// 333.33 * 0.015 = 4.99995, rounds to 5.00
	if got := CalculateServiceFee(333.33, domain.ProviderAirtelMoney); math.Abs(got-5.00) > 1e-9 {
		t.Errorf("CalculateServiceFee(333.33, AIRTEL_MONEY) = %v, want 5.00", got)
	}
}

func TestGenerateTransactionID(t *testing.T) {
	pattern := regexp.MustCompile(`^AM-\d+-[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateTransactionID("AM")
		if !pattern.MatchString(id) {
			t.Fatalf("GenerateTransactionID produced malformed id %q", id)
		}
		if !strings.HasPrefix(id, "AM-") {
			t.Fatalf("id %q missing prefix", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("expected distinct ids across calls")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(450.5, "ZMW"); got != "ZMW 450.50" {
		t.Errorf("FormatAmount = %q, want %q", got, "ZMW 450.50")
	}
}
