// Package paymentutil holds the validation and formatting helpers shared by
// the provider adapters and the orchestrator.
package paymentutil

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

// Global amount limits in ZMW
const (
	MinAmount = 1.0
	MaxAmount = 1_000_000.0

	DefaultCurrency = "ZMW"
)

// Zambian MSISDN: optional +260 or leading 0, then a 9-digit subscriber
// number starting with 7-9
var zambianPhoneRegex = regexp.MustCompile(`^(\+260|0)?[7-9][0-9]{8}$`)

var serviceFeeRates = map[string]float64{
	domain.ProviderAirtelMoney:  0.015,
	domain.ProviderMTNMoMo:      0.015,
	domain.ProviderZamtelKwacha: 0.02,
	domain.ProviderStripe:       0.029,
	domain.ProviderDPO:          0.025,
}

const defaultServiceFeeRate = 0.02

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ValidateAmount reports whether amount lies within the global limits
func ValidateAmount(amount float64) bool {
	return amount >= MinAmount && amount <= MaxAmount
}

// ValidatePhoneNumber reports whether phoneNumber is a valid Zambian MSISDN
func ValidatePhoneNumber(phoneNumber string) bool {
	return zambianPhoneRegex.MatchString(strings.ReplaceAll(phoneNumber, " ", ""))
}

// NormalizePhoneNumber maps local and bare subscriber formats to the
// international +260 form. Applying it twice is a no-op.
func NormalizePhoneNumber(phoneNumber string) string {
	normalized := strings.ReplaceAll(phoneNumber, " ", "")
	switch {
	case strings.HasPrefix(normalized, "+260"):
		return normalized
	case strings.HasPrefix(normalized, "0"):
		return "+260" + normalized[1:]
	default:
		return "+260" + normalized
	}
}

// ValidateCurrency reports whether currency is a 3-letter code
func ValidateCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ServiceFeeRate returns the fee rate charged for a provider
func ServiceFeeRate(provider string) float64 {
	if rate, ok := serviceFeeRates[provider]; ok {
		return rate
	}
	return defaultServiceFeeRate
}

// CalculateServiceFee returns the provider fee for an amount, rounded to two
// decimal places
func CalculateServiceFee(amount float64, provider string) float64 {
	return math.Round(amount*ServiceFeeRate(provider)*100) / 100
}

// GenerateTransactionID builds an opaque reference of the form
// <PREFIX>-<unix-millis>-<6 random uppercase alphanumerics>. Uniqueness rests
// on timestamp plus randomness; these are references, not security tokens.
func GenerateTransactionID(prefix string) string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteByte(idAlphabet[rand.Intn(len(idAlphabet))])
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), b.String())
}

// FormatAmount renders an amount with its currency code
func FormatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}
