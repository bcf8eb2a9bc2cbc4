// Package pricing holds the booking price calculator and the date overlap
// guard. The orchestrator charges the calculator's total verbatim; it is
// never recomputed at charge time.
package pricing

import (
	"math"
	"time"
)

// Default pricing parameters
const (
	DefaultWeekendMultiplier = 1.2
	DefaultServiceFeeRate    = 0.1
	DefaultTaxRate           = 0.16
)

// Options tunes the price calculation
type Options struct {
	WeekendMultiplier float64
	ServiceFeeRate    float64
	TaxRate           float64
}

// DefaultOptions returns the standard multipliers
func DefaultOptions() Options {
	return Options{
		WeekendMultiplier: DefaultWeekendMultiplier,
		ServiceFeeRate:    DefaultServiceFeeRate,
		TaxRate:           DefaultTaxRate,
	}
}

// Quote is the priced breakdown of a booking
type Quote struct {
	TotalDays   int     `json:"total_days"`
	WeekendDays int     `json:"weekend_days"`
	Weekdays    int     `json:"weekdays"`
	Subtotal    float64 `json:"subtotal"`
	ServiceFee  float64 `json:"service_fee"`
	TaxAmount   float64 `json:"tax_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// CalculateBookingPrice prices a rental of [start, end). Days are billed
// whole: partial days round up, and weekend pricing applies to calendar
// Saturdays and Sundays within the billed span.
func CalculateBookingPrice(dailyRate float64, start, end time.Time, opts Options) Quote {
	totalDays := int(math.Ceil(math.Abs(end.Sub(start).Hours()) / 24))

	weekendDays := 0
	day := start
	for i := 0; i < totalDays; i++ {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekendDays++
		}
		day = day.AddDate(0, 0, 1)
	}

	weekdays := totalDays - weekendDays
	subtotal := float64(weekdays)*dailyRate + float64(weekendDays)*dailyRate*opts.WeekendMultiplier
	serviceFee := subtotal * opts.ServiceFeeRate
	tax := (subtotal + serviceFee) * opts.TaxRate

	return Quote{
		TotalDays:   totalDays,
		WeekendDays: weekendDays,
		Weekdays:    weekdays,
		Subtotal:    subtotal,
		ServiceFee:  serviceFee,
		TaxAmount:   tax,
		TotalAmount: subtotal + serviceFee + tax,
	}
}

// DateRangesOverlap is the half-open interval test used before creating a new
// hold. Ranges that merely touch do not overlap.
func DateRangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
