package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

var defaultPriceTolerance = decimal.NewFromFloat(0.02)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictCreditRemainder makes supplier credits check against the invoice's outstanding
// amount (total - paid - credited) instead of total - paid.
//
// Set via env:
// - STRICT_CREDIT_REMAINDER=true
func StrictCreditRemainder() bool {
	return envBool("STRICT_CREDIT_REMAINDER")
}

// DocumentLocksEnabled turns on the redis document lock around receipt, invoice and
// settlement writes. Row locks still apply when it is off.
//
// Set via env:
// - DOCUMENT_LOCKS=true
func DocumentLocksEnabled() bool {
	return envBool("DOCUMENT_LOCKS")
}

// PriceTolerance is the maximum relative difference between an invoice line's unit price
// and the purchase line's unit price, as a fraction (0.02 = 2%).
//
// Set via env:
// - PRICE_TOLERANCE=0.02
func PriceTolerance() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("PRICE_TOLERANCE"))
	if raw == "" {
		return defaultPriceTolerance
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return defaultPriceTolerance
	}
	return d
}
