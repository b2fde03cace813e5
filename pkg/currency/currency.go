// Package currency provides currency codes and formatting for scraped product prices.
// All monetary amounts are stored as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Currencies with display metadata.
const (
	INR Currency = "INR" // Indian Rupee
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is used whenever a page gives no usable currency hint.
const DefaultCurrency = INR

// CurrencyInfo contains metadata about a currency.
type CurrencyInfo struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int
	SymbolBefore  bool
}

var currencies = map[Currency]CurrencyInfo{
	INR: {Code: INR, Name: "Indian Rupee", Symbol: "₹", DecimalPlaces: 2, SymbolBefore: true},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, SymbolBefore: true},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", DecimalPlaces: 2, SymbolBefore: true},
	GBP: {Code: GBP, Name: "British Pound", Symbol: "£", DecimalPlaces: 2, SymbolBefore: true},
}

// Symbols lists every currency marker stripped from price text before parsing.
var Symbols = []string{"₹", "Rs.", "Rs", "INR", "$", "USD", "€", "EUR", "£", "GBP"}

// IsValid reports whether code is shaped like an ISO 4217 code: three ASCII letters.
func IsValid(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (CurrencyInfo, bool) {
	info, ok := currencies[code]
	return info, ok
}

// FromSymbol infers a currency from raw price text. Only the rupee and dollar
// signs are recognised; everything else falls back to INR.
func FromSymbol(priceText string) Currency {
	switch {
	case strings.Contains(priceText, "₹"):
		return INR
	case strings.Contains(priceText, "$"):
		return USD
	default:
		return DefaultCurrency
	}
}

// Normalize returns the upper-cased code when it is well formed, DefaultCurrency otherwise.
func Normalize(code string) Currency {
	if !IsValid(code) {
		return DefaultCurrency
	}
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

// Format renders an amount with the currency's symbol, e.g. "₹1499.00".
func Format(amount decimal.Decimal, code string) string {
	info, ok := GetInfo(Currency(code))
	if !ok {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
	}

	fixed := amount.Round(int32(info.DecimalPlaces)).StringFixed(int32(info.DecimalPlaces))
	if info.SymbolBefore {
		return info.Symbol + fixed
	}
	return fixed + info.Symbol
}
