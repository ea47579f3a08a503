package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is applied when an invoice leaves its currency
// symbol unset. An explicitly empty symbol is respected and produces bare
// amounts.
const DefaultCurrencySymbol = "USD"

// DateFormat is the display format for invoice dates.
const DateFormat = "2006-01-02"

// RoundAmount rounds a monetary amount to 2 decimal places. Rounding is
// half-up at computation time so stored and displayed values always agree.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount renders an amount with exactly two decimals, prefixed with
// the currency symbol when one is set.
func FormatAmount(symbol string, amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	if strings.TrimSpace(symbol) == "" {
		return fixed
	}
	return symbol + " " + fixed
}
