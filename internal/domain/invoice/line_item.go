package invoice

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoiceforge/invoiceforge/internal/types"
)

// LineItem represents a single billable row in an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity * unit price rounded to 2 decimals, half-up.
// The value is derived on every call and never stored, so it can not go
// stale when a working copy is edited.
func (li LineItem) Total() decimal.Decimal {
	return types.RoundAmount(li.Quantity.Mul(li.UnitPrice))
}

// Validate checks the line item. row is the zero-based position within the
// invoice and is carried on every reported error.
func (li LineItem) Validate(row int) error {
	if strings.TrimSpace(li.Description) == "" {
		return NewInvalidAmountError(row, "description", "must not be empty")
	}

	if !li.Quantity.IsPositive() {
		return NewInvalidAmountError(row, "quantity", "must be greater than zero")
	}

	if li.UnitPrice.IsNegative() {
		return NewInvalidAmountError(row, "unit_price", "must be non negative")
	}

	return nil
}
