package invoice

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/invoiceforge/invoiceforge/internal/types"
)

// Invoice represents the invoice domain model. It is plain data; callers
// assemble one, run Validate and hand the result to the renderer. The core
// never mutates an Invoice it was given.
type Invoice struct {
	Seller        Party      `json:"seller"`
	Buyer         Party      `json:"buyer"`
	InvoiceNumber string     `json:"invoice_number"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	// CurrencySymbol is used verbatim as a prefix on amounts. nil means
	// "unset" and resolves to types.DefaultCurrencySymbol; a pointer to the
	// empty string disables the prefix entirely.
	CurrencySymbol  *string         `json:"currency_symbol,omitempty"`
	LineItems       []LineItem      `json:"line_items"`
	LogoPath        string          `json:"logo_path,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Notes           string          `json:"notes,omitempty"`
}

// Party identifies one side of the invoice
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// AddressLines splits the free text address into printable lines
func (p Party) AddressLines() []string {
	return lo.FilterMap(strings.Split(p.Address, "\n"), func(line string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(line)
		return trimmed, trimmed != ""
	})
}

// Totals holds every derived monetary value of an invoice
type Totals struct {
	LineTotals     []decimal.Decimal `json:"line_totals"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	GrandTotal     decimal.Decimal   `json:"grand_total"`
}

// ValidatedInvoice is an invoice that passed Validate, frozen together with
// its computed totals and resolved currency symbol.
type ValidatedInvoice struct {
	Invoice  Invoice `json:"invoice"`
	Currency string  `json:"currency"`
	Totals   Totals  `json:"totals"`
}

// Currency resolves the display symbol, applying the package default when
// the invoice leaves it unset.
func (i *Invoice) Currency() string {
	if i.CurrencySymbol == nil {
		return types.DefaultCurrencySymbol
	}
	return *i.CurrencySymbol
}

// ComputeTotals derives all monetary totals. It is a pure function of the
// line items and discount percent, deterministic and side effect free, so a
// UI can call it for live previews before the invoice is final.
func (i *Invoice) ComputeTotals() Totals {
	lineTotals := lo.Map(i.LineItems, func(li LineItem, _ int) decimal.Decimal {
		return li.Total()
	})

	subtotal := types.RoundAmount(decimal.Sum(decimal.Zero, lineTotals...))
	discount := types.RoundAmount(subtotal.Mul(i.DiscountPercent).Div(decimal.NewFromInt(100)))

	return Totals{
		LineTotals:     lineTotals,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		GrandTotal:     subtotal.Sub(discount),
	}
}

// Validate checks every invariant and on success returns an immutable copy
// with derived totals computed. Checks run in a fixed order so the first
// reported problem is stable: line item presence, required header fields,
// per-row amounts, then the discount range.
func (i *Invoice) Validate() (*ValidatedInvoice, error) {
	if len(i.LineItems) == 0 {
		return nil, ErrEmptyLineItems
	}

	if strings.TrimSpace(i.InvoiceNumber) == "" {
		return nil, NewMissingFieldError("invoice_number")
	}

	if strings.TrimSpace(i.Seller.Name) == "" {
		return nil, NewMissingFieldError("seller.name")
	}

	if strings.TrimSpace(i.Buyer.Name) == "" {
		return nil, NewMissingFieldError("buyer.name")
	}

	for row, li := range i.LineItems {
		if err := li.Validate(row); err != nil {
			return nil, err
		}
	}

	if i.DiscountPercent.IsNegative() {
		return nil, &ValidationError{Field: "discount_percent", Row: -1, Message: "must be non negative"}
	}
	if i.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Field: "discount_percent", Row: -1, Message: "must not exceed 100"}
	}

	return &ValidatedInvoice{
		Invoice:  i.clone(),
		Currency: i.Currency(),
		Totals:   i.ComputeTotals(),
	}, nil
}

// clone copies the invoice deeply enough that later mutation of the source
// can not reach through the validated copy.
func (i *Invoice) clone() Invoice {
	out := *i
	out.LineItems = make([]LineItem, len(i.LineItems))
	copy(out.LineItems, i.LineItems)
	if i.DueDate != nil {
		due := *i.DueDate
		out.DueDate = &due
	}
	if i.CurrencySymbol != nil {
		symbol := *i.CurrencySymbol
		out.CurrencySymbol = &symbol
	}
	return out
}

// Check re-runs every invariant on the embedded invoice and confirms the
// stored totals still match. The renderer uses it as a defensive gate since
// validation and rendering can be invoked independently.
func (v *ValidatedInvoice) Check() error {
	if v == nil {
		return &ValidationError{Field: "invoice", Row: -1, Message: "is missing"}
	}

	fresh, err := v.Invoice.Validate()
	if err != nil {
		return err
	}

	if !fresh.Totals.GrandTotal.Equal(v.Totals.GrandTotal) ||
		!fresh.Totals.Subtotal.Equal(v.Totals.Subtotal) ||
		len(fresh.Totals.LineTotals) != len(v.Totals.LineTotals) {
		return &ValidationError{Field: "totals", Row: -1, Message: "do not match the line items"}
	}

	return nil
}
