package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/invoiceforge/invoiceforge/internal/domain/invoice"
	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
	"github.com/invoiceforge/invoiceforge/internal/types"
)

// InvoiceRequest is the JSON shape the command line driver accepts. Amounts
// may be JSON numbers or strings; both unmarshal into decimals exactly.
type InvoiceRequest struct {
	Seller        PartyRequest `json:"seller" validate:"required"`
	Buyer         PartyRequest `json:"buyer" validate:"required"`
	InvoiceNumber string       `json:"invoice_number"`
	IssueDate     string       `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string       `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	// CurrencySymbol distinguishes absent (default applies) from explicitly
	// empty (amounts rendered bare).
	CurrencySymbol  *string           `json:"currency_symbol"`
	LineItems       []LineItemRequest `json:"line_items" validate:"required,min=1,dive"`
	LogoPath        string            `json:"logo_path"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	Notes           string            `json:"notes"`
}

type PartyRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type LineItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ToInvoice converts the request into the domain model. A missing invoice
// number is derived from the clock, matching the classic
// invoice_YYYYMMDDHHMMSS naming. currencyDefault is applied when the
// request leaves the symbol absent.
func (r *InvoiceRequest) ToInvoice(now time.Time, currencyDefault string) (*invoice.Invoice, error) {
	issueDate := now
	if r.IssueDate != "" {
		parsed, err := time.Parse(types.DateFormat, r.IssueDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("issue_date %q is not a valid %s date", r.IssueDate, types.DateFormat).
				Mark(ierr.ErrValidation)
		}
		issueDate = parsed
	}

	var dueDate *time.Time
	if r.DueDate != "" {
		parsed, err := time.Parse(types.DateFormat, r.DueDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("due_date %q is not a valid %s date", r.DueDate, types.DateFormat).
				Mark(ierr.ErrValidation)
		}
		dueDate = &parsed
	}

	number := r.InvoiceNumber
	if number == "" {
		number = now.Format("20060102150405")
	}

	symbol := r.CurrencySymbol
	if symbol == nil && currencyDefault != "" {
		symbol = &currencyDefault
	}

	return &invoice.Invoice{
		Seller:         invoice.Party(r.Seller),
		Buyer:          invoice.Party(r.Buyer),
		InvoiceNumber:  number,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		CurrencySymbol: symbol,
		LineItems: lo.Map(r.LineItems, func(li LineItemRequest, _ int) invoice.LineItem {
			return invoice.LineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				UnitPrice:   li.UnitPrice,
			}
		}),
		LogoPath:        r.LogoPath,
		DiscountPercent: r.DiscountPercent,
		Notes:           r.Notes,
	}, nil
}
