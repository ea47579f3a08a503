package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/invoiceforge/invoiceforge/internal/config"
	"github.com/invoiceforge/invoiceforge/internal/domain/invoice"
	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
	"github.com/invoiceforge/invoiceforge/internal/imageio"
	"github.com/invoiceforge/invoiceforge/internal/logger"
	"github.com/invoiceforge/invoiceforge/internal/types"
)

// Generator defines the interface for PDF generation operations
type Generator interface {
	Render(ctx context.Context, v *invoice.ValidatedInvoice, outputPath string) (*Result, error)
}

// Result reports where the document landed and anything non fatal that
// happened on the way there.
type Result struct {
	Path     string
	Pages    int
	Warnings []string
}

type service struct {
	layout Layout
	images imageio.Loader
	logger *logger.Logger
}

// NewGenerator creates a new PDF generator service
func NewGenerator(cfg *config.Configuration, images imageio.Loader, log *logger.Logger) Generator {
	return &service{
		layout: LayoutFromConfig(cfg.Render),
		images: images,
		logger: log,
	}
}

const (
	maxSellerAddressLines = 3
	maxBuyerAddressLines  = 2
)

// Render lays the validated invoice out onto one or more pages and writes
// the document to outputPath. An existing file at that path is overwritten.
// The invariants are re-checked first: validation and rendering can be
// invoked independently, so a caller handing over a tampered value must not
// produce a wrong document. Nothing is written unless the whole document
// rendered cleanly.
func (s *service) Render(ctx context.Context, v *invoice.ValidatedInvoice, outputPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	if err := v.Check(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("invoice failed validation").
			Mark(ierr.ErrInvalidOperation)
	}

	buf, result, err := s.compose(v)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(outputPath, buf.Bytes()); err != nil {
		return nil, err
	}
	result.Path = outputPath

	s.logger.Debugw("rendered invoice",
		"invoice_number", v.Invoice.InvoiceNumber,
		"pages", result.Pages,
		"path", outputPath,
	)
	return result, nil
}

// compose renders the full document into memory
func (s *service) compose(v *invoice.ValidatedInvoice) (*bytes.Buffer, *Result, error) {
	l := s.layout
	doc := gofpdf.New("P", "mm", l.PageSize, "")
	// Creation date pinned to the issue date keeps repeated renders of the
	// same invoice byte identical.
	doc.SetCreationDate(v.Invoice.IssueDate)
	doc.SetCompression(l.Compress)
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(l.Margin, l.Margin, l.Margin)
	doc.AddPage()

	warnings := s.drawHeader(doc, v)

	y := l.tableTop()
	s.drawTableHead(doc, y)
	y += l.RowHeight

	for i, li := range v.Invoice.LineItems {
		// A row is placed whole or not at all on the current page.
		if y+l.RowHeight > l.rowLimit() {
			doc.AddPage()
			y = l.Margin
			s.drawTableHead(doc, y)
			y += l.RowHeight
		}
		s.drawRow(doc, y, li, v.Totals.LineTotals[i])
		y += l.RowHeight
	}

	y = s.drawTotals(doc, y, v)
	s.drawNotes(doc, y, v.Invoice.Notes)

	if doc.Err() {
		return nil, nil, ierr.WithError(doc.Error()).
			WithHint("pdf composition failed").
			Mark(ierr.ErrSystem)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("pdf composition failed").
			Mark(ierr.ErrSystem)
	}

	return &buf, &Result{Pages: doc.PageNo(), Warnings: warnings}, nil
}

// drawHeader draws the logo, seller block, invoice meta and buyer block on
// the first page. Logo problems are reported as warnings, never errors.
func (s *service) drawHeader(doc *gofpdf.Fpdf, v *invoice.ValidatedInvoice) []string {
	l := s.layout
	var warnings []string

	top := l.Margin
	if v.Invoice.LogoPath != "" {
		if err := s.placeLogo(doc, v.Invoice.LogoPath, l.Margin, top); err != nil {
			s.logger.Warnw("skipping logo", "path", v.Invoice.LogoPath, "error", err)
			warnings = append(warnings, fmt.Sprintf("logo skipped: %v", err))
		}
	}

	// Seller block sits to the right of the logo box whether or not a logo
	// was placed, so the layout is stable across both cases.
	sellerX := l.Margin + l.LogoMaxWidth + 5
	y := top + 5
	doc.SetFont(l.FontFamily, "B", 14)
	doc.Text(sellerX, y, v.Invoice.Seller.Name)
	doc.SetFont(l.FontFamily, "", 10)
	for i, line := range v.Invoice.Seller.AddressLines() {
		if i == maxSellerAddressLines {
			break
		}
		y += 5
		doc.Text(sellerX, y, line)
	}
	if v.Invoice.Seller.Contact != "" {
		y += 5
		doc.Text(sellerX, y, v.Invoice.Seller.Contact)
	}

	// Invoice meta, right aligned against the right margin
	right := l.PageWidth - l.Margin
	doc.SetFont(l.FontFamily, "B", 12)
	s.textRight(doc, right, top+5, "Invoice")
	doc.SetFont(l.FontFamily, "", 9)
	s.textRight(doc, right, top+11, "Invoice #: "+v.Invoice.InvoiceNumber)
	s.textRight(doc, right, top+16, "Date: "+v.Invoice.IssueDate.Format(types.DateFormat))
	if v.Invoice.DueDate != nil {
		s.textRight(doc, right, top+21, "Due: "+v.Invoice.DueDate.Format(types.DateFormat))
	}

	// Buyer block below the logo box
	y = top + l.LogoMaxHeight + 8
	doc.SetFont(l.FontFamily, "B", 10)
	doc.Text(l.Margin, y, "Bill To:")
	doc.SetFont(l.FontFamily, "", 10)
	y += 5
	doc.Text(l.Margin, y, v.Invoice.Buyer.Name)
	doc.SetFont(l.FontFamily, "", 9)
	for i, line := range v.Invoice.Buyer.AddressLines() {
		if i == maxBuyerAddressLines {
			break
		}
		y += 4.5
		doc.Text(l.Margin, y, line)
	}
	if v.Invoice.Buyer.Contact != "" {
		y += 4.5
		doc.Text(l.Margin, y, v.Invoice.Buyer.Contact)
	}

	return warnings
}

// placeLogo loads the logo through the image loader and draws it scaled
// into the reserved box, preserving aspect ratio. It is never stretched.
func (s *service) placeLogo(doc *gofpdf.Fpdf, path string, x, y float64) error {
	l := s.layout

	bmp, err := s.images.Load(path)
	if err != nil {
		return err
	}

	pngBytes, err := imageio.EncodePNG(bmp)
	if err != nil {
		return err
	}

	aspect := float64(bmp.Height) / float64(bmp.Width)
	w := l.LogoMaxWidth
	h := w * aspect
	if h > l.LogoMaxHeight {
		h = l.LogoMaxHeight
		w = h / aspect
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("logo", opts, bytes.NewReader(pngBytes))
	doc.ImageOptions("logo", x, y, w, h, false, opts, 0, "")
	return nil
}

// drawTableHead draws the column captions for the line item table with a
// rule underneath. Redrawn at the top of every continuation page.
func (s *service) drawTableHead(doc *gofpdf.Fpdf, y float64) {
	l := s.layout
	descW, qtyW, unitW, totalW := l.columns()
	x := l.Margin
	baseline := y + l.RowHeight - 2.5

	doc.SetFont(l.FontFamily, "B", 10)
	doc.Text(x, baseline, "Description")
	s.textRight(doc, x+descW+qtyW, baseline, "Qty")
	s.textRight(doc, x+descW+qtyW+unitW, baseline, "Unit Price")
	s.textRight(doc, x+descW+qtyW+unitW+totalW, baseline, "Total")
	doc.Line(x, y+l.RowHeight-1, l.PageWidth-l.Margin, y+l.RowHeight-1)
}

// drawRow draws one line item. Descriptions are truncated to the column
// width; rows never wrap so the fixed row height holds.
func (s *service) drawRow(doc *gofpdf.Fpdf, y float64, li invoice.LineItem, total decimal.Decimal) {
	l := s.layout
	descW, qtyW, unitW, totalW := l.columns()
	x := l.Margin
	baseline := y + l.RowHeight - 2.5

	doc.SetFont(l.FontFamily, "", 9)
	doc.Text(x, baseline, truncateToWidth(doc, li.Description, descW-2))
	s.textRight(doc, x+descW+qtyW, baseline, li.Quantity.String())
	s.textRight(doc, x+descW+qtyW+unitW, baseline, li.UnitPrice.StringFixed(2))
	s.textRight(doc, x+descW+qtyW+unitW+totalW, baseline, total.StringFixed(2))
}

// drawTotals draws the totals block under the final row, right aligned.
// The pagination threshold reserved its space, so it always fits here.
func (s *service) drawTotals(doc *gofpdf.Fpdf, y float64, v *invoice.ValidatedInvoice) float64 {
	l := s.layout
	right := l.PageWidth - l.Margin
	labelRight := right - 35

	y += 4
	doc.SetFont(l.FontFamily, "B", 10)
	s.textRight(doc, labelRight, y, "Subtotal:")
	s.textRight(doc, right, y, types.FormatAmount(v.Currency, v.Totals.Subtotal))

	if !v.Totals.DiscountAmount.IsZero() {
		y += 5
		doc.SetFont(l.FontFamily, "", 10)
		s.textRight(doc, labelRight, y, fmt.Sprintf("Discount (%s%%):", v.Invoice.DiscountPercent.String()))
		s.textRight(doc, right, y, "-"+types.FormatAmount(v.Currency, v.Totals.DiscountAmount))
	}

	y += 6
	doc.SetFont(l.FontFamily, "B", 12)
	s.textRight(doc, labelRight, y, "Total Due:")
	s.textRight(doc, right, y, types.FormatAmount(v.Currency, v.Totals.GrandTotal))

	return y
}

// drawNotes draws the free text notes block under the totals, spilling to a
// fresh page when it runs out of room.
func (s *service) drawNotes(doc *gofpdf.Fpdf, y float64, notes string) {
	if notes == "" {
		return
	}
	l := s.layout

	y += 10
	doc.SetFont(l.FontFamily, "", 9)
	doc.Text(l.Margin, y, "Notes:")
	doc.SetFont(l.FontFamily, "", 8)
	for _, line := range strings.Split(notes, "\n") {
		y += 4.5
		if y > l.PageHeight-l.Margin {
			doc.AddPage()
			y = l.Margin
		}
		doc.Text(l.Margin, y, line)
	}
}

func (s *service) textRight(doc *gofpdf.Fpdf, xRight, y float64, txt string) {
	doc.Text(xRight-doc.GetStringWidth(txt), y, txt)
}

// truncateToWidth shortens txt until it fits maxWidth in the current font
func truncateToWidth(doc *gofpdf.Fpdf, txt string, maxWidth float64) string {
	if doc.GetStringWidth(txt) <= maxWidth {
		return txt
	}
	runes := []rune(txt)
	for len(runes) > 0 && doc.GetStringWidth(string(runes)+"...") > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// writeAtomic writes data next to path and renames it into place, so a
// failure can not leave a partially written document behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".invoiceforge-*.pdf")
	if err != nil {
		return ierr.WithError(err).
			WithHintf("output path %s is not writable", path).
			Mark(ierr.ErrIOFailure)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ierr.WithError(err).
			WithHintf("unable to write %s", path).
			Mark(ierr.ErrIOFailure)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ierr.WithError(err).
			WithHintf("unable to write %s", path).
			Mark(ierr.ErrIOFailure)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ierr.WithError(err).
			WithHintf("unable to replace %s", path).
			Mark(ierr.ErrIOFailure)
	}
	return nil
}
