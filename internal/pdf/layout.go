package pdf

import (
	"github.com/invoiceforge/invoiceforge/internal/config"
)

// pageSizes maps the supported named paper sizes to width x height in mm,
// portrait orientation.
var pageSizes = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"Letter": {215.9, 279.4},
	"Legal":  {215.9, 355.6},
}

// Layout holds the fixed page geometry the renderer works with. All values
// are millimeters. Geometry is configuration, never derived from content.
type Layout struct {
	PageSize      string
	PageWidth     float64
	PageHeight    float64
	Margin        float64
	RowHeight     float64
	LogoMaxWidth  float64
	LogoMaxHeight float64
	// HeaderHeight is the vertical space above the table reserved for the
	// logo, seller, buyer and invoice meta blocks on the first page.
	HeaderHeight float64
	// TotalsReserve keeps room under the last row so the totals block always
	// lands below it on the same page.
	TotalsReserve float64
	FontFamily    string
	Compress      bool
}

// LayoutFromConfig builds the page geometry from the render configuration.
// Unknown page sizes fall back to A4.
func LayoutFromConfig(cfg config.RenderConfig) Layout {
	dims, ok := pageSizes[cfg.PageSize]
	if !ok {
		dims = pageSizes["A4"]
	}

	return Layout{
		PageSize:      cfg.PageSize,
		PageWidth:     dims[0],
		PageHeight:    dims[1],
		Margin:        cfg.Margin,
		RowHeight:     cfg.RowHeight,
		LogoMaxWidth:  cfg.LogoMaxWidth,
		LogoMaxHeight: cfg.LogoMaxHeight,
		HeaderHeight:  55,
		TotalsReserve: 3 * cfg.RowHeight,
		FontFamily:    cfg.FontFamily,
		Compress:      cfg.Compress,
	}
}

// ContentWidth is the printable width between the side margins
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// tableTop is the y position of the table header row on the first page
func (l Layout) tableTop() float64 {
	return l.Margin + l.HeaderHeight
}

// rowLimit is the lowest y a row may extend to. The totals reserve is part
// of the threshold so the totals block can always follow the final row
// without spilling onto an otherwise empty page.
func (l Layout) rowLimit() float64 {
	return l.PageHeight - l.Margin - l.TotalsReserve
}

// RowsOnFirstPage returns how many line item rows fit below the header
// block and the redrawn column captions on page one.
func (l Layout) RowsOnFirstPage() int {
	return int((l.rowLimit() - l.tableTop() - l.RowHeight) / l.RowHeight)
}

// RowsPerContinuationPage returns the row capacity of every page after the
// first, where only the column captions are redrawn above the table.
func (l Layout) RowsPerContinuationPage() int {
	return int((l.rowLimit() - l.Margin - l.RowHeight) / l.RowHeight)
}

// PageCount predicts how many pages an invoice with n line items occupies,
// matching the renderer's pagination exactly.
func (l Layout) PageCount(n int) int {
	first := l.RowsOnFirstPage()
	if n <= first {
		return 1
	}

	pages := 1
	remaining := n - first
	perPage := l.RowsPerContinuationPage()
	for remaining > 0 {
		pages++
		remaining -= perPage
	}
	return pages
}

// columns returns the widths of the four table columns. The description
// column absorbs whatever the fixed numeric columns leave over.
func (l Layout) columns() (desc, qty, unit, total float64) {
	qty, unit, total = 15, 30, 30
	desc = l.ContentWidth() - qty - unit - total
	return desc, qty, unit, total
}
