package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/invoiceforge/invoiceforge/internal/config"
	"github.com/invoiceforge/invoiceforge/internal/domain/invoice"
	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
	"github.com/invoiceforge/invoiceforge/internal/imageio"
	"github.com/invoiceforge/invoiceforge/internal/logger"
	"github.com/invoiceforge/invoiceforge/internal/types"
)

// MockLoader is a mock implementation of the imageio.Loader interface
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(path string) (*imageio.Bitmap, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imageio.Bitmap), args.Error(1)
}

func newTestGenerator(t *testing.T, images imageio.Loader) Generator {
	t.Helper()

	cfg := config.GetDefaultConfig()
	// Uncompressed output keeps the content streams readable so tests can
	// assert on the rendered text directly.
	cfg.Render.Compress = false

	log, err := logger.NewLogger(types.LogLevelError)
	require.NoError(t, err)

	if images == nil {
		images = imageio.NewFileLoader()
	}
	return NewGenerator(cfg, images, log)
}

func validatedInvoice(t *testing.T, rows int) *invoice.ValidatedInvoice {
	t.Helper()

	items := make([]invoice.LineItem, rows)
	for i := range items {
		items[i] = invoice.LineItem{
			Description: fmt.Sprintf("Item %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("1.00"),
		}
	}

	inv := &invoice.Invoice{
		Seller:        invoice.Party{Name: "Acme", Address: "123 Business St\nCity"},
		Buyer:         invoice.Party{Name: "Bob"},
		InvoiceNumber: "INV-001",
		IssueDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		LineItems:     items,
	}

	v, err := inv.Validate()
	require.NoError(t, err)
	return v
}

func writeLogoFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestRenderEndToEnd(t *testing.T) {
	inv := &invoice.Invoice{
		Seller:        invoice.Party{Name: "Acme"},
		Buyer:         invoice.Party{Name: "Bob"},
		InvoiceNumber: "INV-001",
		IssueDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("9.99")},
			{Description: "Gadget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("15.00")},
		},
	}
	v, err := inv.Validate()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := newTestGenerator(t, nil).Render(context.Background(), v, out)
	require.NoError(t, err)

	assert.Equal(t, out, result.Path)
	assert.Equal(t, 1, result.Pages)
	assert.Empty(t, result.Warnings)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "%PDF-"))
	for _, want := range []string{
		"Widget", "19.98", "9.99",
		"Gadget", "15.00",
		"USD 34.98",
		"INV-001", "Acme", "Bob",
	} {
		assert.Contains(t, content, want)
	}
}

func TestRenderPagination(t *testing.T) {
	gen := newTestGenerator(t, nil)
	l := defaultLayout()
	dir := t.TempDir()

	// A page that fits exactly N rows stays one page; N+1 rows pushes a
	// single row onto page two, where the column captions are redrawn.
	fits := validatedInvoice(t, l.RowsOnFirstPage())
	resFits, err := gen.Render(context.Background(), fits, filepath.Join(dir, "fits.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, resFits.Pages)

	over := validatedInvoice(t, l.RowsOnFirstPage()+1)
	resOver, err := gen.Render(context.Background(), over, filepath.Join(dir, "over.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, resOver.Pages)

	data, err := os.ReadFile(filepath.Join(dir, "over.pdf"))
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 2, strings.Count(content, "(Description)"))
	assert.Contains(t, content, fmt.Sprintf("Item %d", l.RowsOnFirstPage()+1))
}

func TestRenderIdempotent(t *testing.T) {
	gen := newTestGenerator(t, nil)
	v := validatedInvoice(t, 3)
	dir := t.TempDir()

	first := filepath.Join(dir, "a.pdf")
	second := filepath.Join(dir, "b.pdf")
	_, err := gen.Render(context.Background(), v, first)
	require.NoError(t, err)
	_, err = gen.Render(context.Background(), v, second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderOverwritesExistingFile(t *testing.T) {
	gen := newTestGenerator(t, nil)
	v := validatedInvoice(t, 1)

	out := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	_, err := gen.Render(context.Background(), v, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestRenderMissingLogoIsWarning(t *testing.T) {
	gen := newTestGenerator(t, nil)

	inv := &invoice.Invoice{
		Seller:        invoice.Party{Name: "Acme"},
		Buyer:         invoice.Party{Name: "Bob"},
		InvoiceNumber: "INV-002",
		IssueDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		LogoPath:      filepath.Join(t.TempDir(), "nope.png"),
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
		},
	}
	v, err := inv.Validate()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := gen.Render(context.Background(), v, out)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "logo skipped")
	assert.FileExists(t, out)
}

func TestRenderValidLogoNoWarning(t *testing.T) {
	gen := newTestGenerator(t, nil)
	logo := writeLogoFixture(t)

	inv := &invoice.Invoice{
		Seller:        invoice.Party{Name: "Acme"},
		Buyer:         invoice.Party{Name: "Bob"},
		InvoiceNumber: "INV-003",
		IssueDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		LogoPath:      logo,
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
		},
	}
	v, err := inv.Validate()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := gen.Render(context.Background(), v, out)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestRenderLogoLoaderFailureIsWarning(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", "broken.bmp").
		Return(nil, ierr.NewError("decoder exploded").Mark(ierr.ErrSystem))

	gen := newTestGenerator(t, loader)

	inv := &invoice.Invoice{
		Seller:        invoice.Party{Name: "Acme"},
		Buyer:         invoice.Party{Name: "Bob"},
		InvoiceNumber: "INV-004",
		IssueDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		LogoPath:      "broken.bmp",
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
		},
	}
	v, err := inv.Validate()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := gen.Render(context.Background(), v, out)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	loader.AssertExpectations(t)
}

func TestRenderRejectsTamperedInvoice(t *testing.T) {
	gen := newTestGenerator(t, nil)
	v := validatedInvoice(t, 2)
	v.Totals.GrandTotal = decimal.NewFromInt(999)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := gen.Render(context.Background(), v, out)
	assert.Nil(t, result)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.NoFileExists(t, out)
}

func TestRenderRejectsUnvalidatedValue(t *testing.T) {
	gen := newTestGenerator(t, nil)

	out := filepath.Join(t.TempDir(), "out.pdf")
	result, err := gen.Render(context.Background(), &invoice.ValidatedInvoice{}, out)
	assert.Nil(t, result)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.NoFileExists(t, out)
}

func TestRenderUnwritablePath(t *testing.T) {
	gen := newTestGenerator(t, nil)
	v := validatedInvoice(t, 1)

	out := filepath.Join(t.TempDir(), "missing", "out.pdf")
	result, err := gen.Render(context.Background(), v, out)
	assert.Nil(t, result)
	assert.True(t, ierr.IsIOFailure(err))
	assert.NoFileExists(t, out)
}

func TestRenderCanceledContext(t *testing.T) {
	gen := newTestGenerator(t, nil)
	v := validatedInvoice(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "out.pdf")
	_, err := gen.Render(ctx, v, out)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestRenderEmptyCurrencySymbol(t *testing.T) {
	gen := newTestGenerator(t, nil)
	empty := ""

	inv := &invoice.Invoice{
		Seller:         invoice.Party{Name: "Acme"},
		Buyer:          invoice.Party{Name: "Bob"},
		InvoiceNumber:  "INV-005",
		IssueDate:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CurrencySymbol: &empty,
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("9.99")},
		},
	}
	v, err := inv.Validate()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.pdf")
	_, err = gen.Render(context.Background(), v, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "(19.98)")
	assert.NotContains(t, content, "USD")
}
