package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/invoiceforge/invoiceforge/internal/config"
	"github.com/invoiceforge/invoiceforge/internal/domain/invoice"
	"github.com/invoiceforge/invoiceforge/internal/dto"
	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
	"github.com/invoiceforge/invoiceforge/internal/imageio"
	"github.com/invoiceforge/invoiceforge/internal/logger"
	"github.com/invoiceforge/invoiceforge/internal/pdf"
	"github.com/invoiceforge/invoiceforge/internal/types"
	"github.com/invoiceforge/invoiceforge/internal/validator"
)

func main() {
	app := &cli.App{
		Name:  "invoiceforge",
		Usage: "render an invoice record into a PDF document",
		Commands: []*cli.Command{
			generateCommand(),
			totalsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if hint := ierr.Hint(err); hint != "" {
			logger.L.Errorf("%s (%s)", err, hint)
		} else {
			logger.L.Errorf("%s", err)
		}
		os.Exit(1)
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "validate an invoice record and write it as a PDF file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "path to the invoice record JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output PDF path (default: invoice_<number>.pdf)",
			},
			&cli.StringFlag{
				Name:  "logo",
				Usage: "logo image path, overriding the record's logo_path",
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "currency symbol, overriding the record's currency_symbol",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}

	req, err := readRequest(c.String("input"))
	if err != nil {
		return err
	}
	if path := c.String("logo"); path != "" {
		req.LogoPath = path
	}
	if c.IsSet("currency") {
		symbol := c.String("currency")
		req.CurrencySymbol = &symbol
	}

	inv, err := buildInvoice(req, cfg)
	if err != nil {
		return err
	}

	validated, err := inv.Validate()
	if err != nil {
		return err
	}

	output := c.String("output")
	if output == "" {
		output = fmt.Sprintf("invoice_%s.pdf", validated.Invoice.InvoiceNumber)
	}

	generator := pdf.NewGenerator(cfg, imageio.NewFileLoader(), log)
	result, err := generator.Render(context.Background(), validated, output)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		log.Warnf("%s", warning)
	}
	fmt.Printf("wrote %s (%d page(s), total %s)\n",
		result.Path, result.Pages,
		types.FormatAmount(validated.Currency, validated.Totals.GrandTotal))
	return nil
}

func totalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "totals",
		Usage: "compute and print invoice totals without rendering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "path to the invoice record JSON file",
				Required: true,
			},
		},
		Action: runTotals,
	}
}

func runTotals(c *cli.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	req, err := readRequest(c.String("input"))
	if err != nil {
		return err
	}

	inv, err := buildInvoice(req, cfg)
	if err != nil {
		return err
	}

	currency := inv.Currency()
	totals := inv.ComputeTotals()
	for i, li := range inv.LineItems {
		fmt.Printf("%-40s %s\n", li.Description, types.FormatAmount(currency, totals.LineTotals[i]))
	}
	fmt.Printf("%-40s %s\n", "Subtotal", types.FormatAmount(currency, totals.Subtotal))
	if !totals.DiscountAmount.IsZero() {
		fmt.Printf("%-40s -%s\n", "Discount", types.FormatAmount(currency, totals.DiscountAmount))
	}
	fmt.Printf("%-40s %s\n", "Total Due", types.FormatAmount(currency, totals.GrandTotal))
	return nil
}

func readRequest(path string) (*dto.InvoiceRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("unable to read invoice record %s", path).
			Mark(ierr.ErrNotFound)
	}

	var req dto.InvoiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("invoice record %s is not valid JSON", path).
			Mark(ierr.ErrValidation)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func buildInvoice(req *dto.InvoiceRequest, cfg *config.Configuration) (*invoice.Invoice, error) {
	return req.ToInvoice(time.Now(), cfg.Render.CurrencySymbolDefault)
}
