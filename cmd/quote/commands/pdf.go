package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/client"
	"github.com/DongSeo/platform/internal/quotepdf"
)

var (
	pdfCart        string
	pdfInput       string
	pdfOut         string
	pdfFont        string
	pdfFontURL     string
	pdfCompanyName string
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Export a quote PDF",
	Long: `Export a quote PDF for a cart, or for a document saved as JSON.

The server renders the PDF first. When that fails the quote is rendered
locally with the first font found in --font, the system NanumGothic, or
the server's font script.

Examples:
  quote pdf --cart 01J... --out quote.pdf
  quote pdf --input quote.json`,
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().StringVar(&pdfCart, "cart", "", "Cart id")
	pdfCmd.Flags().StringVar(&pdfInput, "input", "", "Path to a quote document JSON file")
	pdfCmd.Flags().StringVar(&pdfOut, "out", "", "Output file (default: 견적서_통합_<date>.pdf)")
	pdfCmd.Flags().StringVar(&pdfFont, "font", os.Getenv("PDF_FONT_PATH"), "TrueType font for local rendering")
	pdfCmd.Flags().StringVar(&pdfFontURL, "font-url", "", "Font script URL for local rendering (default: <server>/NanumGothic-normal.js)")
	pdfCmd.Flags().StringVar(&pdfCompanyName, "company-name", quotepdf.DefaultCompanyName, "Company name printed on the quote")
	pdfCmd.MarkFlagsOneRequired("cart", "input")
	pdfCmd.MarkFlagsMutuallyExclusive("cart", "input")
}

func runPDF(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	c := newClient()
	var (
		doc      quotepdf.Document
		out      []byte
		err      error
		serveErr error
	)

	if pdfInput != "" {
		doc, err = readDocument(pdfInput)
		if err != nil {
			return err
		}
		out, serveErr = c.DocumentPDF(ctx, doc)
	} else {
		doc = quotepdf.NewDocument(pdfCompanyName, nil, time.Now())
		out, serveErr = c.CartPDF(ctx, pdfCart)
	}

	if serveErr != nil {
		logger.Warn("server pdf export failed, rendering locally", zap.Error(serveErr))
		out, err = renderLocally(ctx, c, doc, logger)
		if err != nil {
			return errors.Join(serveErr, err)
		}
	}

	path := pdfOut
	if path == "" {
		path = doc.FileName()
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func readDocument(path string) (quotepdf.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return quotepdf.Document{}, fmt.Errorf("read document: %w", err)
	}
	var doc quotepdf.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return quotepdf.Document{}, fmt.Errorf("decode document %s: %w", path, err)
	}
	if doc.CompanyName == "" {
		doc.CompanyName = pdfCompanyName
	}
	if doc.Date.IsZero() {
		doc.Date = time.Now()
	}
	return doc, nil
}

// renderLocally loads the cart lines when doc has none and renders with the
// local font sources.
func renderLocally(ctx context.Context, c *client.Client, doc quotepdf.Document, logger *zap.Logger) ([]byte, error) {
	if len(doc.Lines) == 0 && pdfCart != "" {
		view, err := c.Cart(ctx, pdfCart)
		if err != nil {
			return nil, fmt.Errorf("load cart %s: %w", pdfCart, err)
		}
		doc.Lines = view.Lines
	}
	if len(doc.Lines) == 0 {
		return nil, errors.New("견적 항목이 없습니다.")
	}

	fontURL := pdfFontURL
	if fontURL == "" {
		fontURL = strings.TrimRight(serverURL, "/") + "/NanumGothic-normal.js"
	}
	exporter := quotepdf.NewExporter(quotepdf.FontResolver{
		Path:       pdfFont,
		SystemPath: quotepdf.SystemFontPath,
		URL:        fontURL,
	}, logger)
	return exporter.Export(ctx, doc)
}
