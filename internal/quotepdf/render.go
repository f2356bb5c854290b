package quotepdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const fontFamily = "NanumGothic"

type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
}

func (m fpdfMeasurer) SplitText(text string, fontSize, width float64) []string {
	m.pdf.SetFontSize(fontSize)
	return m.pdf.SplitText(text, width)
}

// Render draws doc with the given TrueType font and returns the PDF bytes.
func Render(doc Document, font []byte) (out []byte, err error) {
	if len(font) == 0 {
		return nil, fmt.Errorf("render quote: %w", ErrNoFont)
	}
	// fpdf panics on some malformed font files.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("render quote: font rejected: %v", r)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddUTF8FontFromBytes(fontFamily, "", font)
	pdf.SetFont(fontFamily, "", 10)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	pdf.SetTitle(doc.withDefaults().Title, true)
	pdf.SetCreator(doc.withDefaults().CompanyName, true)

	for _, op := range Layout(doc, fpdfMeasurer{pdf: pdf}) {
		switch op.Kind {
		case OpPage:
			pdf.AddPage()
			pdf.SetDrawColor(200, 200, 200)
		case OpRule:
			pdf.Line(op.X, op.Y, ruleEnd, op.Y)
		case OpText:
			pdf.SetFontSize(op.FontSize)
			x := op.X
			if op.Centered {
				x -= pdf.GetStringWidth(op.Text) / 2
			}
			pdf.Text(x, op.Y, op.Text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Exporter renders quotes, trying each font source until one works.
type Exporter struct {
	sources []FontSource
	logger  *zap.Logger
}

func NewExporter(resolver FontResolver, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver.Logger == nil {
		resolver.Logger = logger
	}
	return &Exporter{sources: resolver.Sources(), logger: logger}
}

// Export renders doc with the first font source that loads and renders.
func (e *Exporter) Export(ctx context.Context, doc Document) ([]byte, error) {
	var errs []error
	for _, src := range e.sources {
		font, err := src.Load(ctx)
		if err != nil {
			e.logger.Warn("font source unavailable", zap.String("source", src.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		out, err := Render(doc, font)
		if err != nil {
			e.logger.Warn("quote render failed", zap.String("source", src.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		e.logger.Info("quote rendered",
			zap.String("font_source", src.Name),
			zap.Int("lines", len(doc.Lines)),
			zap.Int("bytes", len(out)))
		return out, nil
	}
	return nil, noFont(errs)
}

// Font returns the first font that loads, for serving to clients.
func (e *Exporter) Font(ctx context.Context) ([]byte, error) {
	var errs []error
	for _, src := range e.sources {
		font, err := src.Load(ctx)
		if err == nil {
			return font, nil
		}
		errs = append(errs, err)
	}
	return nil, noFont(errs)
}

func noFont(errs []error) error {
	if len(errs) == 0 {
		return ErrNoFont
	}
	return fmt.Errorf("%w: %w", ErrNoFont, errors.Join(errs...))
}
