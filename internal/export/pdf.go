// Package export turns a rendered printable page into a PDF with a headless browser.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one PDF rendering.
const DefaultTimeout = 30 * time.Second

// A4 paper size in inches.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// ExportError represents a failure while producing a PDF
type ExportError struct {
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("export error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("export error: %s", e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// PDFRenderer converts an HTML page into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePDF renders PDFs with a local Chrome/Chromium through chromedp.
// Requires Chrome/Chromium to be installed on the system.
type ChromePDF struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewChromePDF creates a ChromePDF renderer. A non-positive timeout uses DefaultTimeout.
func NewChromePDF(timeout time.Duration, logger *slog.Logger) *ChromePDF {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ChromePDF{timeout: timeout, logger: logger}
}

// RenderPDF loads html into a blank headless page and prints it to an A4 PDF.
func (c *ChromePDF) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, &ExportError{Message: "no HTML to render"}
	}

	c.logger.Debug("starting headless browser", "bytes", len(html))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, &ExportError{Message: "browser rendering failed", Cause: err}
	}

	c.logger.Debug("rendered PDF", "bytes", len(pdf))
	return pdf, nil
}
