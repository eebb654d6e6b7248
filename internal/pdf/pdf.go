// Package pdf prints HTML documents to PDF with a headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one print, including browser start-up
const DefaultTimeout = 30 * time.Second

// ErrEmptyDocument is returned when there is no HTML to print
var ErrEmptyDocument = errors.New("empty html document")

// Renderer prints HTML to PDF
type Renderer struct {
	timeout  time.Duration
	execPath string
}

// Option configures a Renderer
type Option func(*Renderer)

// WithExecPath uses a specific Chrome binary instead of searching PATH
func WithExecPath(path string) Option {
	return func(r *Renderer) {
		r.execPath = path
	}
}

// New creates a Renderer. A non-positive timeout uses DefaultTimeout.
func New(timeout time.Duration, opts ...Option) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Renderer{timeout: timeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render loads html into a blank page and prints it with backgrounds on
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, ErrEmptyDocument
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var buf []byte
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
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}
	return buf, nil
}
