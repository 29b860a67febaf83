package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const chromeRenderTimeout = 30 * time.Second

// A4 in millimeters; Chrome wants inches.
const (
	pageWidthMM  = 210
	pageHeightMM = 297
	mmPerInch    = 25.4
)

// ChromedpConfig tunes the Chrome-backed renderer.
type ChromedpConfig struct {
	// DefaultTimeout bounds a single Render call when the request does
	// not carry its own timeout.
	DefaultTimeout time.Duration
	// RemoteURL points at an already running Chrome (e.g. a browserless
	// container). When empty a local headless instance is launched per
	// renderer.
	RemoteURL string
	// NoSandbox is needed when Chrome runs as root inside a container.
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML through Chrome's PrintToPDF. A single
// allocator is shared across calls; each Render gets a fresh tab.
type ChromedpRenderer struct {
	cfg       *ChromedpConfig
	log       *zap.Logger
	alloc     context.Context
	stopAlloc context.CancelFunc
}

// NewChromedpRenderer prepares the browser allocator. Chrome itself starts
// lazily on the first Render.
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	if cfg == nil {
		cfg = &ChromedpConfig{}
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = chromeRenderTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &ChromedpRenderer{cfg: cfg, log: log}
	if cfg.RemoteURL != "" {
		r.alloc, r.stopAlloc = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		r.alloc, r.stopAlloc = chromedp.NewExecAllocator(context.Background(), r.execOptions()...)
	}
	return r, nil
}

func (r *ChromedpRenderer) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		// /dev/shm is tiny in most container runtimes
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// Render loads the HTML into a blank tab and prints it to an A4 PDF.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tab, closeTab := chromedp.NewContext(r.alloc,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.log.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer closeTab()

	doc := wrapDocument(req)
	started := time.Now()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(pageWidthMM / mmPerInch).
				WithPaperHeight(pageHeightMM / mmPerInch).
				WithMarginTop(req.Margins.Top / mmPerInch).
				WithMarginRight(req.Margins.Right / mmPerInch).
				WithMarginBottom(req.Margins.Bottom / mmPerInch).
				WithMarginLeft(req.Margins.Left / mmPerInch).
				WithLandscape(req.Landscape).
				Do(ctx)
			if err == nil {
				pdf = data
			}
			return err
		}),
	)
	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		case context.Canceled:
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.log.Error("chromedp run failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed: "+err.Error(), err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	elapsed := time.Since(started)
	r.log.Info("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", elapsed))

	return &RenderResult{PDFData: pdf, RenderDuration: elapsed}, nil
}

// Close shuts down the browser allocator.
func (r *ChromedpRenderer) Close() error {
	if r.stopAlloc != nil {
		r.stopAlloc()
	}
	return nil
}

// wrapDocument promotes a bare HTML fragment to a full document so Chrome
// applies the charset and title. Full documents pass through untouched.
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		b.WriteString("<title>")
		b.WriteString(req.Title)
		b.WriteString("</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
