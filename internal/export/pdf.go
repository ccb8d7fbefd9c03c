package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"jsa/api/internal/layout"
)

const DefaultTimeout = 60 * time.Second

var browserCandidates = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

const imagesLoaded = `Array.from(document.images).every(img => img.complete)`

// BrowserOpener is implemented by rasterizers that can share one browser
// across Capture and Assemble.
type BrowserOpener interface {
	Open(ctx context.Context) (context.Context, context.CancelFunc, error)
}

// Chrome rasterizes pages with headless Chrome.
type Chrome struct {
	execPath string
	timeout  time.Duration
}

// NewChrome uses execPath when set, otherwise the first Chromium found on PATH.
func NewChrome(execPath string, timeout time.Duration) *Chrome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chrome{execPath: execPath, timeout: timeout}
}

func (c *Chrome) lookup() (string, error) {
	if c.execPath != "" {
		if _, err := os.Stat(c.execPath); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExportUnavailable, c.execPath, err)
		}
		return c.execPath, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrExportUnavailable)
}

// Available reports whether a browser binary can be found.
func (c *Chrome) Available() bool {
	_, err := c.lookup()
	return err == nil
}

// Open starts one browser for the lifetime of the returned context.
func (c *Chrome) Open(ctx context.Context) (context.Context, context.CancelFunc, error) {
	path, err := c.lookup()
	if err != nil {
		return nil, nil, err
	}

	// Chrome options for headless mode in container
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(path),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)

	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, c.timeout)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(taskCtx); err != nil {
		cancelTask()
		cancelAlloc()
		cancelTimeout()
		return nil, nil, fmt.Errorf("%w: start browser: %v", ErrExportUnavailable, err)
	}
	return taskCtx, func() {
		cancelTask()
		cancelAlloc()
		cancelTimeout()
	}, nil
}

// browser reuses a browser already carried by ctx or starts one.
func (c *Chrome) browser(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if chromedp.FromContext(ctx) != nil {
		return ctx, func() {}, nil
	}
	return c.Open(ctx)
}

// Capture screenshots the page root of each page, one after another, at the
// fixed viewport and device scale.
func (c *Chrome) Capture(ctx context.Context, pages []string, g layout.Geometry) ([][]byte, error) {
	ctx, cancel, err := c.browser(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	selector := "#" + layout.PageElementID
	images := make([][]byte, 0, len(pages))
	for i, html := range pages {
		var shot []byte
		var ready bool
		err := chromedp.Run(ctx,
			chromedp.EmulateViewport(int64(g.WidthPx), int64(g.HeightPx), chromedp.EmulateScale(g.Scale)),
			chromedp.Navigate("about:blank"),
			setContent(html),
			chromedp.WaitReady(selector, chromedp.ByQuery),
			chromedp.Poll(imagesLoaded, &ready, chromedp.WithPollingTimeout(10*time.Second)),
			chromedp.Screenshot(selector, &shot, chromedp.ByQuery),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrRasterize, i+1, err)
		}
		images = append(images, shot)
	}
	return images, nil
}

// Assemble prints the page images as one PDF with a sheet per image and no margins.
func (c *Chrome) Assemble(ctx context.Context, images [][]byte, g layout.Geometry) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrRasterize)
	}
	ctx, cancel, err := c.browser(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var pdfData []byte
	var ready bool
	err = chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		setContent(sheetHTML(images, g)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(imagesLoaded, &ready, chromedp.WithPollingTimeout(10*time.Second)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(g.WidthInches()).
				WithPaperHeight(g.HeightInches()).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: print pdf: %v", ErrRasterize, err)
	}
	return pdfData, nil
}

func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}

// sheetHTML places each image on its own sheet of exactly the page size.
func sheetHTML(images [][]byte, g layout.Geometry) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html><html><head><meta charset="UTF-8"><style>
@page { size: %.0fmm %.0fmm; margin: 0; }
html, body { margin: 0; padding: 0; }
img { display: block; width: %.0fmm; height: %.0fmm; break-after: page; }
img:last-child { break-after: auto; }
</style></head><body>`, g.WidthMM, g.HeightMM, g.WidthMM, g.HeightMM)
	for _, img := range images {
		b.WriteString(`<img src="data:image/png;base64,`)
		b.WriteString(base64.StdEncoding.EncodeToString(img))
		b.WriteString(`">`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// Filename builds JSA_<english title>.pdf with every non-alphanumeric rune
// replaced by an underscore.
func Filename(englishTitle string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(englishTitle) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	result := b.String()
	if strings.Trim(result, "_") == "" {
		result = "document"
	}
	return "JSA_" + result + ".pdf"
}
