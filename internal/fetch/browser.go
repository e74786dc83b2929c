package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider an HTTP
// fetch successful. Directory profiles shorter than this usually render
// their review and fee widgets client-side, so the caller should fall back
// to browser rendering.
const MinContentLength = 500

// DefaultRenderTimeout bounds a full render including the settle waits.
const DefaultRenderTimeout = 30 * time.Second

// ShouldUseBrowser reports whether the extracted text is too short,
// indicating the listing is likely JavaScript-rendered.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// renderWait returns the selector to wait on before scraping a rendered
// page. Known directories get their primary profile container; anything
// else just waits for the body.
func renderWait(platform Platform) string {
	if platform == PlatformUnknown {
		return "body"
	}
	selectors := PlatformContentSelectors(platform)
	if len(selectors) == 0 {
		return "body"
	}
	return selectors[0]
}

// renderContext builds the chromedp context chain for one render. The
// returned cancel tears down the deadline, the browser, and the allocator.
func renderContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)

	return runCtx, func() {
		cancelRun()
		cancelBrowser()
		cancelAlloc()
	}
}

// WithBrowser renders a page in a headless browser and returns the rendered
// HTML. Directory profiles load review scores and fee tables after first
// paint, so rendering waits for the platform's profile container and then
// lets late widgets settle. Requires Chrome/Chromium to be installed on the
// system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error) {
	platform := DetectPlatform(url)
	if verbose {
		log.Printf("[BROWSER] Rendering %s listing: %s", platform, url)
	}

	runCtx, cancel := renderContext(ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		waitForContent(renderWait(platform), 5*time.Second),
		// Fee tables and review widgets hydrate after the container appears.
		chromedp.Sleep(2*time.Second),
		dismissCookieBanner(),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if verbose {
		log.Printf("[BROWSER] Rendered %d bytes from %s", len(html), url)
	}

	return html, nil
}

// waitForContent waits for selector to appear but gives up after grace
// rather than failing the render: page layouts we have never seen still
// produce usable HTML.
func waitForContent(selector string, grace time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, grace)
		defer cancel()
		if err := chromedp.WaitReady(selector).Do(waitCtx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})
}

// dismissCookieBanner clicks the consent button GDPR overlays put between
// the crawler and the fee table. Best effort; pages without one are left
// alone.
func dismissCookieBanner() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = chromedp.Click(`button[id*="accept"], button[class*="accept"], button[aria-label*="accept"]`, chromedp.NodeVisible).Do(clickCtx)
		return nil
	})
}

// BrowserSimple renders with the default timeout.
func BrowserSimple(ctx context.Context, url string, verbose bool) (string, error) {
	return WithBrowser(ctx, url, DefaultRenderTimeout, verbose)
}
