// Package browser runs chromedp actions in a fresh headless Chrome for pages
// that only render their product data with JavaScript.
package browser

import (
	"context"
	"time"

	"cleanuri/pkg/scrapers"

	"github.com/chromedp/chromedp"
)

// Run starts a browser, runs actions and shuts the browser down again.
func Run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(scrapers.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	return chromedp.Run(runCtx, actions...)
}
