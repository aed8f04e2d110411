package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// RenderedFetcher loads pages in headless Chromium so script-built markup is
// present in the returned HTML.
type RenderedFetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
	ua      string
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewRenderedFetcher starts playwright and launches a headless browser
func NewRenderedFetcher(timeout time.Duration, userAgent string, logger *zap.Logger) (*RenderedFetcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &RenderedFetcher{
		pw:      pw,
		browser: browser,
		timeout: timeout,
		ua:      userAgent,
		logger:  logger,
	}, nil
}

// Fetch navigates to rawURL, waits for the network to settle and returns the
// rendered document.
func (f *RenderedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return "", fmt.Errorf("rendered fetcher is closed")
	}
	f.mu.Unlock()

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	browserCtx, err := f.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(f.ua),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return "", fmt.Errorf("creating browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return "", fmt.Errorf("creating page: %w", err)
	}

	resp, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("navigating to %s: %w", target, err)
	}
	if resp != nil && resp.Status() != 200 {
		return "", &StatusError{Code: resp.Status(), Status: fmt.Sprintf("%d %s", resp.Status(), resp.StatusText())}
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("reading page content: %w", err)
	}

	f.logger.Debug("rendered page", zap.String("url", target), zap.Int("bytes", len(html)))
	return html, nil
}

// Close shuts the browser down
func (f *RenderedFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	if f.browser != nil {
		f.browser.Close()
	}
	if f.pw != nil {
		return f.pw.Stop()
	}
	return nil
}
