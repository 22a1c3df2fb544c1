package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// PageRenderer fetches pages through headless Chromium so that content
// built by JavaScript is present before the tags are scraped.
type PageRenderer struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
	logger  *log.Logger
}

// NewPageRenderer installs the browser driver if needed and launches Chromium
func NewPageRenderer(timeout time.Duration, logger *log.Logger) (*PageRenderer, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("installing playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &PageRenderer{pw: pw, browser: browser, timeout: timeout, logger: logger}, nil
}

func (r *PageRenderer) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ScrapeError{URL: url, Err: err}
	}

	browserCtx, err := r.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: fmt.Errorf("creating browser context: %w", err)}
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: fmt.Errorf("creating page: %w", err)}
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(r.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: err}
	}
	if resp != nil && resp.Status() != http.StatusOK {
		r.logger.Warn("page returned non-OK status", "url", url, "status", resp.Status())
		return nil, nil
	}

	content, err := page.Content()
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: fmt.Errorf("reading page content: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: fmt.Errorf("parsing HTML: %w", err)}
	}
	return doc, nil
}

// Close shuts the browser and the driver down
func (r *PageRenderer) Close() error {
	if err := r.browser.Close(); err != nil {
		r.logger.Warn("closing browser", "err", err)
	}
	return r.pw.Stop()
}
