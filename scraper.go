package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes = 10 * 1024 * 1024
)

// ScrapeError is a failed fetch of a single page
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scraping %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Fetcher loads a page and parses it. A nil document with a nil error means
// the page answered with a non-200 status and should be treated as empty.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher fetches pages with a plain GET
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *log.Logger
}

func NewHTTPFetcher(timeout time.Duration, logger *log.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		timeout: timeout,
		logger:  logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("page returned non-OK status", "url", url, "status", resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ScrapeError{URL: url, Err: fmt.Errorf("parsing HTML: %w", err)}
	}
	return doc, nil
}

// NormalizeTags lowercases and trims tag names, dropping blanks and duplicates
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ScrapeTags collects the text of every element named in tags. With limit > 0
// only the first limit fragments of each tag are kept.
func ScrapeTags(doc *goquery.Document, tags []string, limit int) []TagText {
	result := make([]TagText, 0, len(tags))
	for _, tag := range tags {
		texts := []string{}
		if doc != nil {
			doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				for _, n := range s.Nodes {
					if text := strippedText(n); text != "" {
						texts = append(texts, text)
					}
				}
				return limit <= 0 || len(texts) < limit
			})
		}
		result = append(result, TagText{Tag: tag, Texts: texts})
	}
	return result
}

// strippedText joins the trimmed text nodes under n with single spaces
func strippedText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ScrapeSites visits each URL in order and scrapes the requested tags.
// Failed pages are logged and kept with an error and empty tags.
func ScrapeSites(ctx context.Context, fetcher Fetcher, urls []string, tags []string, limit int, logger *log.Logger) []SiteScrape {
	sites := make([]SiteScrape, 0, len(urls))
	for i, url := range urls {
		if ctx.Err() != nil {
			logger.Warn("scrape cancelled", "remaining", len(urls)-i)
			break
		}

		logger.Info("scraping", "url", url, "progress", fmt.Sprintf("%d/%d", i+1, len(urls)))
		site := SiteScrape{URL: url}

		doc, err := fetcher.Fetch(ctx, url)
		if err != nil {
			logger.Error("scrape failed", "url", url, "err", err)
			site.Error = err.Error()
			doc = nil
		}
		site.Tags = ScrapeTags(doc, tags, limit)
		sites = append(sites, site)
	}
	return sites
}
