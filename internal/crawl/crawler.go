package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

// Config holds crawl controller configuration.
type Config struct {
	Concurrency   int
	MaxPages      int
	RatePerSecond float64
	Timeout       time.Duration
	UserAgent     string
}

// Page is a fetched same-origin page handed to the page handler.
// It lives for one visit and is discarded after chunk extraction.
type Page struct {
	URL   string   // canonical URL
	HTML  string   // raw response body
	Links []string // same-origin canonical links discovered on the page
}

// Outcome classifies what a page visit produced.
type Outcome int

const (
	// OutcomeOK means the page produced at least one stored chunk.
	OutcomeOK Outcome = iota
	// OutcomeSkipped means the page produced no usable text.
	OutcomeSkipped
)

// PageHandler processes one fetched page. An error aborts that page only;
// the crawl continues with the next batch.
type PageHandler func(ctx context.Context, page Page) (Outcome, error)

// Stats aggregates crawl counters.
type Stats struct {
	Visited int
	OK      int
	Skipped int
	Failed  int
}

// Crawler performs a breadth-first traversal of a single origin, bounded
// by a page ceiling and a worker-pool concurrency limit.
type Crawler struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Crawler with the given configuration.
func New(config Config) *Crawler {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 60
	}
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "siterag/1.0"
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 4
	}
	return &Crawler{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Concurrency),
	}
}

// visitResult is what one worker reports back to the control goroutine.
type visitResult struct {
	url     string
	outcome Outcome
	links   []string
	failed  bool
}

// Run crawls from the seed routes, invoking handle for every fetched HTML
// page. The frontier and counters are only mutated between batches, after
// all workers of the current batch have reported.
func (c *Crawler) Run(ctx context.Context, baseURL string, seedRoutes []string, handle PageHandler) (*Stats, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	frontier := NewFrontier(c.config.MaxPages)
	for _, route := range seedRoutes {
		if canonical, ok := Canonicalize(base, route); ok {
			frontier.Push(canonical)
		}
	}

	pool, err := ants.NewPool(c.config.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	stats := &Stats{}
	for {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		batch := frontier.NextBatch(c.config.Concurrency)
		if len(batch) == 0 {
			break
		}
		slog.Debug("dispatching batch", "size", len(batch), "visited", frontier.VisitedCount())

		results := make([]visitResult, len(batch))
		var wg sync.WaitGroup
		for i, pageURL := range batch {
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				results[i] = c.visit(ctx, base, pageURL, handle)
			})
			if submitErr != nil {
				wg.Done()
				results[i] = visitResult{url: pageURL, failed: true}
			}
		}
		wg.Wait()

		// Merge results back sequentially: counters first, then newly
		// discovered links into the frontier.
		for _, r := range results {
			stats.Visited++
			switch {
			case r.failed:
				stats.Failed++
			case r.outcome == OutcomeSkipped:
				stats.Skipped++
			default:
				stats.OK++
			}
			for _, link := range r.links {
				frontier.Push(link)
			}
		}

		if frontier.Done() {
			break
		}
	}

	slog.Info("crawl finished",
		"visited", stats.Visited, "ok", stats.OK,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// visit fetches and processes one page. All recoverable conditions are
// absorbed here; only counters escape.
func (c *Crawler) visit(ctx context.Context, base *url.URL, pageURL string, handle PageHandler) visitResult {
	res := visitResult{url: pageURL}

	html, status, contentType, err := c.fetch(ctx, pageURL)
	if err != nil {
		slog.Warn("fetch failed", "url", pageURL, "error", err)
		res.failed = true
		return res
	}
	if status == http.StatusNotFound {
		// 404 is "no content", not an error.
		slog.Debug("page not found", "url", pageURL)
		res.outcome = OutcomeSkipped
		return res
	}
	if status >= 400 {
		slog.Warn("error status", "url", pageURL, "status", status)
		res.failed = true
		return res
	}
	if !strings.Contains(contentType, "text/html") {
		slog.Debug("skipping non-HTML content", "url", pageURL, "content_type", contentType)
		res.outcome = OutcomeSkipped
		return res
	}

	res.links = c.extractLinks(base, pageURL, html)

	outcome, err := handle(ctx, Page{URL: pageURL, HTML: html, Links: res.links})
	if err != nil {
		slog.Warn("page processing failed", "url", pageURL, "error", err)
		res.failed = true
		return res
	}
	res.outcome = outcome
	return res
}

// fetch retrieves a page body, honoring the crawl rate limit.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (body string, status int, contentType string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, "", err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, "", err
	}
	return string(data), resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

// extractLinks collects same-origin, non-excluded canonical links.
func (c *Crawler) extractLinks(base *url.URL, pageURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	pageBase, err := url.Parse(pageURL)
	if err != nil {
		pageBase = base
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		canonical, ok := Canonicalize(pageBase, href)
		if !ok {
			return
		}
		u, err := url.Parse(canonical)
		if err != nil || !SameOrigin(base, u) || Excluded(u) {
			return
		}
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		links = append(links, canonical)
	})
	return links
}
