package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/mediahaus/siterag/internal/processor"
)

// Config holds extractor configuration.
type Config struct {
	// MinPageChars is the acceptance threshold: a later fallback stage is
	// only attempted while the best text so far is shorter than this.
	MinPageChars int
	// MaxIslandDepth bounds the recursive walk over data-island JSON.
	MaxIslandDepth int
}

// Stage identifies which fallback stage produced the page text.
type Stage int

const (
	// StageDOM is the primary-content DOM text stage.
	StageDOM Stage = iota
	// StageIsland is the embedded data-island fallback.
	StageIsland
	// StageDataEndpoint is the secondary per-route JSON endpoint fallback.
	StageDataEndpoint
)

// Result is the best-available plain-text representation of a page.
type Result struct {
	Title string
	Text  string
	Stage Stage
}

// Extractor obtains plain text from pages whose content may be rendered
// client-side, via a three-stage fallback chain. One extractor is shared
// by all workers of a crawl session; the discovered framework build id is
// cached on the session, not in a process global.
type Extractor struct {
	config     Config
	httpClient *http.Client
	processor  *processor.Processor

	mu      sync.Mutex
	buildID string
}

// New creates an Extractor. httpClient is used only for the secondary
// data-endpoint fetch and may be shared with the crawler.
func New(config Config, httpClient *http.Client) *Extractor {
	if config.MinPageChars <= 0 {
		config.MinPageChars = 120
	}
	if config.MaxIslandDepth <= 0 {
		config.MaxIslandDepth = 6
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Extractor{
		config:     config,
		httpClient: httpClient,
		processor:  processor.New(),
	}
}

// Extract runs the fallback chain over a fetched page. Each later stage
// is attempted only while the best candidate is below MinPageChars; the
// longest non-empty candidate wins. An empty Text means the page
// contributed nothing and should be skipped.
func (e *Extractor) Extract(ctx context.Context, pageURL, htmlContent string) Result {
	res := Result{
		Title: e.processor.ExtractTitle(htmlContent),
		Stage: StageDOM,
		Text:  domText(htmlContent),
	}
	if len(res.Text) >= e.config.MinPageChars {
		return res
	}

	island := parseIsland(htmlContent)
	if island != nil {
		e.rememberBuildID(island.BuildID)
		if text := joinIslandText(collectStrings(island.Payload, e.config.MaxIslandDepth)); len(text) > len(res.Text) {
			res.Text = text
			res.Stage = StageIsland
		}
	}
	if len(res.Text) >= e.config.MinPageChars {
		return res
	}

	if text := e.dataEndpointText(ctx, pageURL); len(text) > len(res.Text) {
		res.Text = text
		res.Stage = StageDataEndpoint
	}
	return res
}

// rememberBuildID caches the first build id seen this session.
func (e *Extractor) rememberBuildID(id string) {
	if id == "" {
		return
	}
	e.mu.Lock()
	if e.buildID == "" {
		e.buildID = id
	}
	e.mu.Unlock()
}

// BuildID returns the cached framework build identifier, if discovered.
func (e *Extractor) BuildID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildID
}

// dataEndpointText fetches the per-route JSON data resource and applies
// the island string extraction to its payload. Last-resort fallback; any
// failure degrades to no text.
func (e *Extractor) dataEndpointText(ctx context.Context, pageURL string) string {
	buildID := e.BuildID()
	if buildID == "" {
		return ""
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	endpoint := fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, dataEndpointPath(buildID, u.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		slog.Debug("data endpoint fetch failed", "url", endpoint, "error", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return joinIslandText(collectStrings(payload, e.config.MaxIslandDepth))
}

// domText parses the HTML, strips script/style/iframe/noscript nodes and
// takes the text of the primary content region, falling back to the whole
// body, with whitespace collapsed.
func domText(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	doc.Find("script, style, iframe, noscript").Remove()

	for _, selector := range []string{"main", "article", "[role=main]", "#content"} {
		if sel := doc.Find(selector); sel.Length() > 0 {
			if text := collapse(sel.Text()); text != "" {
				return text
			}
		}
	}
	return collapse(doc.Find("body").Text())
}

// collapse normalizes whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
