package extract

import (
	"encoding/json"
	"sort"
	"strings"
)

// String length band for island values. Anything shorter is markup noise
// (single characters, icon names), anything longer is unlikely to be
// visitor-facing copy.
const (
	minIslandString = 3
	maxIslandString = 2000
)

// excludedKey reports whether a JSON key looks like embedding or vector
// data, which would pull unrelated numeric blobs into the page text.
func excludedKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "embedding") ||
		strings.Contains(k, "vector") ||
		strings.Contains(k, "base64")
}

// islandDoc is a parsed server-rendered data island. BuildID carries the
// framework build identifier used to derive the secondary data endpoint.
type islandDoc struct {
	BuildID string
	Payload any
}

// parseIsland locates the data island script in a page and decodes it.
// Returns nil when the page carries none.
func parseIsland(htmlContent string) *islandDoc {
	raw, ok := islandJSON(htmlContent)
	if !ok {
		return nil
	}

	var envelope struct {
		BuildID string `json:"buildId"`
	}
	// Tolerate a missing buildId; the payload is still useful.
	_ = json.Unmarshal([]byte(raw), &envelope)

	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return &islandDoc{BuildID: envelope.BuildID, Payload: payload}
}

// islandJSON pulls the raw JSON out of the __NEXT_DATA__ script tag.
func islandJSON(htmlContent string) (string, bool) {
	const marker = `id="__NEXT_DATA__"`
	idx := strings.Index(htmlContent, marker)
	if idx < 0 {
		return "", false
	}
	rest := htmlContent[idx:]
	open := strings.Index(rest, ">")
	if open < 0 {
		return "", false
	}
	rest = rest[open+1:]
	closing := strings.Index(rest, "</script>")
	if closing < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:closing]), true
}

// collectStrings walks a decoded JSON value and gathers all string leaves
// within the length band, bounded by maxDepth, skipping excluded keys.
// Values are deduplicated in encounter order.
func collectStrings(v any, maxDepth int) []string {
	seen := make(map[string]struct{})
	var out []string

	var walk func(v any, depth int)
	walk = func(v any, depth int) {
		if depth > maxDepth {
			return
		}
		switch val := v.(type) {
		case string:
			s := strings.TrimSpace(val)
			if len(s) < minIslandString || len(s) > maxIslandString {
				return
			}
			if _, dup := seen[s]; dup {
				return
			}
			seen[s] = struct{}{}
			out = append(out, s)
		case []any:
			for _, item := range val {
				walk(item, depth+1)
			}
		case map[string]any:
			// Sorted keys keep the walk deterministic across runs.
			keys := make([]string, 0, len(val))
			for key := range val {
				if !excludedKey(key) {
					keys = append(keys, key)
				}
			}
			sort.Strings(keys)
			for _, key := range keys {
				walk(val[key], depth+1)
			}
		}
		// Numbers, booleans and nulls contribute no text.
	}
	walk(v, 0)
	return out
}

// joinIslandText flattens collected island strings into one text blob.
func joinIslandText(values []string) string {
	return strings.Join(values, " • ")
}

// dataEndpointPath derives the per-route JSON resource path from the
// framework build identifier and the page's own path. The root path maps
// to the special index file.
func dataEndpointPath(buildID, pagePath string) string {
	if pagePath == "" || pagePath == "/" {
		return "/_next/data/" + buildID + "/index.json"
	}
	return "/_next/data/" + buildID + strings.TrimSuffix(pagePath, "/") + ".json"
}
