package crawl

import (
	"net/url"
	"path"
	"strings"
)

// skippedExtensions are file extensions that never contain crawlable text.
var skippedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".avif": true, ".ico": true, ".css": true, ".js": true,
	".mjs": true, ".map": true, ".pdf": true, ".zip": true, ".gz": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true, ".woff": true,
	".woff2": true, ".ttf": true, ".eot": true, ".xml": true, ".txt": true,
	".json": true,
}

// skippedPathPrefixes are API and framework-internal paths.
var skippedPathPrefixes = []string{"/api/", "/_next/", "/_vercel/"}

// Canonicalize resolves ref against base and returns the canonical form:
// lowercased scheme and host, default port stripped, fragment dropped,
// trailing slash dropped except for the root path. Returns false when ref
// is not an absolute-izable http(s) URL.
func Canonicalize(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), true
}

// SameOrigin reports whether u belongs to the same scheme+host as base.
func SameOrigin(base, u *url.URL) bool {
	return strings.EqualFold(base.Scheme, u.Scheme) && strings.EqualFold(base.Host, u.Host)
}

// Excluded reports whether a URL must never be enqueued into the frontier:
// non-HTML extensions, API and framework asset paths, robots/sitemap files.
// mailto:/tel: links never reach this check because Canonicalize rejects
// non-http schemes.
func Excluded(u *url.URL) bool {
	p := u.Path
	for _, prefix := range skippedPathPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	base := strings.ToLower(path.Base(p))
	if base == "robots.txt" || strings.HasPrefix(base, "sitemap") {
		return true
	}
	return skippedExtensions[strings.ToLower(path.Ext(p))]
}
