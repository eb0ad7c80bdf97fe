package crawl

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func TestCanonicalize(t *testing.T) {
	base := mustParse(t, "https://example.com")

	tests := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{"relative path", "/about", "https://example.com/about", true},
		{"trailing slash stripped", "/about/", "https://example.com/about", true},
		{"root keeps slash", "/", "https://example.com/", true},
		{"fragment stripped", "/services#top", "https://example.com/services", true},
		{"host lowercased", "https://EXAMPLE.com/X", "https://example.com/X", true},
		{"default https port stripped", "https://example.com:443/a", "https://example.com/a", true},
		{"default http port stripped", "http://example.com:80/a", "http://example.com/a", true},
		{"mailto rejected", "mailto:x@y.com", "", false},
		{"tel rejected", "tel:+15551234567", "", false},
		{"javascript rejected", "javascript:void(0)", "", false},
		{"empty path becomes root", "https://example.com", "https://example.com/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(base, tt.ref)
			if ok != tt.ok {
				t.Fatalf("Canonicalize(%q) ok = %v, want %v", tt.ref, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_SameInputSameOutput(t *testing.T) {
	base := mustParse(t, "https://example.com")
	a, _ := Canonicalize(base, "/careers/")
	b, _ := Canonicalize(base, "https://example.com/careers")
	if a != b {
		t.Errorf("equivalent URLs canonicalized differently: %q vs %q", a, b)
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		ref      string
		excluded bool
	}{
		{"https://example.com/robots.txt", true},
		{"https://example.com/sitemap.xml", true},
		{"https://example.com/sitemap-0.xml", true},
		{"https://example.com/_next/static/chunks/main.js", true},
		{"https://example.com/api/upload", true},
		{"https://example.com/image.png", true},
		{"https://example.com/brochure.pdf", true},
		{"https://example.com/styles.css", true},
		{"https://example.com/about", false},
		{"https://example.com/", false},
		{"https://example.com/weddings", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			u := mustParse(t, tt.ref)
			if got := Excluded(u); got != tt.excluded {
				t.Errorf("Excluded(%q) = %v, want %v", tt.ref, got, tt.excluded)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	base := mustParse(t, "https://example.com")
	if !SameOrigin(base, mustParse(t, "https://example.com/about")) {
		t.Error("same host should be same origin")
	}
	if SameOrigin(base, mustParse(t, "https://other.com/about")) {
		t.Error("different host should not be same origin")
	}
	if SameOrigin(base, mustParse(t, "http://example.com/about")) {
		t.Error("different scheme should not be same origin")
	}
}
