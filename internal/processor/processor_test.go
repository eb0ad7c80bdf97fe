package processor

import (
	"strings"
	"testing"
)

func TestProcessor_ToMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string // Expected substrings in output
	}{
		{
			name: "converts headings",
			html: `<html><body><h1>Our Services</h1><h2>Weddings</h2></body></html>`,
			contains: []string{
				"# Our Services",
				"## Weddings",
			},
		},
		{
			name: "converts paragraphs",
			html: `<html><body><p>Hello world.</p><p>Second paragraph.</p></body></html>`,
			contains: []string{
				"Hello world.",
				"Second paragraph.",
			},
		},
		{
			name: "converts links",
			html: `<html><body><p>Check <a href="https://example.com">this link</a>.</p></body></html>`,
			contains: []string{
				"[this link](https://example.com)",
			},
		},
		{
			name: "converts lists",
			html: `<html><body><ul><li>Item 1</li><li>Item 2</li></ul></body></html>`,
			contains: []string{
				"Item 1",
				"Item 2",
			},
		},
	}

	p := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ToMarkdown(tt.html)
			if err != nil {
				t.Fatalf("ToMarkdown() error = %v", err)
			}

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("expected output to contain %q, got:\n%s", expected, result)
				}
			}
		})
	}
}

func TestProcessor_ToMarkdown_EmptyInput(t *testing.T) {
	p := New()

	result, err := p.ToMarkdown("")
	if err != nil {
		t.Fatalf("ToMarkdown() error = %v", err)
	}
	if result != "" {
		t.Errorf("ToMarkdown(\"\") = %q, want empty", result)
	}
}

func TestProcessor_ExtractTitle(t *testing.T) {
	p := New()

	html := `<html><head><title>Page Title</title></head><body><p>Content</p></body></html>`
	if title := p.ExtractTitle(html); title != "Page Title" {
		t.Errorf("ExtractTitle() = %q, want %q", title, "Page Title")
	}
}

func TestProcessor_ExtractTitle_NoTitle(t *testing.T) {
	p := New()
	html := `<html><body><p>No title here</p></body></html>`

	if title := p.ExtractTitle(html); title != "" {
		t.Errorf("ExtractTitle() should return empty for no title, got %q", title)
	}
}
