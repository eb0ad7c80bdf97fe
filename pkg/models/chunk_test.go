package models

import "testing"

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("https://example.com/about", "Our hours are 8-5 Mon-Fri")
	b := ContentHash("https://example.com/about", "Our hours are 8-5 Mon-Fri")
	if a != b {
		t.Errorf("same input produced different hashes: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestContentHash_SourceIsPartOfKey(t *testing.T) {
	a := ContentHash("https://example.com/a", "same text")
	b := ContentHash("https://example.com/b", "same text")
	if a == b {
		t.Error("identical content from different sources must hash differently")
	}
}

func TestNewChunk(t *testing.T) {
	c := NewChunk("https://example.com/", "Home", "Welcome")
	if c.ContentHash != ContentHash("https://example.com/", "Welcome") {
		t.Error("NewChunk did not compute the content hash")
	}
	if c.IngestedAt.IsZero() {
		t.Error("IngestedAt should be set")
	}
}
