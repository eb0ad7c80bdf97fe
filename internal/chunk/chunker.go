package chunk

import (
	"log/slog"
	"strings"
)

// Config holds chunker configuration.
type Config struct {
	Size       int // maximum chunk length in characters
	Overlap    int // trailing overlap against the previous chunk
	MinChars   int // chunks shorter than this are dropped
	MaxPerPage int // hard cap on chunks taken from a single page
}

// Chunker splits normalized page text into overlapping fixed-size
// windows suitable for embedding and retrieval granularity.
type Chunker struct {
	config Config
}

// New creates a Chunker. Overlap is clamped below Size so every window
// makes forward progress.
func New(config Config) *Chunker {
	if config.Size <= 0 {
		config.Size = 1000
	}
	if config.Overlap < 0 {
		config.Overlap = 0
	}
	if config.Overlap >= config.Size {
		config.Overlap = config.Size / 4
	}
	if config.MaxPerPage <= 0 {
		config.MaxPerPage = 40
	}
	return &Chunker{config: config}
}

// Split cuts text into windows of at most Size characters, each starting
// Overlap characters before the previous window's end. The final window
// may be shorter; windows below MinChars are dropped.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for {
		if len(chunks) >= c.config.MaxPerPage {
			slog.Debug("chunk cap reached, truncating page",
				"cap", c.config.MaxPerPage, "remaining_chars", len(text)-start)
			break
		}
		end := start + c.config.Size
		if end > len(text) {
			end = len(text)
		}
		// Windows are kept verbatim so adjacent chunks share an exact
		// Overlap-sized region.
		window := text[start:end]
		if len(window) >= c.config.MinChars {
			chunks = append(chunks, window)
		}
		if end == len(text) {
			break
		}
		start = end - c.config.Overlap
	}
	return chunks
}
