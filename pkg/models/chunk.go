package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Chunk is a bounded slice of a page's extracted text, the unit of
// embedding and retrieval.
type Chunk struct {
	Source      string    `json:"source"`
	Title       string    `json:"title,omitempty"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding,omitempty"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// SearchResult is a retrieved chunk annotated with a similarity score.
type SearchResult struct {
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ContentHash computes the idempotence key for a chunk: a SHA-256 hash
// over "source::content", hex encoded. Re-ingesting identical text from
// the same source always produces the same hash.
func ContentHash(source, content string) string {
	h := sha256.Sum256([]byte(source + "::" + content))
	return hex.EncodeToString(h[:])
}

// NewChunk builds a chunk with its content hash filled in.
func NewChunk(source, title, content string) Chunk {
	return Chunk{
		Source:      source,
		Title:       title,
		Content:     content,
		ContentHash: ContentHash(source, content),
		IngestedAt:  time.Now().UTC(),
	}
}
