package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mediahaus/siterag/pkg/models"
)

// Embedder converts query text into a vector. It must be backed by the
// same embedding model used at ingestion time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher performs nearest-neighbor search over stored chunk embeddings.
type Searcher interface {
	SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]models.SearchResult, error)
}

// Completer generates an answer from a message list.
type Completer interface {
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Config holds retriever configuration.
type Config struct {
	TopK int
}

// Source is a citation returned alongside an answer.
type Source struct {
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Similarity float32 `json:"similarity"`
}

// Answer is a grounded reply with its citations.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Retriever answers a visitor's question from previously ingested chunks:
// embed the latest user message, fetch the nearest chunks, and hand them
// to the completion model as the only allowed grounding.
type Retriever struct {
	embedder  Embedder
	searcher  Searcher
	completer Completer
	topK      int
}

// New creates a Retriever.
func New(config Config, embedder Embedder, searcher Searcher, completer Completer) *Retriever {
	topK := config.TopK
	if topK <= 0 {
		topK = 6
	}
	return &Retriever{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		topK:      topK,
	}
}

const systemPrompt = `You are a helpful assistant for a website. Answer the visitor's question using ONLY the numbered SOURCES below. If the sources do not cover the question, say you don't have that information and suggest contacting the site directly. Never invent facts that are not in the sources.

SOURCES:
%s`

// Ask answers the conversation's latest user message.
func (r *Retriever) Ask(ctx context.Context, messages []models.ChatMessage) (*Answer, error) {
	query := latestUserMessage(messages)
	if query == "" {
		return nil, fmt.Errorf("no user message in conversation")
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.searcher.SimilaritySearch(ctx, queryVec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	slog.Debug("retrieved chunks", "query_len", len(query), "results", len(results))

	prompt := []models.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(systemPrompt, sourcesBlock(results))},
	}
	for _, m := range messages {
		if m.Role == "user" || m.Role == "assistant" {
			prompt = append(prompt, m)
		}
	}

	answer, err := r.completer.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	sources := make([]Source, len(results))
	for i, res := range results {
		sources[i] = Source{Source: res.Source, Title: res.Title, Similarity: res.Similarity}
	}
	return &Answer{Answer: answer, Sources: sources}, nil
}

// sourcesBlock formats retrieved chunks as a numbered, delimited list.
func sourcesBlock(results []models.SearchResult) string {
	if len(results) == 0 {
		return "(no sources found)"
	}
	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n---\n", i+1, res.Title, res.Source, res.Content)
	}
	return b.String()
}

// latestUserMessage returns the content of the last user-role message.
func latestUserMessage(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
