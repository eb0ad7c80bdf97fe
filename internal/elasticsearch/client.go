package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mediahaus/siterag/pkg/models"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses  []string
	Index      string
	Username   string
	Password   string
	Dimensions int // embedding vector dimensionality
}

// Client wraps the Elasticsearch client with chunk-store operations.
// Documents are keyed by content hash, which is what makes ingestion
// idempotent: re-upserting identical text from the same source is a
// no-op.
type Client struct {
	es    *elasticsearch.Client
	index string
	dims  int
}

// New creates a new Elasticsearch chunk store client.
func New(config Config) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	dims := config.Dimensions
	if dims <= 0 {
		dims = 1536
	}

	return &Client{es: es, index: config.Index, dims: dims}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping is the chunk index mapping. Content hash doubles as the
// document id; the embedding field is absent until PutEmbedding fills it.
const indexMapping = `{
	"mappings": {
		"properties": {
			"source": { "type": "keyword" },
			"title": { "type": "text" },
			"content": { "type": "text", "analyzer": "english" },
			"content_hash": { "type": "keyword" },
			"ingested_at": { "type": "date" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	}
}`

// CreateIndex creates the chunk index with proper mapping. Idempotent.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := fmt.Sprintf(indexMapping, c.dims)
	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// UpsertChunk persists a chunk keyed by its content hash, creating it
// only if absent. A version conflict means the identical chunk already
// exists and is reported as created=false, not an error.
func (c *Client) UpsertChunk(ctx context.Context, chunk models.Chunk) (created bool, err error) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return false, fmt.Errorf("failed to marshal chunk: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(chunk.ContentHash),
		c.es.Index.WithOpType("create"),
	)
	if err != nil {
		return false, fmt.Errorf("failed to index chunk: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("error indexing chunk (status %d): %s", res.StatusCode, res.String())
	}
	return true, nil
}

// getResponse represents an ES get response.
type getResponse struct {
	Found  bool         `json:"found"`
	Source models.Chunk `json:"_source"`
}

// HasEmbedding reports whether the chunk already carries an embedding.
// Checked before paying for an embedding call.
func (c *Client) HasEmbedding(ctx context.Context, contentHash string) (bool, error) {
	res, err := c.es.Get(
		c.index,
		contentHash,
		c.es.Get.WithContext(ctx),
		c.es.Get.WithSourceIncludes("embedding"),
	)
	if err != nil {
		return false, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return gr.Found && len(gr.Source.Embedding) > 0, nil
}

// PutEmbedding attaches an embedding vector to an existing chunk. This is
// the final step of chunk processing; a failure leaves the chunk without
// an embedding until a future run fills it in.
func (c *Client) PutEmbedding(ctx context.Context, contentHash string, embedding []float32) error {
	body, err := json.Marshal(map[string]any{
		"doc": map[string]any{"embedding": embedding},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	res, err := c.es.Update(
		c.index,
		contentHash,
		bytes.NewReader(body),
		c.es.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error storing embedding (status %d): %s", res.StatusCode, res.String())
	}
	return nil
}

// searchResponse represents an ES search response.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float32      `json:"_score"`
			Source models.Chunk `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SimilaritySearch returns the k nearest chunks to the query vector,
// each annotated with its similarity score.
func (c *Client) SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]models.SearchResult, error) {
	searchQuery := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   queryVector,
			"k":              k,
			"num_candidates": k * 4,
		},
		"size":    k,
		"_source": []string{"source", "title", "content"},
	}
	return c.search(ctx, searchQuery)
}

// TextSearch performs a BM25 search over chunk content and titles.
func (c *Client) TextSearch(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	searchQuery := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"content", "title^2"},
			},
		},
		"size":    k,
		"_source": []string{"source", "title", "content"},
	}
	return c.search(ctx, searchQuery)
}

func (c *Client) search(ctx context.Context, searchQuery map[string]any) ([]models.SearchResult, error) {
	data, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]models.SearchResult, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		results[i] = models.SearchResult{
			Source:     hit.Source.Source,
			Title:      hit.Source.Title,
			Content:    hit.Source.Content,
			Similarity: hit.Score,
		}
	}
	return results, nil
}

// GetChunk retrieves a chunk by content hash. Returns nil when absent.
func (c *Client) GetChunk(ctx context.Context, contentHash string) (*models.Chunk, error) {
	res, err := c.es.Get(c.index, contentHash, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !gr.Found {
		return nil, nil
	}
	return &gr.Source, nil
}

// PurgeSource deletes all chunk rows for one source URL. Stale rows are
// not removed automatically on re-ingestion; this is an operator tool.
func (c *Client) PurgeSource(ctx context.Context, source string) error {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"term": map[string]any{"source": source},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.DeleteByQuery(
		[]string{c.index},
		bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete by query failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete by query error: %s", res.String())
	}
	return nil
}

// Refresh forces an index refresh (useful for testing).
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}
