package cmd

import (
	"fmt"

	"github.com/mediahaus/siterag/internal/config"
	"github.com/mediahaus/siterag/internal/elasticsearch"
	"github.com/mediahaus/siterag/internal/embeddings"
	"github.com/mediahaus/siterag/internal/llm"
)

// newStoreClient builds the Elasticsearch chunk store client.
func newStoreClient(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.New(elasticsearch.Config{
		Addresses:  cfg.Elasticsearch.Addresses,
		Index:      cfg.Elasticsearch.Index,
		Username:   cfg.Elasticsearch.Username,
		Password:   cfg.Elasticsearch.Password,
		Dimensions: cfg.Embeddings.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return client, nil
}

// newEmbeddingsClient builds the embeddings client. A missing API key is
// a configuration error and aborts the run before any work starts.
func newEmbeddingsClient(cfg config.Config) (*embeddings.Client, error) {
	if cfg.Embeddings.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is not set (SITERAG_EMBEDDINGS_API_KEY)")
	}
	retry := embeddings.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Embeddings.MaxRetries
	retry.BaseDelay = cfg.Embeddings.BaseDelay
	retry.MaxDelay = cfg.Embeddings.MaxDelay

	client, err := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		APIKey:  cfg.Embeddings.APIKey,
		Model:   cfg.Embeddings.Model,
		Retry:   retry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}
	return client, nil
}

// newLLMClient builds the chat completion client. The LLM API key falls
// back to the embeddings key when both point at the same provider.
func newLLMClient(cfg config.Config) (*llm.Client, error) {
	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = cfg.Embeddings.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key is not set (SITERAG_LLM_API_KEY)")
	}

	client, err := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  apiKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}
