package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Config holds embeddings client configuration.
type Config struct {
	BaseURL string // OpenAI-compatible API base, e.g. "https://api.openai.com"
	APIKey  string
	Model   string // e.g. "text-embedding-3-small"
	Retry   RetryPolicy
}

// Client wraps an OpenAI-compatible embeddings API. The same client and
// model must serve both ingestion and query time: mismatched model
// versions silently degrade retrieval relevance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	retry      RetryPolicy
}

// New creates a new embeddings client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	retry := config.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryPolicy()
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		model:      config.Model,
		retry:      retry,
	}, nil
}

// embeddingRequest is the request payload for the embeddings API.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse is the response from the embeddings API.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// MaxInputChars limits input to stay within the embedding model's
// context window. Text beyond it is truncated from the end.
const MaxInputChars = 20000

// Embed generates an embedding vector for the given text, retrying
// rate-limit errors per the configured policy. Any other error, or
// exhausting the retry ceiling, propagates to the caller.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}

	var vec []float32
	err := c.retry.Do(ctx, func() error {
		var embedErr error
		vec, embedErr = c.embedOnce(ctx, text)
		return embedErr
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// embedOnce performs a single embeddings API call.
func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	req := embeddingRequest{Model: c.model, Input: text}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		slog.Debug("embedding call rate limited", "model", c.model)
		return nil, fmt.Errorf("%w (status 429): %s", ErrRateLimited, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		if quotaError(respBody) {
			return nil, fmt.Errorf("%w (status %d): %s", ErrRateLimited, resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embResp.Data[0].Embedding, nil
}

// quotaError detects quota exhaustion reported with a non-429 status.
func quotaError(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "insufficient_quota") || strings.Contains(s, "rate limit")
}
