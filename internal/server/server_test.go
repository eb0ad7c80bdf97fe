package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahaus/siterag/internal/retrieve"
	"github.com/mediahaus/siterag/pkg/models"
)

type fakeAnswerer struct {
	answer *retrieve.Answer
	err    error
}

func (f *fakeAnswerer) Ask(_ context.Context, _ []models.ChatMessage) (*retrieve.Answer, error) {
	return f.answer, f.err
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat_Success(t *testing.T) {
	answerer := &fakeAnswerer{answer: &retrieve.Answer{
		Answer: "We're open Tuesday through Saturday.",
		Sources: []retrieve.Source{
			{Source: "https://example.com/about", Title: "About Us", Similarity: 0.91},
		},
	}}
	srv := New(":0", answerer)

	rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"What are your hours?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got retrieve.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "We're open Tuesday through Saturday.", got.Answer)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "https://example.com/about", got.Sources[0].Source)
	assert.InDelta(t, 0.91, got.Sources[0].Similarity, 0.001)
}

func TestHandleChat_FailureIsGeneric(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("elasticsearch: connection refused at 10.0.0.5:9200")}
	srv := New(":0", answerer)

	rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sorry, we hit a snag answering that. Please try again.", resp.Error)
	assert.NotContains(t, rec.Body.String(), "elasticsearch", "internal details must not leak to visitors")
}

func TestHandleChat_BadRequests(t *testing.T) {
	srv := New(":0", &fakeAnswerer{answer: &retrieve.Answer{}})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"empty messages", `{"messages":[]}`},
		{"missing messages", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, srv.Handler(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	srv := New(":0", &fakeAnswerer{})
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := New(":0", &fakeAnswerer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
