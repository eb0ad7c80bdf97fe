package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mediahaus/siterag/internal/chunk"
	"github.com/mediahaus/siterag/internal/crawl"
	"github.com/mediahaus/siterag/internal/extract"
	"github.com/mediahaus/siterag/pkg/models"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory ChunkStore with the same idempotence contract
// as the real one: create-if-absent keyed by content hash.
type memStore struct {
	mu         sync.Mutex
	chunks     map[string]models.Chunk
	embeddings map[string][]float32
}

func newMemStore() *memStore {
	return &memStore{
		chunks:     make(map[string]models.Chunk),
		embeddings: make(map[string][]float32),
	}
}

func (m *memStore) CreateIndex(context.Context) error { return nil }

func (m *memStore) UpsertChunk(_ context.Context, chunk models.Chunk) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[chunk.ContentHash]; ok {
		return false, nil
	}
	m.chunks[chunk.ContentHash] = chunk
	return true, nil
}

func (m *memStore) HasEmbedding(_ context.Context, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.embeddings[contentHash]
	return ok, nil
}

func (m *memStore) PutEmbedding(_ context.Context, contentHash string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[contentHash] = embedding
	return nil
}

func (m *memStore) chunkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

func testConfig(baseURL string, maxPages int) Config {
	return Config{
		BaseURL:    baseURL,
		SeedRoutes: []string{"/"},
		Crawl: crawl.Config{
			Concurrency:   2,
			MaxPages:      maxPages,
			RatePerSecond: 1000,
			Timeout:       5 * time.Second,
		},
		Extract: extract.Config{MinPageChars: 120},
		Chunk:   chunk.Config{Size: 1000, Overlap: 150, MinChars: 20},
	}
}

func TestSession_IngestsDataIslandPage(t *testing.T) {
	// A client-rendered page: the visible DOM is nearly empty, the real
	// copy lives in the embedded JSON island.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Acme</title></head><body>
			<div id="__next">Loading</div>
			<script id="__NEXT_DATA__" type="application/json">
				{"buildId":"b7","props":{"pageProps":{"lines":["Welcome to Acme","Call us today"]}}}
			</script>
		</body></html>`))
	}))
	defer server.Close()

	embedder := &fakeEmbedder{}
	store := newMemStore()
	session, err := New(testConfig(server.URL, 1), embedder, store, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Pages.Visited != 1 || result.Pages.OK != 1 || result.Pages.Skipped != 0 || result.Pages.Failed != 0 {
		t.Errorf("pages = %+v, want visited=1 ok=1 skipped=0 failed=0", result.Pages)
	}
	if result.ChunksStored != 1 {
		t.Errorf("ChunksStored = %d, want 1", result.ChunksStored)
	}
	if result.EmbeddingsCreated != 1 {
		t.Errorf("EmbeddingsCreated = %d, want 1", result.EmbeddingsCreated)
	}

	wantHash := models.ContentHash(server.URL+"/", "Welcome to Acme • Call us today")
	stored, ok := store.chunks[wantHash]
	if !ok {
		t.Fatalf("chunk with island text not stored; have %d chunks", store.chunkCount())
	}
	if stored.Title != "Acme" {
		t.Errorf("Title = %q, want %q", stored.Title, "Acme")
	}
	if len(store.embeddings[wantHash]) == 0 {
		t.Error("stored chunk should carry an embedding")
	}
}

func TestSession_RerunIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>About</title></head><body><main>` +
			`We are a creative studio producing films, photography and design for brands across the region. ` +
			`Our team handles everything from concept to final delivery.` +
			`</main></body></html>`))
	}))
	defer server.Close()

	embedder := &fakeEmbedder{}
	store := newMemStore()

	run := func() *Result {
		session, err := New(testConfig(server.URL, 1), embedder, store, nil)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		result, err := session.Run(t.Context())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return result
	}

	first := run()
	if first.ChunksStored == 0 || first.EmbeddingsCreated == 0 {
		t.Fatalf("first run stored nothing: %+v", first)
	}
	callsAfterFirst := embedder.callCount()

	second := run()
	if second.ChunksStored != 0 {
		t.Errorf("second run ChunksStored = %d, want 0", second.ChunksStored)
	}
	if second.EmbeddingsCreated != 0 {
		t.Errorf("second run EmbeddingsCreated = %d, want 0", second.EmbeddingsCreated)
	}
	if embedder.callCount() != callsAfterFirst {
		t.Errorf("second run re-embedded already-embedded chunks (%d calls, want %d)",
			embedder.callCount(), callsAfterFirst)
	}
	if second.ChunksSeen != first.ChunksSeen {
		t.Errorf("ChunksSeen = %d, want %d (same pages, same chunks)", second.ChunksSeen, first.ChunksSeen)
	}
}

func TestSession_TooLittleTextSkipsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><main>Hi.</main></body></html>`))
	}))
	defer server.Close()

	embedder := &fakeEmbedder{}
	store := newMemStore()
	session, err := New(testConfig(server.URL, 1), embedder, store, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Pages.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Pages.Skipped)
	}
	if store.chunkCount() != 0 {
		t.Errorf("stored %d chunks from a page with no usable text", store.chunkCount())
	}
	if embedder.callCount() != 0 {
		t.Error("nothing should be embedded for a skipped page")
	}
}

func TestSession_EmbedFailureFailsPageNotCrawl(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><main>` +
			`A page with enough text that it will definitely be chunked and sent off for embedding.` +
			`</main></body></html>`))
	}))
	defer server.Close()

	embedder := &fakeEmbedder{err: errors.New("provider down")}
	store := newMemStore()
	session, err := New(testConfig(server.URL, 1), embedder, store, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := session.Run(t.Context())
	if err != nil {
		t.Fatalf("Run() error = %v (page failures must not abort the crawl)", err)
	}

	if result.Pages.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Pages.Failed)
	}
	if result.EmbeddingsCreated != 0 {
		t.Errorf("EmbeddingsCreated = %d, want 0", result.EmbeddingsCreated)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, &fakeEmbedder{}, newMemStore(), nil)
	if err == nil {
		t.Error("New() without a base URL should fail")
	}
}
