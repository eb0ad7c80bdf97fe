package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mediahaus/siterag/internal/chunk"
	"github.com/mediahaus/siterag/internal/crawl"
	"github.com/mediahaus/siterag/internal/extract"
	"github.com/mediahaus/siterag/internal/processor"
	"github.com/mediahaus/siterag/internal/storage"
	"github.com/mediahaus/siterag/pkg/models"
)

// Embedder converts text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists chunks and their embeddings keyed by content hash.
type ChunkStore interface {
	CreateIndex(ctx context.Context) error
	UpsertChunk(ctx context.Context, chunk models.Chunk) (created bool, err error)
	HasEmbedding(ctx context.Context, contentHash string) (bool, error)
	PutEmbedding(ctx context.Context, contentHash string, embedding []float32) error
}

// Config holds ingestion session configuration.
type Config struct {
	BaseURL    string
	SeedRoutes []string
	Crawl      crawl.Config
	Extract    extract.Config
	Chunk      chunk.Config
}

// Result holds ingestion execution results.
type Result struct {
	Pages             crawl.Stats
	ChunksStored      int
	ChunksSeen        int
	EmbeddingsCreated int
	ArchivePrefix     string
	Duration          time.Duration
}

// Session runs one crawl+ingest pass: crawl the origin, extract text,
// chunk it, upsert chunks by content hash and embed the ones that lack a
// vector. Re-running over an unchanged site is a cheap no-op.
type Session struct {
	config    Config
	crawler   *crawl.Crawler
	extractor *extract.Extractor
	chunker   *chunk.Chunker
	processor *processor.Processor
	embedder  Embedder
	store     ChunkStore
	archive   *storage.Archive // nil if archiving disabled

	mu                sync.Mutex
	chunksStored      int
	chunksSeen        int
	embeddingsCreated int
	archivedPages     []string
}

// New creates an ingestion session. archive may be nil.
func New(config Config, embedder Embedder, store ChunkStore, archive *storage.Archive) (*Session, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if len(config.SeedRoutes) == 0 {
		config.SeedRoutes = []string{"/"}
	}
	httpClient := &http.Client{Timeout: config.Crawl.Timeout}
	return &Session{
		config:    config,
		crawler:   crawl.New(config.Crawl),
		extractor: extract.New(config.Extract, httpClient),
		chunker:   chunk.New(config.Chunk),
		processor: processor.New(),
		embedder:  embedder,
		store:     store,
		archive:   archive,
	}, nil
}

// Run executes the full ingestion pass.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	slog.Info("starting ingestion", "base_url", s.config.BaseURL, "seeds", len(s.config.SeedRoutes))

	if err := s.store.CreateIndex(ctx); err != nil {
		return nil, err
	}
	if s.archive != nil {
		if err := s.archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}

	stats, err := s.crawler.Run(ctx, s.config.BaseURL, s.config.SeedRoutes, s.handlePage)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Pages:             *stats,
		ChunksStored:      s.chunksStored,
		ChunksSeen:        s.chunksSeen,
		EmbeddingsCreated: s.embeddingsCreated,
		Duration:          time.Since(start),
	}

	if s.archive != nil {
		result.ArchivePrefix = s.archive.Prefix()
		meta := storage.CrawlMetadata{
			SiteURL:   s.config.BaseURL,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			PageCount: len(s.archivedPages),
			Pages:     s.archivedPages,
		}
		if err := s.archive.PutMetadata(ctx, meta); err != nil {
			slog.Warn("failed to write archive metadata", "error", err)
		}
	}

	slog.Info("ingestion complete",
		"visited", result.Pages.Visited,
		"ok", result.Pages.OK,
		"skipped", result.Pages.Skipped,
		"failed", result.Pages.Failed,
		"chunks_stored", result.ChunksStored,
		"embeddings_created", result.EmbeddingsCreated,
		"duration", result.Duration)
	return result, nil
}

// handlePage processes one fetched page. Chunks are handled sequentially
// in text order, which keeps the embedding check-then-write idempotence
// race-free without any locking in the store.
func (s *Session) handlePage(ctx context.Context, page crawl.Page) (crawl.Outcome, error) {
	extracted := s.extractor.Extract(ctx, page.URL, page.HTML)
	if len(extracted.Text) < s.config.Chunk.MinChars {
		slog.Debug("page yielded no usable text", "url", page.URL, "chars", len(extracted.Text))
		return crawl.OutcomeSkipped, nil
	}

	chunks := s.chunker.Split(extracted.Text)
	if len(chunks) == 0 {
		return crawl.OutcomeSkipped, nil
	}

	for _, text := range chunks {
		if err := s.processChunk(ctx, page.URL, extracted.Title, text); err != nil {
			// Fatal for this page's remaining chunks, absorbed at the
			// batch boundary by the crawler.
			return 0, fmt.Errorf("chunk processing failed for %s: %w", page.URL, err)
		}
	}

	s.archivePage(ctx, page.URL, page.HTML)

	slog.Debug("page ingested", "url", page.URL, "stage", extracted.Stage, "chunks", len(chunks))
	return crawl.OutcomeOK, nil
}

// processChunk upserts one chunk and embeds it if no embedding exists.
func (s *Session) processChunk(ctx context.Context, source, title, text string) error {
	ch := models.NewChunk(source, title, text)

	created, err := s.store.UpsertChunk(ctx, ch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.chunksSeen++
	if created {
		s.chunksStored++
	}
	s.mu.Unlock()

	has, err := s.store.HasEmbedding(ctx, ch.ContentHash)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, ch.Content)
	if err != nil {
		return err
	}
	if err := s.store.PutEmbedding(ctx, ch.ContentHash, vec); err != nil {
		return err
	}

	s.mu.Lock()
	s.embeddingsCreated++
	s.mu.Unlock()
	return nil
}

// archivePage writes the page's markdown rendition, best effort.
func (s *Session) archivePage(ctx context.Context, pageURL, htmlContent string) {
	if s.archive == nil {
		return
	}
	markdown, err := s.processor.ToMarkdown(htmlContent)
	if err != nil {
		slog.Warn("markdown conversion failed", "url", pageURL, "error", err)
		return
	}
	if err := s.archive.PutPage(ctx, pageURL, markdown); err != nil {
		slog.Warn("failed to archive page", "url", pageURL, "error", err)
		return
	}
	s.mu.Lock()
	s.archivedPages = append(s.archivedPages, pageURL)
	s.mu.Unlock()
}
