package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mediahaus/siterag/internal/chunk"
	"github.com/mediahaus/siterag/internal/crawl"
	"github.com/mediahaus/siterag/internal/extract"
	"github.com/mediahaus/siterag/internal/ingest"
	"github.com/mediahaus/siterag/internal/storage"
	"github.com/spf13/cobra"
)

var (
	ingestURL     string
	ingestArchive bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl the site and index its chunks",
	Long: `Crawl the configured site, extract page text, chunk it and index
chunks with embeddings into Elasticsearch.

Ingestion is idempotent: chunks are keyed by a content hash and
embeddings are only generated for chunks that lack one, so re-running
over an unchanged site is cheap.

Examples:
  # Ingest the configured site
  siterag ingest

  # Ingest a specific origin
  siterag ingest --url https://example.com

  # Also archive page markdown to object storage
  siterag ingest --archive`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "site base URL (overrides config)")
	ingestCmd.Flags().BoolVar(&ingestArchive, "archive", false, "archive page markdown to object storage")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	baseURL := cfg.Site.BaseURL
	if ingestURL != "" {
		baseURL = ingestURL
	}
	if baseURL == "" {
		return fmt.Errorf("no site base URL configured and no --url provided")
	}

	storeClient, err := newStoreClient(cfg)
	if err != nil {
		return err
	}
	embedClient, err := newEmbeddingsClient(cfg)
	if err != nil {
		return err
	}

	var archive *storage.Archive
	if ingestArchive {
		if cfg.Storage.Endpoint == "" {
			return fmt.Errorf("--archive requires storage.endpoint to be configured")
		}
		archive, err = storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
		}, baseURL)
		if err != nil {
			return fmt.Errorf("failed to create archive client: %w", err)
		}
		slog.Info("page archive enabled", "bucket", cfg.Storage.Bucket)
	}

	session, err := ingest.New(ingest.Config{
		BaseURL:    baseURL,
		SeedRoutes: cfg.Site.SeedRoutes,
		Crawl: crawl.Config{
			Concurrency:   cfg.Crawl.Concurrency,
			MaxPages:      cfg.Crawl.MaxPages,
			RatePerSecond: cfg.Crawl.RatePerSecond,
			Timeout:       cfg.Crawl.Timeout,
			UserAgent:     cfg.Crawl.UserAgent,
		},
		Extract: extract.Config{
			MinPageChars:   cfg.Extract.MinPageChars,
			MaxIslandDepth: cfg.Extract.MaxIslandDepth,
		},
		Chunk: chunk.Config{
			Size:       cfg.Chunk.Size,
			Overlap:    cfg.Chunk.Overlap,
			MinChars:   cfg.Chunk.MinChars,
			MaxPerPage: cfg.Chunk.MaxPerPage,
		},
	}, embedClient, storeClient, archive)
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting: %s\n", baseURL)

	result, err := session.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Pages visited: %d (ok %d, skipped %d, failed %d)\n",
		result.Pages.Visited, result.Pages.OK, result.Pages.Skipped, result.Pages.Failed)
	fmt.Printf("  Chunks stored: %d of %d seen\n", result.ChunksStored, result.ChunksSeen)
	fmt.Printf("  Embeddings created: %d\n", result.EmbeddingsCreated)
	fmt.Printf("  Duration: %v\n", result.Duration)
	if result.ArchivePrefix != "" {
		fmt.Printf("  Archive: %s\n", result.ArchivePrefix)
	}

	return nil
}
