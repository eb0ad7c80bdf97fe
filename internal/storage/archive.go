package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3/MinIO archive configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Archive stores markdown renditions of crawled pages in object storage,
// one crawl per prefix, for debugging and offline inspection.
type Archive struct {
	minioClient *minio.Client
	bucket      string
	prefix      string
}

// New creates an archive client with a fresh per-crawl prefix:
// crawls/{host}/{timestamp}-{shortid}.
func New(config Config, siteURL string) (*Archive, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	host := "site"
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		host = u.Host
	}
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	shortID := PageObjectID(fmt.Sprintf("%s-%d", siteURL, time.Now().UnixNano()))[:8]

	return &Archive{
		minioClient: minioClient,
		bucket:      config.Bucket,
		prefix:      fmt.Sprintf("crawls/%s/%s-%s", host, timestamp, shortID),
	}, nil
}

// PageObjectID derives a deterministic object name from a page URL.
func PageObjectID(pageURL string) string {
	hash := sha256.Sum256([]byte(pageURL))
	return hex.EncodeToString(hash[:])[:16]
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.minioClient.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.minioClient.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutPage writes one page's markdown rendition under the crawl prefix.
func (a *Archive) PutPage(ctx context.Context, pageURL, markdown string) error {
	objectName := path.Join(a.prefix, "pages", PageObjectID(pageURL)+".md")
	reader := strings.NewReader(markdown)

	_, err := a.minioClient.PutObject(ctx, a.bucket, objectName, reader, int64(len(markdown)), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to put page: %w", err)
	}
	return nil
}

// CrawlMetadata summarizes an archived crawl.
type CrawlMetadata struct {
	SiteURL   string   `json:"site_url"`
	Timestamp string   `json:"timestamp"`
	PageCount int      `json:"page_count"`
	Pages     []string `json:"pages"`
}

// PutMetadata writes the crawl metadata JSON under the crawl prefix.
func (a *Archive) PutMetadata(ctx context.Context, meta CrawlMetadata) error {
	objectName := path.Join(a.prefix, "metadata.json")

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = a.minioClient.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put metadata: %w", err)
	}
	return nil
}

// Prefix returns the crawl prefix for this archive session.
func (a *Archive) Prefix() string { return a.prefix }
