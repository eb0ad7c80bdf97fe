package config

import "time"

// Config holds all application configuration.
type Config struct {
	Site          Site          `mapstructure:"site"`
	Crawl         Crawl         `mapstructure:"crawl"`
	Extract       Extract       `mapstructure:"extract"`
	Chunk         Chunk         `mapstructure:"chunk"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	LLM           LLM           `mapstructure:"llm"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Retrieve      Retrieve      `mapstructure:"retrieve"`
	Server        Server        `mapstructure:"server"`
	Storage       Storage       `mapstructure:"storage"`
	MCP           MCP           `mapstructure:"mcp"`
}

// Site identifies the origin to ingest.
type Site struct {
	BaseURL    string   `mapstructure:"base_url"`
	SeedRoutes []string `mapstructure:"seed_routes"`
}

// Crawl holds crawl controller configuration.
type Crawl struct {
	Concurrency   int           `mapstructure:"concurrency"`
	MaxPages      int           `mapstructure:"max_pages"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// Extract holds text extraction configuration.
type Extract struct {
	MinPageChars   int `mapstructure:"min_page_chars"`
	MaxIslandDepth int `mapstructure:"max_island_depth"`
}

// Chunk holds chunker configuration.
type Chunk struct {
	Size       int `mapstructure:"size"`
	Overlap    int `mapstructure:"overlap"`
	MinChars   int `mapstructure:"min_chars"`
	MaxPerPage int `mapstructure:"max_per_page"`
}

// Embeddings holds embedding provider configuration.
type Embeddings struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

// LLM holds completion provider configuration.
type LLM struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Retrieve holds query-time retrieval configuration.
type Retrieve struct {
	TopK int `mapstructure:"top_k"`
}

// Server holds chat HTTP server configuration.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Storage holds optional S3/MinIO page-archive configuration.
// The archive is disabled when Endpoint is empty.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Site: Site{
			SeedRoutes: []string{"/", "/about", "/services", "/showroom", "/careers", "/weddings"},
		},
		Crawl: Crawl{
			Concurrency:   4,
			MaxPages:      60,
			RatePerSecond: 4,
			Timeout:       20 * time.Second,
			UserAgent:     "siterag/1.0",
		},
		Extract: Extract{
			MinPageChars:   120,
			MaxIslandDepth: 6,
		},
		Chunk: Chunk{
			Size:       1000,
			Overlap:    150,
			MinChars:   20,
			MaxPerPage: 40,
		},
		Embeddings: Embeddings{
			BaseURL:    "https://api.openai.com",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			MaxRetries: 5,
			BaseDelay:  1 * time.Second,
			MaxDelay:   16 * time.Second,
		},
		LLM: LLM{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "siterag-chunks",
		},
		Retrieve: Retrieve{
			TopK: 6,
		},
		Server: Server{
			Addr: ":8080",
		},
		Storage: Storage{
			Bucket: "siterag",
		},
		MCP: MCP{
			Name:    "siterag",
			Version: "1.0.0",
		},
	}
}
