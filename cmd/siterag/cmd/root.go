package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mediahaus/siterag/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "siterag",
	Short: "siterag: site ingestion and retrieval-augmented chat",
	Long: `siterag crawls a single-origin website, extracts page text (with
fallbacks into framework data islands), chunks and embeds it into
Elasticsearch, and answers visitor questions grounded in those chunks.

Commands:
  ingest  Crawl the configured site and index its chunks
  search  Text search over stored chunks
  ask     Ask one question, answered from stored chunks
  serve   Start the chat HTTP API
  mcp     Start the MCP retrieval server`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/siterag")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides:
	// SITERAG_EMBEDDINGS_API_KEY -> embeddings.api_key
	viper.SetEnvPrefix("SITERAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("site.base_url", "SITERAG_SITE_BASE_URL")
	viper.BindEnv("crawl.concurrency", "SITERAG_CRAWL_CONCURRENCY")
	viper.BindEnv("crawl.max_pages", "SITERAG_CRAWL_MAX_PAGES")
	viper.BindEnv("embeddings.base_url", "SITERAG_EMBEDDINGS_BASE_URL")
	viper.BindEnv("embeddings.api_key", "SITERAG_EMBEDDINGS_API_KEY")
	viper.BindEnv("embeddings.model", "SITERAG_EMBEDDINGS_MODEL")
	viper.BindEnv("llm.base_url", "SITERAG_LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "SITERAG_LLM_API_KEY")
	viper.BindEnv("llm.model", "SITERAG_LLM_MODEL")
	viper.BindEnv("elasticsearch.addresses", "SITERAG_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "SITERAG_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "SITERAG_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "SITERAG_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("server.addr", "SITERAG_SERVER_ADDR")
	viper.BindEnv("storage.endpoint", "SITERAG_STORAGE_ENDPOINT")
	viper.BindEnv("storage.access_key_id", "SITERAG_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "SITERAG_STORAGE_SECRET_ACCESS_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Addresses may arrive as a comma-separated string from env
	if addrs := os.Getenv("SITERAG_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}
