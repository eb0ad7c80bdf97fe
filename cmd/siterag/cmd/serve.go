package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mediahaus/siterag/internal/retrieve"
	"github.com/mediahaus/siterag/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP API",
	Long: `Start the HTTP server backing the site's chat widget.

POST /api/chat accepts {"messages": [{"role": "...", "content": "..."}]}
and responds with {"answer": "...", "sources": [...]}.

Example:
  siterag serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	storeClient, err := newStoreClient(cfg)
	if err != nil {
		return err
	}
	embedClient, err := newEmbeddingsClient(cfg)
	if err != nil {
		return err
	}
	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	retriever := retrieve.New(retrieve.Config{TopK: cfg.Retrieve.TopK},
		embedClient, storeClient, llmClient)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	return server.New(addr, retriever).ListenAndServe(ctx)
}
