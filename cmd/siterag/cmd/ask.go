package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mediahaus/siterag/internal/retrieve"
	"github.com/mediahaus/siterag/pkg/models"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question, answered from stored chunks",
	Long: `Answer a single question using retrieval-augmented generation over
the ingested site content.

Example:
  siterag ask "what are your opening hours?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	answer, err := retriever.Ask(ctx, []models.ChatMessage{
		{Role: "user", Content: args[0]},
	})
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range answer.Sources {
			fmt.Printf("  [%d] %s (similarity %.2f)\n", i+1, src.Source, src.Similarity)
		}
	}
	return nil
}
