package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askTopK   int
	askStream bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Answers a question with retrieval-augmented generation: the query is
reformulated, the most relevant chunks are retrieved from the vector
index, and the language model answers from that context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	question := args[0]
	topK := askTopK
	if topK == 0 {
		topK = appConfig.Retrieval.TopK
	}

	if askStream && !askJSON {
		return streamAsk(cmd, question, topK)
	}

	answer, err := assistant.Ask(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Answer)
	if verbose {
		cmd.Println()
		cmd.Printf("Query: %s\n", answer.Query)
		cmd.Printf("Reformulated: %s\n", answer.ReformulatedQuery)
		cmd.Printf("Documents: %d\n", answer.NumDocuments)
	}
	return nil
}

func streamAsk(cmd *cobra.Command, question string, topK int) error {
	ctx := cmd.Context()

	rc, tokens, err := assistant.AskStream(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if verbose {
		cmd.Printf("Reformulated: %s\n", rc.ReformulatedQuery)
		cmd.Printf("Documents: %d\n\n", rc.NumDocuments())
	}

	var streamErr error
	for tok := range tokens {
		if tok.Err != nil {
			streamErr = tok.Err
			break
		}
		if tok.Done {
			break
		}
		cmd.Print(tok.Content)
	}
	cmd.Println()

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	return nil
}
