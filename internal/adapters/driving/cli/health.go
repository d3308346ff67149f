package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the pipeline's dependencies",
	Long: `Probes the language model backend and the vector index and reports
the aggregate status. Exits non-zero unless everything is healthy.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	status := assistant.Health(ctx)

	cmd.Printf("LLM service:  %s\n", status.LLM)
	cmd.Printf("Vector store: %s\n", status.VectorStore)
	cmd.Printf("Overall:      %s\n", status.Overall)
	if status.Error != "" {
		cmd.Printf("Error: %s\n", status.Error)
	}

	if status.Overall != domain.StatusHealthy {
		return fmt.Errorf("pipeline is %s", status.Overall)
	}
	return nil
}
