package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [key]",
	Short: "Ingest documents into the vector index",
	Long: `Ingests one document by its storage key, or every eligible document
when the key is omitted. Re-ingesting a document replaces its previous
chunks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	if len(args) == 1 {
		chunks, err := ingestor.IngestDocument(ctx, args[0])
		if err != nil {
			return fmt.Errorf("ingest %s failed: %w", args[0], err)
		}
		cmd.Printf("Ingested %s: %d chunks\n", args[0], chunks)
		return nil
	}

	report, err := ingestor.IngestAll(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report)
	if report.Failed > 0 {
		return errors.New("some documents failed to ingest")
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	for _, file := range report.Files {
		switch file.Status {
		case domain.FileStatusSuccess:
			cmd.Printf("  ok     %s (%d chunks)\n", file.Key, file.Chunks)
		case domain.FileStatusFailed:
			cmd.Printf("  failed %s: %s\n", file.Key, file.Error)
		}
	}
	cmd.Printf("Processed %d, failed %d\n", report.Processed, report.Failed)
}
