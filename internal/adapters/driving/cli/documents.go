package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentsList,
}

var documentsRemoveCmd = &cobra.Command{
	Use:   "remove [key]",
	Short: "Remove a document from the vector index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsRemove,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsRemoveCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}
	if ledger == nil {
		return errors.New("ingest ledger not configured")
	}

	records, err := ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("  %s  %s  %d chunks  %s", rec.DocumentID, rec.Key, rec.Chunks, rec.Status)
		if rec.Error != "" {
			line += "  (" + rec.Error + ")"
		}
		cmd.Println(line)
	}
	cmd.Printf("%d documents\n", len(records))
	return nil
}

func runDocumentsRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	if err := ingestor.RemoveDocument(ctx, args[0]); err != nil {
		return fmt.Errorf("remove %s failed: %w", args[0], err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
