package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/filewatcher"
	"github.com/ethica-ai/ethica-cli/internal/config"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the document directory and keep the index in sync",
	Long: `Watches the filesystem document root and ingests documents as they
appear or change, removing them from the index when they are deleted.
Only available with the filesystem storage provider.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureServices(ctx); err != nil {
		return err
	}
	if appConfig.Storage.Provider != config.StorageFilesystem {
		return fmt.Errorf("%w: watch requires the filesystem storage provider", domain.ErrConfiguration)
	}

	watcher, err := filewatcher.New(appConfig.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", appConfig.Storage.Root, err)
	}
	defer watcher.Close()

	events, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	logger.Info("Watching %s", appConfig.Storage.Root)
	for ev := range events {
		switch ev.Op {
		case filewatcher.Upserted:
			if _, err := ingestor.IngestDocument(ctx, ev.Key); err != nil {
				logger.Error("Ingest %s failed: %v", ev.Key, err)
			}
		case filewatcher.Removed:
			if err := ingestor.RemoveDocument(ctx, ev.Key); err != nil {
				logger.Error("Remove %s failed: %v", ev.Key, err)
			}
		}
	}
	return nil
}
