// Package cli implements the command line interface. Commands drive
// the ingestion and answer services through their driving ports; the
// adapters behind them are wired up lazily from the configuration
// file.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ethica-ai/ethica-cli/internal/logger"
)

var (
	cfgPath string
	verbose bool

	// version is injected by Execute.
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "ethica",
	Short: "Question answering over AI ethics documents",
	Long: `ethica ingests AI policy and ethics documents into a vector index
and answers questions about them with retrieval-augmented generation.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.ethica/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the CLI with the given build version.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	defer closeServices()
	return rootCmd.Execute()
}
