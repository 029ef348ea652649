// Package cli implements the beacon-deploy command-line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vision-dao/beacon-deploy/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:   "beacon-deploy",
		Short: "Deploy and inventory Beacon DAO contracts",
		Long: `beacon-deploy deploys Beacon DAO ("Idea") governance contracts to an
EVM-compatible chain, anchoring their metadata in an IPFS-compatible
content store, and can list previously deployed instances by replaying
chain history.

The deployment private key is read from the ` + config.PrivateKeyEnv + `
environment variable, or prompted for interactively; it is never passed
on the command line.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: beacon.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(createNewCmd())
	rootCmd.AddCommand(createListCmd())

	return rootCmd.Execute()
}

// setupLogging routes logs to stderr so stdout stays machine-consumable
// (new prints only the address, list prints one address per line).
func setupLogging() {
	level := slog.LevelInfo
	if verbose || config.Load().Logging.Level == "debug" {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
