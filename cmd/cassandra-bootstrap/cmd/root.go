package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/cassandra-bootstrap/internal/config"
	"github.com/oshokin/cassandra-bootstrap/internal/logger"
	"github.com/oshokin/cassandra-bootstrap/internal/service/installer"
	"github.com/oshokin/cassandra-bootstrap/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel overrides the default info logging level.
	logLevel string

	// rootCmd represents the base command for installing and launching a server version.
	rootCmd = &cobra.Command{
		Use:   "cassandra-bootstrap [version]",
		Short: "Install and launch the Cassandra release a test suite requires",
		Long: "Stops any running Cassandra, clears its data directory, downloads and extracts " +
			"the requested release, patches its config, and launches it. The version may be " +
			"passed as an argument or via the " + installer.EnvVersionVariable + " environment variable. " +
			"Versions outside the supported release line are skipped successfully.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			options := &installer.Options{
				ConfigPath: configPath,
				Version:    requestedVersion(args),
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the cassandra-bootstrap CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// requestedVersion prefers the positional argument; the installer falls back
// to the environment variable when this returns empty.
func requestedVersion(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return ""
}

// applyLogLevel sets the global log level from the --log-level flag.
func applyLogLevel() {
	if lvl, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(lvl)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error, fatal)")
}
