package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/cassandra-bootstrap/internal/config"
	"github.com/oshokin/cassandra-bootstrap/internal/strategy"
)

// resolveCmd prints the install strategy for a version without installing anything.
// Useful to check what a CI job would download before committing a version bump.
var resolveCmd = &cobra.Command{
	Use:   "resolve <version>",
	Short: "Print the install strategy for a version without installing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := strategy.ParseSpec(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		resolver, err := strategy.NewResolver(cfg.Overrides)
		if err != nil {
			return fmt.Errorf("build strategy resolver: %w", err)
		}

		out := cmd.OutOrStdout()

		if !resolver.Supported(spec) {
			_, err = fmt.Fprintf(out, "version %s is outside the supported release line; installation would be skipped\n", spec)
			return err
		}

		plan := resolver.Resolve(spec)

		encoded, err := yaml.Marshal(plan)
		if err != nil {
			return fmt.Errorf("encode strategy: %w", err)
		}

		_, err = out.Write(encoded)

		return err
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(resolveCmd)
}
