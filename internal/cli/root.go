package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables that supply flag defaults.
const (
	EnvDatabase = "PUBSUBGEN_DB"
	EnvSeed     = "PUBSUBGEN_SEED"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// EnvFile is loaded before any command runs. A missing file is not an error.
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pubsubgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pubsubgen",
		Short: "pubsubgen - publication/subscription workload generator",
		Long: `Generate synthetic publications and matching subscriptions for
content-based publish/subscribe benchmarks.

Subscriptions are derived from the frequency index of the generated
publications, so field and equality quotas can be met with values that
actually occur in the data.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return loadEnvFile(opts.EnvFile)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "file with environment defaults")

	// Add subcommands
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// loadEnvFile loads KEY=value pairs without overriding variables that are
// already set in the process environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
