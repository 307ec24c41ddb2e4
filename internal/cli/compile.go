package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pubsubgen/internal/compiler"
	"github.com/roach88/pubsubgen/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled rule set.
type CompilationResult struct {
	Rules       json.RawMessage            `json:"rules"`
	RuleSetHash string                     `json:"ruleset_hash"`
	Warnings    []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-file>",
		Short: "Compile a rule file to canonical JSON",
		Long: `Compile a rule file (JSON, CUE or YAML, named or positional layout)
and print the compiled rule set as canonical JSON together with its
fingerprint. Rules that will never produce values are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, rulesFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Compiling %s", rulesFile)
	cfg, err := LoadRules(rulesFile)
	if err != nil {
		return fail(formatter, err)
	}

	canonical, err := ir.MarshalCanonical(cfg.Canonical())
	if err != nil {
		return fail(formatter, err)
	}
	hash, err := ir.RuleSetHash(cfg)
	if err != nil {
		return fail(formatter, err)
	}

	result := &CompilationResult{
		Rules:       canonical,
		RuleSetHash: hash,
		Warnings:    compiler.Validate(cfg),
	}
	formatter.VerboseLog("Compiled %d field(s), %d operator(s)", cfg.Rules.Len(), len(cfg.Operators))

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(canonical, '\n'), 0644); err != nil {
			return failWith(formatter, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, string(canonical))
	fmt.Fprintf(w, "Rule set hash: %s\n", hash)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "Warning %s\n", warn.Error())
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote canonical rules to %s\n", opts.Output)
	}
	return nil
}
