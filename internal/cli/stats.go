package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pubsubgen/internal/ir"
	"github.com/roach88/pubsubgen/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
	RunID    string
	Top      int
}

// RunSummary is one recorded run in stats output.
type RunSummary struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"created_at"`
	RuleSetHash   string `json:"ruleset_hash"`
	Seed          uint64 `json:"seed"`
	Workers       int    `json:"workers"`
	Publications  int    `json:"publications"`
	Subscriptions int    `json:"subscriptions"`
}

// FieldStats is the stored index summary of one field.
type FieldStats struct {
	Field    string       `json:"field"`
	Distinct int          `json:"distinct"`
	Total    int          `json:"total"`
	Top      []ValueCount `json:"top"`
}

// ValueCount is one (value, count) pair.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Runs     []RunSummary `json:"runs"`
	Selected string       `json:"selected,omitempty"`
	Fields   []FieldStats `json:"fields,omitempty"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded runs and their frequency indexes",
		Long: `List the runs recorded in a database and show the most frequent
publication values per field for one of them (the latest by default).

The database defaults to $PUBSUBGEN_DB.

Example:
  pubsubgen stats --db runs.db
  pubsubgen stats --db runs.db --run 0192f0c4-... --top 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $"+EnvDatabase+")")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to inspect (default: latest)")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "values shown per field")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = os.Getenv(EnvDatabase)
	}
	if dbPath == "" {
		return failWith(formatter, ErrCodeInvalidArgs, errors.New("--db is required"))
	}
	// Open creates missing databases; stats only reads existing ones.
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return failWith(formatter, ErrCodeNotFound, fmt.Errorf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return failWith(formatter, ErrCodeStoreFailed, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return failWith(formatter, ErrCodeStoreFailed, err)
	}

	result := StatsResult{Runs: make([]RunSummary, len(runs))}
	for i, r := range runs {
		result.Runs[i] = RunSummary{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
			RuleSetHash:   r.RuleSetHash,
			Seed:          r.Seed,
			Workers:       r.Workers,
			Publications:  r.Publications,
			Subscriptions: r.Subscriptions,
		}
	}

	selected := opts.RunID
	if selected == "" && len(runs) > 0 {
		selected = runs[0].ID
	}
	if selected != "" {
		if _, err := st.ReadRun(ctx, selected); err != nil {
			return fail(formatter, err)
		}
		fields, err := fieldStats(cmd, st, selected, opts.Top)
		if err != nil {
			return failWith(formatter, ErrCodeStoreFailed, err)
		}
		result.Selected = selected
		result.Fields = fields
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputStatsText(formatter, result)
}

func fieldStats(cmd *cobra.Command, st *store.Store, runID string, top int) ([]FieldStats, error) {
	ctx := cmd.Context()
	summaries, err := st.SummarizeFields(ctx, runID)
	if err != nil {
		return nil, err
	}
	idx, err := st.ReadIndex(ctx, runID)
	if err != nil {
		return nil, err
	}

	out := make([]FieldStats, 0, len(summaries))
	for _, s := range summaries {
		stat := FieldStats{Field: s.Field, Distinct: s.Distinct, Total: s.Total, Top: []ValueCount{}}
		for _, e := range idx.Top(s.Field, top) {
			stat.Top = append(stat.Top, ValueCount{Value: ir.ScalarString(e.Value), Count: e.Count})
		}
		out = append(out, stat)
	}
	return out, nil
}

func outputStatsText(formatter *OutputFormatter, result StatsResult) error {
	w := formatter.Writer
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSEED\tWORKERS\tPUBS\tSUBS")
	for _, r := range result.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.ID, r.CreatedAt, r.Seed, r.Workers, r.Publications, r.Subscriptions)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nRun %s\n", result.Selected)
	for _, f := range result.Fields {
		fmt.Fprintf(w, "  %s: %d distinct, %d total\n", f.Field, f.Distinct, f.Total)
		for _, vc := range f.Top {
			fmt.Fprintf(w, "    %-20s %d\n", vc.Value, vc.Count)
		}
	}
	return nil
}
