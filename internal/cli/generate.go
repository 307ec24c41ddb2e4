package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pubsubgen/internal/compiler"
	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
	"github.com/roach88/pubsubgen/internal/metrics"
	"github.com/roach88/pubsubgen/internal/sink"
	"github.com/roach88/pubsubgen/internal/store"
)

// DefaultCount is the default number of publications and subscriptions.
const DefaultCount = 100000

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Cities        string
	Publications  int
	Subscriptions int
	Out           string
	Seed          uint64
	Workers       int
	Parallel      bool
	Database      string
	MetricsFile   string

	// Clock allows overriding the timestamp source (for testing).
	// If nil, the wall clock is used.
	Clock engine.Clock
}

// GenerateResult is the JSON payload of a successful run.
type GenerateResult struct {
	RunID             string  `json:"run_id,omitempty"`
	RuleSetHash       string  `json:"ruleset_hash"`
	Seed              uint64  `json:"seed"`
	Workers           int     `json:"workers"`
	Publications      int     `json:"publications"`
	Subscriptions     int     `json:"subscriptions"`
	PublicationsFile  string  `json:"publications_file"`
	SubscriptionsFile string  `json:"subscriptions_file"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

// newGenerateCommand binds flags to caller-owned options, so tests can set
// fields that have no flag.
func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <rules-file>",
		Short: "Generate publications and subscriptions",
		Long: `Generate publications from a rule file and a city list, then derive
subscriptions from the frequency index of those publications.

Output is written as JSON lines to publications.txt and subscriptions.txt
in the output directory. With --db the run metadata and the publication
frequency index are recorded in a SQLite database.

The seed defaults to $PUBSUBGEN_SEED and the database to $PUBSUBGEN_DB.
Without a seed a random one is drawn and reported.

Example:
  pubsubgen generate rules.json --cities cities.txt
  pubsubgen generate rules.json --cities cities.txt --seed 42 --workers 4 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cities, "cities", "", "path to newline-delimited city file (required)")
	cmd.Flags().IntVarP(&opts.Publications, "publications", "p", DefaultCount, "number of publications")
	cmd.Flags().IntVarP(&opts.Subscriptions, "subscriptions", "s", DefaultCount, "number of subscriptions")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", ".", "output directory")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default $"+EnvSeed+" or random)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "worker count (overrides the rule file)")
	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "enable parallel mode even if the rule file disables it")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database (default $"+EnvDatabase+")")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	_ = cmd.MarkFlagRequired("cities")

	return cmd
}

func runGenerate(opts *GenerateOptions, rulesFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd)
	slog.SetDefault(logger)

	if err := resolveEnvDefaults(opts, cmd); err != nil {
		return failWith(formatter, ErrCodeInvalidArgs, err)
	}
	if opts.Publications <= 0 {
		return failWith(formatter, ErrCodeInvalidArgs, fmt.Errorf("publications must be positive, got %d", opts.Publications))
	}
	if opts.Subscriptions <= 0 {
		return failWith(formatter, ErrCodeInvalidArgs, fmt.Errorf("subscriptions must be positive, got %d", opts.Subscriptions))
	}
	if cmd.Flags().Changed("workers") && opts.Workers < 1 {
		return failWith(formatter, ErrCodeInvalidArgs, fmt.Errorf("workers must be at least 1, got %d", opts.Workers))
	}

	logger.Info("compiling rules", "file", rulesFile)
	cfg, err := LoadRules(rulesFile)
	if err != nil {
		return fail(formatter, err)
	}
	for _, w := range compiler.Validate(cfg) {
		logger.Warn("rule warning", "code", w.Code, "field", w.Field, "message", w.Message)
	}

	cities, err := LoadCities(opts.Cities)
	if err != nil {
		return fail(formatter, err)
	}
	logger.Info("cities loaded", "file", opts.Cities, "count", len(cities))

	hash, err := ir.RuleSetHash(cfg)
	if err != nil {
		return fail(formatter, err)
	}

	collector := metrics.New()
	genOpts := []engine.Option{
		engine.WithSeed(opts.Seed),
		engine.WithLogger(logger),
		engine.WithObserver(collector),
	}
	if workers := effectiveWorkers(opts, cfg, cmd); workers > 0 {
		genOpts = append(genOpts, engine.WithWorkers(workers))
	}
	if opts.Clock != nil {
		genOpts = append(genOpts, engine.WithClock(opts.Clock))
	}
	gen := engine.New(cfg, cities, genOpts...)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logger.Info("generation starting",
		"publications", opts.Publications,
		"subscriptions", opts.Subscriptions,
		"workers", gen.Workers(),
		"seed", opts.Seed,
		"ruleset_hash", hash)

	start := time.Now()
	out, err := gen.Run(ctx, opts.Publications, opts.Subscriptions)
	if err != nil {
		return fail(formatter, err)
	}

	pubsPath := filepath.Join(opts.Out, sink.PublicationsFile)
	subsPath := filepath.Join(opts.Out, sink.SubscriptionsFile)
	if err := sink.WritePublications(pubsPath, out.Publications); err != nil {
		return failWith(formatter, ErrCodeWriteFailed, err)
	}
	if err := sink.WriteSubscriptions(subsPath, out.Subscriptions); err != nil {
		return failWith(formatter, ErrCodeWriteFailed, err)
	}
	elapsed := time.Since(start)

	result := GenerateResult{
		RuleSetHash:       hash,
		Seed:              opts.Seed,
		Workers:           gen.Workers(),
		Publications:      len(out.Publications),
		Subscriptions:     len(out.Subscriptions),
		PublicationsFile:  pubsPath,
		SubscriptionsFile: subsPath,
		ElapsedSeconds:    elapsed.Seconds(),
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts.Database, cfg, hash, &result, out)
		if err != nil {
			return failWith(formatter, ErrCodeStoreFailed, err)
		}
		result.RunID = runID
		logger.Info("run recorded", "db", opts.Database, "run_id", runID)
	}

	if opts.MetricsFile != "" {
		if err := collector.WriteTextfile(opts.MetricsFile); err != nil {
			return failWith(formatter, ErrCodeWriteFailed, fmt.Errorf("write metrics: %w", err))
		}
		logger.Debug("metrics written", "file", opts.MetricsFile)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Wrote %d publication(s) to %s\n", result.Publications, pubsPath)
	fmt.Fprintf(w, "✓ Wrote %d subscription(s) to %s\n", result.Subscriptions, subsPath)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	}
	fmt.Fprintf(w, "Seed: %d\n", result.Seed)
	fmt.Fprintf(w, "Execution time: %.3f seconds\n", result.ElapsedSeconds)
	return nil
}

// resolveEnvDefaults fills --seed and --db from the environment when the
// flags were not given. A run without any seed draws a random one so it can
// still be reproduced from the reported value.
func resolveEnvDefaults(opts *GenerateOptions, cmd *cobra.Command) error {
	if !cmd.Flags().Changed("seed") {
		if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
			seed, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", EnvSeed, err)
			}
			opts.Seed = seed
		} else {
			opts.Seed = rand.Uint64()
		}
	}
	if opts.Database == "" {
		opts.Database = os.Getenv(EnvDatabase)
	}
	return nil
}

// effectiveWorkers returns the worker override, or 0 to keep the rule file's
// parallel settings.
func effectiveWorkers(opts *GenerateOptions, cfg *ir.Config, cmd *cobra.Command) int {
	if cmd.Flags().Changed("workers") {
		return opts.Workers
	}
	if opts.Parallel && !cfg.Parallelism.Enabled {
		if cfg.Parallelism.Workers > 1 {
			return cfg.Parallelism.Workers
		}
		return runtime.NumCPU()
	}
	return 0
}

// recordRun stores the run metadata and the merged publication index.
func recordRun(ctx context.Context, path string, cfg *ir.Config, hash string, result *GenerateResult, out *engine.Result) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	runID, err := store.NewRunID()
	if err != nil {
		return "", err
	}
	rules, err := ir.MarshalCanonical(cfg.Canonical())
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}

	run := store.Run{
		ID:               runID,
		CreatedAt:        time.Now().UTC(),
		RuleSetHash:      hash,
		Rules:            string(rules),
		Seed:             result.Seed,
		Workers:          result.Workers,
		Publications:     result.Publications,
		Subscriptions:    result.Subscriptions,
		GeneratorVersion: ir.GeneratorVersion,
		RecordVersion:    ir.RecordVersion,
	}
	if err := st.WriteRun(ctx, run, out.Index); err != nil {
		return "", err
	}
	return runID, nil
}

// newLogger configures a text handler on stderr, Debug when verbose.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
// Use command's context if available (for testing), otherwise create one.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}
