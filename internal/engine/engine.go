package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/pubsubgen/internal/index"
	"github.com/roach88/pubsubgen/internal/ir"
)

// Generator runs both generation phases for one compiled rule file.
type Generator struct {
	cfg      *ir.Config
	cities   []string
	workers  int
	seed     uint64
	clock    Clock
	logger   *slog.Logger
	observer Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers sets the number of workers per phase, overriding the rule file.
// Values below one are ignored.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.workers = n
		}
	}
}

// WithSeed sets the seed every worker stream is derived from.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithClock sets the clock used for Date fields. Default: WallClock.
func WithClock(c Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithLogger sets the logger for phase and chunk events.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithObserver registers an observer for generation events.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.observer = o
	}
}

// New creates a Generator. The worker count defaults to the rule file's
// parallel settings: its worker count when enabled, one otherwise.
// The cities slice is copied.
func New(cfg *ir.Config, cities []string, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		cities:   slices.Clone(cities),
		workers:  1,
		clock:    WallClock{},
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
	}
	if cfg.Parallelism.Enabled && cfg.Parallelism.Workers > 1 {
		g.workers = cfg.Parallelism.Workers
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Workers returns the effective worker count.
func (g *Generator) Workers() int {
	return g.workers
}

// Result is the output of a run.
type Result struct {
	Publications  []ir.Publication
	Subscriptions []ir.Subscription

	// Index is the merged publication index as it was before any subscription
	// consumed city occurrences.
	Index *index.FrequencyIndex

	PublicationChunks  []int
	SubscriptionChunks []int
}

type publishPart struct {
	pubs []ir.Publication
	idx  *index.FrequencyIndex
}

// Run generates nPubs publications and then nSubs subscriptions.
//
// Quota feasibility is checked for the whole run before the publication phase
// starts. Each subscription chunk then plans its own quotas from its own size.
func (g *Generator) Run(ctx context.Context, nPubs, nSubs int) (*Result, error) {
	rules := g.cfg.Rules
	if len(g.cities) == 0 && slices.ContainsFunc(rules.Rules, func(r ir.Rule) bool { return r.Kind() == ir.KindCity }) {
		return nil, ErrNoCities
	}
	if len(g.cfg.Operators) == 0 {
		return nil, ErrNoOperators
	}
	plan, err := PlanQuotas(rules, nSubs)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("quota plan",
		"subscriptions", nSubs,
		"field_targets", plan.FieldTargets,
		"op_targets", plan.OpTargets)

	pubChunks := Chunks(nPubs, g.workers)
	g.logger.Info("publication phase", "publications", nPubs, "workers", g.workers, "chunks", pubChunks)
	parts, err := dispatch(ctx, PhasePublish, pubChunks, g.observer,
		func(_ context.Context, chunk, size int) (publishPart, error) {
			pubs, idx := Publications(rules, g.cities, size, PublicationStream(g.seed, chunk), g.clock)
			g.observer.PublicationsGenerated(len(pubs))
			g.logger.Debug("publication chunk done", "chunk", chunk, "size", size)
			return publishPart{pubs: pubs, idx: idx}, nil
		})
	if err != nil {
		return nil, err
	}

	pubs := make([]ir.Publication, 0, nPubs)
	partials := make([]*index.FrequencyIndex, len(parts))
	for i, p := range parts {
		pubs = append(pubs, p.pubs...)
		partials[i] = p.idx
	}
	if len(pubs) == 0 {
		return nil, &EmptyResultError{Phase: PhasePublish, Requested: nPubs}
	}
	merged := index.Merge(partials...)
	g.logger.Info("index merged",
		"total_pubs", merged.TotalPubs,
		"fields", merged.Fields(),
		"timestamps", len(merged.Datetimes))

	subChunks := Chunks(nSubs, g.workers)
	g.logger.Info("subscription phase", "subscriptions", nSubs, "workers", g.workers, "chunks", subChunks)
	subParts, err := dispatch(ctx, PhaseSubscribe, subChunks, g.observer,
		func(_ context.Context, chunk, size int) ([]ir.Subscription, error) {
			s := newSubscriber(rules, merged.Clone(), g.cfg.Operators, SubscriptionStream(g.seed, chunk), g.observer)
			subs, err := s.run(size)
			if err != nil {
				return nil, err
			}
			g.logger.Debug("subscription chunk done", "chunk", chunk, "size", size)
			return subs, nil
		})
	if err != nil {
		return nil, err
	}

	subs := make([]ir.Subscription, 0, nSubs)
	for _, part := range subParts {
		subs = append(subs, part...)
	}
	if len(subs) == 0 {
		return nil, &EmptyResultError{Phase: PhaseSubscribe, Requested: nSubs}
	}

	return &Result{
		Publications:       pubs,
		Subscriptions:      subs,
		Index:              merged,
		PublicationChunks:  pubChunks,
		SubscriptionChunks: subChunks,
	}, nil
}
