// Package metrics counts generation events in a Prometheus registry and can
// dump the registry in text exposition format after a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
)

// Collector implements engine.Observer on top of its own registry.
// All metric types are safe for concurrent use, so one Collector serves every worker.
type Collector struct {
	registry *prometheus.Registry

	publications  prometheus.Counter
	subscriptions prometheus.Counter
	predicates    *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	chunkDuration *prometheus.HistogramVec
}

var _ engine.Observer = (*Collector)(nil)

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		publications: factory.NewCounter(prometheus.CounterOpts{
			Name: "pubsubgen_publications_total",
			Help: "The total number of generated publications",
		}),
		subscriptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "pubsubgen_subscriptions_total",
			Help: "The total number of generated subscriptions",
		}),
		predicates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pubsubgen_predicates_total",
			Help: "Generated predicates by field and operator",
		}, []string{"field", "operator"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pubsubgen_predicates_skipped_total",
			Help: "Selected fields that produced no predicate, by field and reason",
		}, []string{"field", "reason"}),
		chunkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pubsubgen_chunk_duration_seconds",
			Help:    "Wall time spent per worker chunk",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"phase"}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) PublicationsGenerated(n int) {
	c.publications.Add(float64(n))
}

func (c *Collector) SubscriptionGenerated(sub ir.Subscription) {
	c.subscriptions.Inc()
	for _, p := range sub {
		c.predicates.WithLabelValues(p.Field, p.Operator).Inc()
	}
}

func (c *Collector) PredicateSkipped(field string, reason engine.SkipReason) {
	c.skipped.WithLabelValues(field, string(reason)).Inc()
}

func (c *Collector) ChunkDone(phase engine.Phase, _, _ int, elapsed time.Duration) {
	c.chunkDuration.WithLabelValues(string(phase)).Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric to path in text exposition format.
// The file is written atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
