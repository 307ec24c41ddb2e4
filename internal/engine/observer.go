package engine

import (
	"time"

	"github.com/roach88/pubsubgen/internal/ir"
)

// Phase names one of the two generation phases.
type Phase string

const (
	PhasePublish   Phase = "publish"
	PhaseSubscribe Phase = "subscribe"
)

// SkipReason explains why a selected field produced no predicate.
type SkipReason string

const (
	// SkipExhausted means the field's pool is empty: no remaining city
	// occurrences, or no recorded timestamps.
	SkipExhausted SkipReason = "exhausted"

	// SkipUnsupported means the field has no generator.
	SkipUnsupported SkipReason = "unsupported"
)

// Observer receives generation events. Calls arrive from several worker
// goroutines at once, so implementations must be safe for concurrent use.
type Observer interface {
	PublicationsGenerated(n int)
	SubscriptionGenerated(sub ir.Subscription)
	PredicateSkipped(field string, reason SkipReason)
	ChunkDone(phase Phase, chunk, size int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) PublicationsGenerated(int)                {}
func (nopObserver) SubscriptionGenerated(ir.Subscription)    {}
func (nopObserver) PredicateSkipped(string, SkipReason)      {}
func (nopObserver) ChunkDone(Phase, int, int, time.Duration) {}
