package engine

import (
	"sync"
	"time"

	"github.com/roach88/pubsubgen/internal/ir"
)

// recordingObserver collects generation events for assertions.
type recordingObserver struct {
	mu            sync.Mutex
	publications  int
	subscriptions int
	predicates    int
	skipped       map[string][]SkipReason
	chunks        map[Phase][]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		skipped: make(map[string][]SkipReason),
		chunks:  make(map[Phase][]int),
	}
}

func (o *recordingObserver) PublicationsGenerated(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publications += n
}

func (o *recordingObserver) SubscriptionGenerated(sub ir.Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscriptions++
	o.predicates += len(sub)
}

func (o *recordingObserver) PredicateSkipped(field string, reason SkipReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped[field] = append(o.skipped[field], reason)
}

func (o *recordingObserver) ChunkDone(phase Phase, chunk, size int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chunks[phase] = append(o.chunks[phase], chunk)
}
