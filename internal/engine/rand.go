package engine

import (
	"math/rand/v2"

	"github.com/roach88/pubsubgen/internal/ir"
)

// subscriptionStream separates the subscription streams from the publication
// streams of the same seed. Worker w uses stream w for publications and
// subscriptionStream|w for subscriptions.
const subscriptionStream uint64 = 1 << 32

// NewStream returns the PCG stream for (seed, stream).
func NewStream(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// PublicationStream returns the stream used by publication worker w.
func PublicationStream(seed uint64, w int) *rand.Rand {
	return NewStream(seed, uint64(w))
}

// SubscriptionStream returns the stream used by subscription worker w.
func SubscriptionStream(seed uint64, w int) *rand.Rand {
	return NewStream(seed, subscriptionStream|uint64(w))
}

// uniformInt draws uniformly from the closed interval l.
func uniformInt(rng *rand.Rand, l ir.Limits) int64 {
	span := uint64(l.Hi-l.Lo) + 1
	if span == 0 {
		// [MinInt64, MaxInt64]
		return int64(rng.Uint64())
	}
	return l.Lo + int64(rng.Uint64N(span))
}

// pick returns a uniform element of items. items must not be empty.
func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

// sample draws k distinct elements of pool in draw order without modifying pool.
func sample[T any](rng *rand.Rand, pool []T, k int) []T {
	p := make([]T, len(pool))
	copy(p, pool)
	if k > len(p) {
		k = len(p)
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(p)-i)
		p[i], p[j] = p[j], p[i]
	}
	return p[:k]
}
