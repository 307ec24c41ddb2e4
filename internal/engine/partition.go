package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Chunks splits total into workers near-equal parts. Every part holds
// total/workers items and the first total%workers parts one more.
// A worker count below one is treated as one.
func Chunks(total, workers int) []int {
	workers = max(workers, 1)
	size, rem := total/workers, total%workers
	out := make([]int, workers)
	for i := range out {
		out[i] = size
		if i < rem {
			out[i]++
		}
	}
	return out
}

// dispatch runs fn once per chunk on a pool of len(chunks) goroutines and
// returns the per-chunk results in chunk order. The first error cancels the
// context handed to the remaining chunks.
func dispatch[T any](ctx context.Context, phase Phase, chunks []int, obs Observer, fn func(ctx context.Context, chunk, size int) (T, error)) ([]T, error) {
	results := make([]T, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(chunks))

	for chunk, size := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := fn(gctx, chunk, size)
			if err != nil {
				return fmt.Errorf("%s chunk %d: %w", phase, chunk, err)
			}
			results[chunk] = res
			obs.ChunkDone(phase, chunk, size, time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
