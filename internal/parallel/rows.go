// Package parallel provides the optional data-parallel execution strategy used
// by the convolution and clustering engines.
//
// Work is split into contiguous bands of rows (or items). With one worker the
// function runs inline on the calling goroutine, so sequential and parallel
// callers share a single code path and produce identical results.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Rows calls fn(lo, hi) over disjoint half-open bands covering [0, n).
// fn must only write state owned by its band.
//
// Cancellation is checked before each band starts; a cancelled context
// returns ctx.Err() once in-flight bands finish.
func Rows(ctx context.Context, n, workers int, fn func(lo, hi int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 1 || n == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}
	if workers > n {
		workers = n
	}

	band := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += band {
		hi := min(lo+band, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
