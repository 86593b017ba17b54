// Package parallel provides the worker helpers used for row-chunked numeric
// work and for fanning out independent model fits.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	// Get the number of available CPU cores
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Calculate the number of items each worker handles (ceiling division)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		// Skip if there's no range to handle
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// ForEach runs fn(ctx, i) for i in [0, n) on at most nJobs goroutines.
// nJobs <= 0 means runtime.NumCPU(). The first error is returned and the
// context passed to the remaining calls is cancelled. Callers write results
// into index i of a pre-sized slice so output order does not depend on
// scheduling.
func ForEach(ctx context.Context, nJobs, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if nJobs <= 0 {
		nJobs = runtime.NumCPU()
	}
	if nJobs > n {
		nJobs = n
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nJobs)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
