package retry

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs a bounded fan-out of work items with a concurrency limit,
// replacing the teacher's hand-rolled WaitGroup+channel pattern with
// errgroup.SetLimit. The first error returned by any item cancels the
// group's context for remaining in-flight work; Pool returns that error
// after every goroutine has returned.
func Pool[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	return g.Wait()
}

// PoolCollect is Pool's variant for work that produces a result per item.
// Results are returned in input order regardless of completion order; a
// failed item's slot holds the zero value of R and its error is included in
// the returned slice at the same index.
func PoolCollect[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			results[i] = r
			errs[i] = err
			return nil // collect, don't cancel siblings on a single item's error
		})
	}

	_ = g.Wait()
	return results, errs
}
