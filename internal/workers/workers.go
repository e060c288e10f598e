// Package workers runs independent per-index jobs on a bounded pool.
package workers

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Limit resolves a configured worker count: values < 1 mean GOMAXPROCS.
func Limit(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ForEach calls fn for every index in [0, n) with at most limit calls in
// flight. The first error cancels the remaining indexes and is returned.
// A panic in fn is returned as an error for its index.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	fn = recovered(fn)
	limit = Limit(limit)
	if limit == 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
			if err := fn(ctx, i); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		return nil
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(limit)
	for i := 0; i < n; i++ {
		idx := i
		errGrp.Go(func() error {
			if err := dCtx.Err(); err != nil {
				return errors.Wrapf(err, "index %d", idx)
			}
			if err := fn(dCtx, idx); err != nil {
				return errors.Wrapf(err, "index %d", idx)
			}
			return nil
		})
	}
	return errGrp.Wait()
}

func recovered(fn func(ctx context.Context, i int) error) func(ctx context.Context, i int) error {
	return func(ctx context.Context, i int) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx, i)
	}
}
