// Package batch runs many scans through one pipeline on a bounded worker
// pool. Each scan succeeds, is excluded, or fails on its own: no outcome
// ever cancels a sibling.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-confound/confound/pipeline"
	"github.com/cwbudde/algo-confound/internal/workers"
)

// Runner is the per-scan operation. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, scan pipeline.Scan) (pipeline.Result, error)
}

// Outcome is the result of one scan of a batch.
type Outcome struct {
	ScanID string
	Result pipeline.Result
	// Err is set when the scan failed, panicked or never started because
	// the context was cancelled.
	Err error
}

// Failed reports whether the scan produced no result.
func (o Outcome) Failed() bool { return o.Err != nil }

// Summary counts outcomes by kind.
type Summary struct {
	Done     int
	Excluded int
	Failed   int
}

// Summarize counts outcomes.
func Summarize(outs []Outcome) Summary {
	var s Summary
	for _, o := range outs {
		switch {
		case o.Failed():
			s.Failed++
		case o.Result.Excluded():
			s.Excluded++
		default:
			s.Done++
		}
	}
	return s
}

// Run processes scans with at most limit in flight (0 means GOMAXPROCS)
// and returns one Outcome per scan, in input order.
func Run(ctx context.Context, r Runner, scans []pipeline.Scan, limit int) []Outcome {
	outs := make([]Outcome, len(scans))

	var errGrp errgroup.Group
	errGrp.SetLimit(workers.Limit(limit))
	for i := range scans {
		outs[i].ScanID = scans[i].ID
		errGrp.Go(func() error {
			if err := ctx.Err(); err != nil {
				outs[i].Err = errors.Wrap(err, "not started")
				return nil
			}
			outs[i].Result, outs[i].Err = runOne(ctx, r, scans[i])
			return nil
		})
	}
	_ = errGrp.Wait()
	return outs
}

func runOne(ctx context.Context, r Runner, scan pipeline.Scan) (res pipeline.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("scan %q panicked: %v\n%s", scan.ID, rec, debug.Stack())
		}
	}()
	return r.Run(ctx, scan)
}

// String renders a summary for logs.
func (s Summary) String() string {
	return fmt.Sprintf("done=%d excluded=%d failed=%d", s.Done, s.Excluded, s.Failed)
}
