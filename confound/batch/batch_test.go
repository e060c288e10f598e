package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-confound/confound/config"
	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/pipeline"
	"github.com/cwbudde/algo-confound/internal/testutil"
)

type fakeRunner struct {
	inFlight, peak atomic.Int32
}

func (f *fakeRunner) Run(_ context.Context, scan pipeline.Scan) (pipeline.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	switch scan.ID {
	case "fail":
		return pipeline.Result{}, errors.New("boom")
	case "panic":
		panic("bad scan")
	case "excluded":
		return pipeline.Result{ScanID: scan.ID, Status: pipeline.StatusExcluded, Reason: core.ReasonInsufficientTimepoints, Err: core.InsufficientData(3, 5)}, nil
	}
	return pipeline.Result{ScanID: scan.ID}, nil
}

func scans(ids ...string) []pipeline.Scan {
	out := make([]pipeline.Scan, len(ids))
	for i, id := range ids {
		out[i] = pipeline.Scan{ID: id}
	}
	return out
}

func TestRun_IsolatesFailures(t *testing.T) {
	r := &fakeRunner{}
	outs := Run(t.Context(), r, scans("a", "fail", "panic", "excluded", "b"), 2)
	require.Len(t, outs, 5)

	for i, id := range []string{"a", "fail", "panic", "excluded", "b"} {
		assert.Equal(t, id, outs[i].ScanID, "input order")
	}
	assert.NoError(t, outs[0].Err)
	assert.EqualError(t, outs[1].Err, "boom")
	require.Error(t, outs[2].Err)
	assert.Contains(t, outs[2].Err.Error(), "panicked")
	assert.True(t, outs[3].Result.Excluded())
	assert.NoError(t, outs[4].Err)

	assert.Equal(t, Summary{Done: 2, Excluded: 1, Failed: 2}, Summarize(outs))
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	outs := Run(ctx, &fakeRunner{}, scans("a", "b"), 1)
	for _, o := range outs {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRun_WithPipeline(t *testing.T) {
	p, err := pipeline.New(config.New(config.WithMinimumTimepoint(25)))
	require.NoError(t, err)

	mk := func(id string, n int) pipeline.Scan {
		ts, err := core.FromColumns([][]float64{testutil.DeterministicNoise(int64(n), 1, n)}, 1, core.ROI)
		require.NoError(t, err)
		return pipeline.Scan{ID: id, Signal: ts}
	}

	outs := Run(t.Context(), p, []pipeline.Scan{mk("long", 40), mk("short", 10), {ID: "empty"}}, 0)
	assert.Equal(t, pipeline.StatusDone, outs[0].Result.Status)
	assert.NoError(t, outs[0].Err)
	assert.True(t, outs[1].Result.Excluded())
	assert.Error(t, outs[2].Err)
	assert.Equal(t, "done=1 excluded=1 failed=1", Summarize(outs).String())
}
