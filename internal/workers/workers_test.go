package workers

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), Limit(0))
	assert.Equal(t, runtime.GOMAXPROCS(0), Limit(-3))
	assert.Equal(t, 4, Limit(4))
}

func TestForEachVisitsEveryIndex(t *testing.T) {
	for _, limit := range []int{1, 3, 0} {
		out := make([]int, 50)
		err := ForEach(context.Background(), len(out), limit, func(_ context.Context, i int) error {
			out[i] = i * i
			return nil
		})
		require.NoError(t, err)
		for i, v := range out {
			assert.Equal(t, i*i, v)
		}
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	err := ForEach(context.Background(), 40, 2, func(_ context.Context, _ int) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		runtime.Gosched()
		inFlight.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestForEachReturnsError(t *testing.T) {
	boom := errors.New("boom")
	for _, limit := range []int{1, 4} {
		err := ForEach(context.Background(), 10, limit, func(_ context.Context, i int) error {
			if i == 5 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	}
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := ForEach(ctx, 3, 1, func(_ context.Context, _ int) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestForEachRecoversPanics(t *testing.T) {
	for _, limit := range []int{1, 4} {
		err := ForEach(context.Background(), 10, limit, func(_ context.Context, i int) error {
			if i == 7 {
				var col []float64
				_ = col[i]
			}
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index 7: panic:")
		assert.Contains(t, err.Error(), "index out of range")
	}
}
