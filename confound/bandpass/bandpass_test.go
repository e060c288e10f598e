package bandpass

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/internal/testutil"
)

func ptr(v float64) *float64 { return &v }

func amplitude(x []float64, from, to int) float64 {
	m := 0.0
	for _, v := range x[from:to] {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func TestNewFilterErrors(t *testing.T) {
	tests := map[string]struct {
		hp, lp *float64
		tr     float64
		order  int
		field  string
	}{
		"unknown tr":        {hp: ptr(0.01), tr: 0, order: 5, field: "TR"},
		"zero order":        {lp: ptr(0.1), tr: 1, order: 0, field: "filter_order"},
		"highpass nyquist":  {hp: ptr(0.5), tr: 1, order: 5, field: "highpass"},
		"lowpass negative":  {lp: ptr(-0.1), tr: 1, order: 5, field: "lowpass"},
		"lowpass too high":  {lp: ptr(0.3), tr: 2, order: 5, field: "lowpass"},
		"inverted bandpass": {hp: ptr(0.1), lp: ptr(0.05), tr: 1, order: 5, field: "highpass"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFilter(tt.hp, tt.lp, tt.tr, tt.order)
			var ce *core.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestNewFilterNoCutoffs(t *testing.T) {
	f, err := NewFilter(nil, nil, 0, 0)
	require.NoError(t, err)
	assert.False(t, f.Active())

	x := []float64{1, 2, 3}
	y := f.Apply(x)
	assert.Equal(t, x, y)
	y[0] = 9
	assert.Equal(t, 1.0, x[0])
}

func TestFilterSections(t *testing.T) {
	f, err := NewFilter(ptr(0.01), ptr(0.1), 1, 5)
	require.NoError(t, err)
	hp, lp := f.Sections()
	assert.Equal(t, 3, hp)
	assert.Equal(t, 3, lp)
	assert.True(t, f.Active())
}

func TestFilterHighpassRemovesDrift(t *testing.T) {
	f, err := NewFilter(ptr(0.01), nil, 1, 5)
	require.NoError(t, err)

	slow := testutil.DeterministicSine(0.001, 1, 1, 600)
	fast := testutil.DeterministicSine(0.08, 1, 1, 600)
	y := f.Apply(testutil.Add(slow, fast))

	require.Len(t, y, 600)
	diff := make([]float64, 600)
	for i := range diff {
		diff[i] = y[i] - fast[i]
	}
	assert.Less(t, amplitude(diff, 150, 450), 0.05)
}

func TestFilterLowpassRemovesFastComponent(t *testing.T) {
	f, err := NewFilter(nil, ptr(0.1), 1, 5)
	require.NoError(t, err)

	y := f.Apply(testutil.DeterministicSine(0.3, 1, 1, 400))
	assert.Less(t, amplitude(y, 50, 350), 1e-3)
}

func TestFilterBandpassMatchesCascade(t *testing.T) {
	bp, err := NewFilter(ptr(0.01), ptr(0.1), 2, 3)
	require.NoError(t, err)
	hp, err := NewFilter(ptr(0.01), nil, 2, 3)
	require.NoError(t, err)
	lp, err := NewFilter(nil, ptr(0.1), 2, 3)
	require.NoError(t, err)

	x := testutil.DeterministicNoise(12, 1, 200)
	testutil.RequireSliceNearlyEqual(t, bp.Apply(x), lp.Apply(hp.Apply(x)), 1e-12)
}

func TestFilterGain(t *testing.T) {
	f, err := NewFilter(ptr(0.01), ptr(0.1), 1, 5)
	require.NoError(t, err)

	assert.InDelta(t, 1, f.Gain(0.03), 1e-3)
	assert.InDelta(t, 0.5, f.Gain(0.1), 1e-3, "zero-phase response is -6 dB at the cutoff")
	assert.Less(t, f.Gain(0.3), 1e-4)
	assert.Less(t, f.Gain(0.001), 1e-4)

	none, err := NewFilter(nil, nil, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, none.Gain(0.2))
	assert.Empty(t, none.CutoffResponse())
}

func TestFilterCutoffResponse(t *testing.T) {
	f, err := NewFilter(ptr(0.01), ptr(0.1), 1, 5)
	require.NoError(t, err)

	resp := f.CutoffResponse()
	require.Len(t, resp, 2)
	assert.Equal(t, 0.01, resp[0].Freq)
	assert.Equal(t, 0.1, resp[1].Freq)
	for _, r := range resp {
		assert.InDelta(t, 0.5, r.Gain, 1e-3)
	}

	lp, err := NewFilter(nil, ptr(0.2), 2, 3)
	require.NoError(t, err)
	require.Len(t, lp.CutoffResponse(), 1)
	assert.InDelta(t, 0.5, lp.CutoffResponse()[0].Gain, 1e-3)
}

func TestFilterSignalAndRegressorsShareOperator(t *testing.T) {
	n := 120
	col := testutil.Add(testutil.DeterministicSine(0.05, 1, 1, n), testutil.DeterministicNoise(7, 0.2, n))
	ts, err := core.FromColumns([][]float64{col, testutil.DeterministicNoise(8, 1, n)}, 1, core.ROI)
	require.NoError(t, err)

	set := core.NewRegressorSet(n)
	require.NoError(t, set.Add("global_signal", core.GlobalSignal, col))

	f, err := NewFilter(ptr(0.01), ptr(0.1), 1, 5, WithWorkers(2))
	require.NoError(t, err)

	ctx := context.Background()
	outTS, err := f.Timeseries(ctx, ts)
	require.NoError(t, err)
	outSet, err := f.Regressors(ctx, set)
	require.NoError(t, err)

	assert.Equal(t, n, outTS.FrameCount())
	assert.Equal(t, n, outSet.Frames())

	gs, ok := outSet.Get("global_signal")
	require.True(t, ok)
	testutil.RequireSliceNearlyEqual(t, gs.Values, outTS.Column(0), 1e-12)
	assert.Equal(t, col[0], ts.Data[0][0], "input must not change")
}
