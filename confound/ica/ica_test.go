package ica

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/internal/testutil"
)

type fakeDecomposer struct {
	comps Components
	err   error
	calls int
}

func (f *fakeDecomposer) Decompose(_ context.Context, _ *core.Timeseries) (Components, error) {
	f.calls++
	return f.comps, f.err
}

type fakeClassifier struct {
	noise []bool
	err   error
}

func (f *fakeClassifier) Classify(_ context.Context, _ Components) ([]bool, error) {
	return f.noise, f.err
}

func baseSet(t *testing.T, frames int) *core.RegressorSet {
	t.Helper()
	set := core.NewRegressorSet(frames)
	require.NoError(t, set.Add("WM_signal", core.WMSignal, testutil.DC(1, frames)))
	return set
}

func threeComponents(n int) Components {
	return Components{Timeseries: [][]float64{
		testutil.Ramp(0, 1, n),
		testutil.DeterministicSine(0.1, 1, 1, n),
		testutil.DeterministicNoise(3, 1, n),
	}}
}

func TestFold(t *testing.T) {
	set := baseSet(t, 20)
	out, added, err := Fold(set, threeComponents(20), []bool{true, false, true})
	require.NoError(t, err)

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"WM_signal", "ICA_noise_1", "ICA_noise_3"}, out.Names())
	assert.Len(t, out.ByCategory(core.ICANoise), 2)
	assert.Equal(t, 1, set.Len(), "input set must not change")

	// Appended components are detrended: a pure ramp becomes zero.
	r, _ := out.Get("ICA_noise_1")
	testutil.RequireSliceNearlyEqual(t, r.Values, make([]float64, 20), 1e-10)
}

func TestFoldEdgeCases(t *testing.T) {
	tests := map[string]struct {
		comps   Components
		noise   []bool
		added   int
		wantErr bool
	}{
		"nil classification":   {comps: threeComponents(10), noise: nil},
		"empty classification": {comps: Components{}, noise: []bool{}},
		"all signal":           {comps: threeComponents(10), noise: []bool{false, false, false}},
		"flag mismatch":        {comps: threeComponents(10), noise: []bool{true}, wantErr: true},
		"frame mismatch":       {comps: threeComponents(9), noise: []bool{true, false, false}, wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, added, err := Fold(baseSet(t, 10), tt.comps, tt.noise)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.added, added)
			assert.Equal(t, 1, out.Len())
		})
	}
}

func TestAdapterApply(t *testing.T) {
	ctx := context.Background()
	ts, err := core.FromColumns([][]float64{testutil.DC(0, 15)}, 1, core.Voxelwise)
	require.NoError(t, err)
	set := baseSet(t, 15)

	t.Run("disabled", func(t *testing.T) {
		d := &fakeDecomposer{comps: threeComponents(15)}
		out, added, err := NewAdapter(d, &fakeClassifier{noise: []bool{true, true, true}}).Apply(ctx, ts, set, false, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, 1, out.Len())
		assert.Equal(t, 0, d.calls)
	})

	t.Run("no decomposer", func(t *testing.T) {
		out, added, err := NewAdapter(nil, nil).Apply(ctx, ts, set, true, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, 1, out.Len())
	})

	t.Run("nil adapter", func(t *testing.T) {
		var a *Adapter
		_, added, err := a.Apply(ctx, ts, set, true, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
	})

	t.Run("no classifier", func(t *testing.T) {
		d := &fakeDecomposer{comps: threeComponents(15)}
		_, added, err := NewAdapter(d, nil).Apply(ctx, ts, set, true, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, 1, d.calls)
	})

	t.Run("decompose and classify", func(t *testing.T) {
		d := &fakeDecomposer{comps: threeComponents(15)}
		out, added, err := NewAdapter(d, &fakeClassifier{noise: []bool{false, true, false}}).Apply(ctx, ts, set, true, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		_, ok := out.Get("ICA_noise_2")
		assert.True(t, ok)
	})

	t.Run("precomputed wins", func(t *testing.T) {
		d := &fakeDecomposer{comps: threeComponents(15)}
		pre := &Precomputed{Components: threeComponents(15), Noise: []bool{true, true, false}}
		_, added, err := NewAdapter(d, nil).Apply(ctx, ts, set, true, pre)
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, 0, d.calls)
	})

	t.Run("decomposer error", func(t *testing.T) {
		boom := errors.New("melodic failed")
		_, _, err := NewAdapter(&fakeDecomposer{err: boom}, nil).Apply(ctx, ts, set, true, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("classifier error", func(t *testing.T) {
		boom := errors.New("classifier failed")
		d := &fakeDecomposer{comps: threeComponents(15)}
		_, _, err := NewAdapter(d, &fakeClassifier{err: boom}).Apply(ctx, ts, set, true, nil)
		assert.ErrorIs(t, err, boom)
	})
}
