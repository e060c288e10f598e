package regress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/internal/testutil"
	timestats "github.com/cwbudde/algo-confound/stats/time"
)

func TestMot24(t *testing.T) {
	mot6 := [][]float64{
		{0, 1, 3}, {0, 0, 0}, {1, 1, 1},
		{0, 2, 2}, {0, 0, 1}, {5, 4, 3},
	}
	out := Mot24(mot6)
	require.Len(t, out, 24)

	assert.Equal(t, []float64{0, 1, 3}, out[0])
	assert.Equal(t, []float64{0, 1, 2}, out[6], "derivative of mov1")
	assert.Equal(t, []float64{0, 1, 9}, out[12], "square of mov1")
	assert.Equal(t, []float64{0, 1, 4}, out[18], "square of mov1 derivative")
	assert.Equal(t, []float64{0, 1, 1}, out[23], "square of rot3 derivative")

	names := Mot24Names(Mot6Names)
	require.Len(t, names, 24)
	assert.Equal(t, "mov1", names[0])
	assert.Equal(t, "mov1_der", names[6])
	assert.Equal(t, "mov1_sq", names[12])
	assert.Equal(t, "rot3_der_sq", names[23])
}

func TestACompCor_KeepsHalfTheVariance(t *testing.T) {
	const frames = 80
	a := testutil.DeterministicSine(0.05, 1, 3, frames)
	b := testutil.DeterministicNoise(5, 0.2, frames)

	tissue := make([][]float64, frames)
	for i := range tissue {
		tissue[i] = []float64{a[i] + b[i], 2*a[i] - b[i], -a[i], a[i] + 0.5*b[i]}
	}

	scores, explained, err := ACompCor(tissue)
	require.NoError(t, err)
	require.Len(t, scores, 1, "one dominant component carries more than half the variance")
	require.Len(t, explained, 1)
	assert.Greater(t, explained[0], 0.5)
	assert.Len(t, scores[0], frames)

	// Scores are correlated with the shared source.
	var dot, ns, na float64
	for i := range a {
		dot += scores[0][i] * a[i]
		ns += scores[0][i] * scores[0][i]
		na += a[i] * a[i]
	}
	assert.Greater(t, math.Abs(dot/math.Sqrt(ns*na)), 0.95)
	assert.Equal(t, "aCompCor1", ACompCorName(0))
}

func TestACompCor_Errors(t *testing.T) {
	_, _, err := ACompCor([][]float64{{1, 2}})
	assert.Error(t, err)

	flat := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	_, _, err = ACompCor(flat)
	assert.ErrorIs(t, err, ErrNoTissueVariance)
}

func regressorSet(t *testing.T, frames int) *core.RegressorSet {
	t.Helper()
	set := core.NewRegressorSet(frames)
	require.NoError(t, set.Add("WM_signal", core.WMSignal, testutil.DeterministicSine(0.02, 1, 1, frames)))
	require.NoError(t, set.Add("CSF_signal", core.CSFSignal, testutil.DeterministicSine(0.07, 1, 1, frames)))
	require.NoError(t, set.Add("ICA_noise_1", core.ICANoise, testutil.DeterministicNoise(9, 1, frames)))
	return set
}

func TestDesignMatrix(t *testing.T) {
	set := regressorSet(t, 50)

	d, err := DesignMatrix(set, []core.Category{core.CSFSignal, core.WMSignal}, false)
	require.NoError(t, err)
	assert.True(t, d.Intercept)
	assert.Equal(t, []string{InterceptName, "CSF_signal", "WM_signal"}, d.Names)
	assert.Equal(t, testutil.DC(1, 50), d.Columns[0])

	d, err = DesignMatrix(set, []core.Category{core.WMSignal}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{InterceptName, "WM_signal", "ICA_noise_1"}, d.Names)

	d, err = DesignMatrix(set, nil, false)
	require.NoError(t, err)
	assert.Zero(t, d.Width(), "no regressors, no intercept")

	_, err = DesignMatrix(set, []core.Category{core.GlobalSignal}, false)
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))
}

func TestPrune_DropsCollinearColumns(t *testing.T) {
	a := testutil.DeterministicSine(0.03, 1, 1, 40)
	b := testutil.DeterministicNoise(2, 1, 40)
	sum := testutil.Add(a, b)

	kept, dropped := Prune([][]float64{a, b, sum, make([]float64, 40)}, CollinearityTolerance)
	assert.Equal(t, []int{0, 1}, kept)
	assert.Equal(t, []int{2, 3}, dropped)
}

func TestRegress_RemovesNuisance(t *testing.T) {
	// Whole cycles over 100 frames keep both sines orthogonal to each
	// other and to the intercept.
	const frames = 100
	nuis := testutil.DeterministicSine(0.02, 1, 1, frames)
	signal := testutil.DeterministicSine(0.09, 1, 0.5, frames)

	col := make([]float64, frames)
	for i := range col {
		col[i] = 10 + 3*nuis[i] + signal[i]
	}
	ts, err := core.FromColumns([][]float64{col}, 1, core.ROI)
	require.NoError(t, err)

	design := Design{
		Names:     []string{InterceptName, "nuis"},
		Columns:   [][]float64{testutil.DC(1, frames), nuis},
		Intercept: true,
	}
	fit, err := Regress(ts, design)
	require.NoError(t, err)

	assert.Equal(t, 2, fit.Rank)
	assert.Equal(t, []string{InterceptName, "nuis"}, fit.Used)
	assert.Empty(t, fit.Dropped)
	assert.InDelta(t, 10, fit.Coefficients.At(0, 0), 1e-9)
	assert.InDelta(t, 3, fit.Coefficients.At(1, 0), 1e-9)

	resid := fit.Residual.Column(0)
	assert.InDelta(t, 0, timestats.Mean(resid), 1e-9)
	assert.Greater(t, fit.VarianceExplained[0], 0.9)
	assert.InDelta(t, 0.5/math.Sqrt2, fit.ResidualStd[0], 1e-9)

	// Input untouched.
	assert.Equal(t, col, ts.Column(0))
}

func TestRegress_CollinearWarning(t *testing.T) {
	const frames = 30
	a := testutil.DeterministicNoise(3, 1, frames)
	ts, err := core.FromColumns([][]float64{testutil.DeterministicNoise(4, 1, frames)}, 2, core.ROI)
	require.NoError(t, err)

	design := Design{
		Names:   []string{InterceptName, "a", "a2"},
		Columns: [][]float64{testutil.DC(1, frames), a, append([]float64(nil), a...)},
	}
	fit, err := Regress(ts, design)
	require.NoError(t, err)
	assert.Equal(t, 2, fit.Rank)
	assert.Equal(t, []string{"a2"}, fit.Dropped)
	require.Len(t, fit.Warnings, 1)
	assert.Contains(t, fit.Warnings[0], "a2")
}

func TestRegress_EmptyDesignIsIdentity(t *testing.T) {
	ts, err := core.FromColumns([][]float64{{1, 2, 3}, {4, 4, 4}}, 1, core.ROI)
	require.NoError(t, err)

	fit, err := Regress(ts, Design{})
	require.NoError(t, err)
	assert.Equal(t, ts.Data, fit.Residual.Data)
	assert.Zero(t, fit.Rank)
	assert.Equal(t, []float64{0, 0}, fit.VarianceExplained)
}

func TestRegress_LengthMismatch(t *testing.T) {
	ts, err := core.FromColumns([][]float64{{1, 2, 3}}, 1, core.ROI)
	require.NoError(t, err)

	_, err = Regress(ts, Design{Names: []string{"x"}, Columns: [][]float64{{1, 2}}})
	assert.Error(t, err)
}
