// Package detrend removes the least-squares line over frame index from
// signal columns and regressors. The fit always spans every frame of the
// input, censored or not, so that the spectral stages downstream see
// trend-free data on the full grid.
package detrend

import (
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// Column returns v minus its OLS line a + b*i.
func Column(v []float64) []float64 {
	return timestats.Detrend(v)
}

// Timeseries returns a detrended copy of every column of ts.
func Timeseries(ts *core.Timeseries) *core.Timeseries {
	out := ts.Clone()
	for j := 0; j < ts.ColumnCount(); j++ {
		out.SetColumn(j, Column(ts.Column(j)))
	}
	return out
}

// Regressors returns a detrended copy of every regressor in set.
func Regressors(set *core.RegressorSet) (*core.RegressorSet, error) {
	out, err := set.Map(func(r core.Regressor) ([]float64, error) {
		return Column(r.Values), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "detrend regressors")
	}
	return out, nil
}
