// Package standardize converts each column of a cleaned timeseries to unit
// variance around zero.
package standardize

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-confound/confound/core"
)

// ZeroVarianceTolerance is the relative std below which a column counts as
// constant. Residuals of a fully explained column are rounding noise around
// 1e-15 of the input scale.
const ZeroVarianceTolerance = 1e-10

// Report lists what standardization did to a scan.
type Report struct {
	// ZeroVariance holds the indexes of columns with no variance; they are
	// set to zero.
	ZeroVariance []int
}

type options struct {
	reference []float64
}

// Option configures ZScore.
type Option func(*options)

// WithReference supplies one scale per column, usually the column std before
// regression. A column is constant when its std falls below
// ZeroVarianceTolerance times that scale.
func WithReference(std []float64) Option {
	return func(o *options) { o.reference = std }
}

// ZScore returns a copy of ts where every column has mean 0 and population
// standard deviation 1.
//
// Without a reference the scale of column j is max(1, |mean_j|).
func ZScore(ts *core.Timeseries, opts ...Option) (*core.Timeseries, Report) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	out := ts.Clone()
	var rep Report

	for j := 0; j < out.ColumnCount(); j++ {
		col := out.Column(j)
		mean, std := stat.PopMeanStdDev(col, nil)
		scale := math.Max(1, math.Abs(mean))
		if j < len(o.reference) {
			scale = math.Max(o.reference[j], math.Abs(mean))
		}
		if math.IsNaN(std) || std <= ZeroVarianceTolerance*scale {
			clear(col)
			rep.ZeroVariance = append(rep.ZeroVariance, j)
		} else {
			for i, v := range col {
				col[i] = (v - mean) / std
			}
		}
		out.SetColumn(j, col)
	}
	return out, rep
}

// ColumnStd returns the population std of every column of ts.
func ColumnStd(ts *core.Timeseries) []float64 {
	std := make([]float64, ts.ColumnCount())
	for j := range std {
		_, std[j] = stat.PopMeanStdDev(ts.Column(j), nil)
	}
	return std
}
