package regress

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-confound/confound/core"
	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// CollinearityTolerance is the relative residual norm below which a design
// column counts as a linear combination of the columns kept before it.
const CollinearityTolerance = 1e-10

// Fit is the outcome of confound regression on one scan.
type Fit struct {
	Residual *core.Timeseries
	// Coefficients is kept columns x signal columns.
	Coefficients *mat.Dense
	Used         []string
	Dropped      []string
	Rank         int
	// VarianceExplained is 1 - var(residual)/var(signal) per signal column.
	VarianceExplained []float64
	ResidualStd       []float64
	Warnings          []string
}

// Prune returns the indexes of the columns kept by greedy Gram-Schmidt in
// column order: a column is dropped when its component orthogonal to the
// kept ones is below tol times its own norm, or it is all zero.
func Prune(cols [][]float64, tol float64) (kept, dropped []int) {
	var basis [][]float64
	for k, c := range cols {
		norm := floats.Norm(c, 2)
		if norm == 0 {
			dropped = append(dropped, k)
			continue
		}
		r := append([]float64(nil), c...)
		for _, q := range basis {
			floats.AddScaled(r, -floats.Dot(q, r), q)
		}
		rn := floats.Norm(r, 2)
		if rn <= tol*norm {
			dropped = append(dropped, k)
			continue
		}
		floats.Scale(1/rn, r)
		basis = append(basis, r)
		kept = append(kept, k)
	}
	return kept, dropped
}

// Regress removes the least-squares fit of design from every column of ts.
// Collinear design columns are dropped with a warning. An empty design
// returns a copy of ts.
func Regress(ts *core.Timeseries, design Design) (Fit, error) {
	frames, cols := ts.FrameCount(), ts.ColumnCount()
	for k, c := range design.Columns {
		if len(c) != frames {
			return Fit{}, errors.Errorf("design column %q has %d frames, signal has %d", design.Names[k], len(c), frames)
		}
	}

	fit := Fit{}
	if design.Width() == 0 || frames == 0 || cols == 0 {
		fit.Residual = ts.Clone()
		fit.VarianceExplained = make([]float64, cols)
		fit.ResidualStd = columnStd(fit.Residual)
		return fit, nil
	}

	kept, dropped := Prune(design.Columns, CollinearityTolerance)
	for _, k := range dropped {
		fit.Dropped = append(fit.Dropped, design.Names[k])
		fit.Warnings = append(fit.Warnings, fmt.Sprintf("regressor %q is collinear with earlier regressors and was dropped", design.Names[k]))
	}
	for _, k := range kept {
		fit.Used = append(fit.Used, design.Names[k])
	}
	fit.Rank = len(kept)

	x := mat.NewDense(frames, len(kept), nil)
	for i, k := range kept {
		x.SetCol(i, design.Columns[k])
	}
	y := mat.NewDense(frames, cols, nil)
	for t, row := range ts.Data {
		y.SetRow(t, row)
	}

	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		return Fit{}, errors.Wrap(err, "unable to solve least squares")
	}

	var fitted, resid mat.Dense
	fitted.Mul(x, &beta)
	resid.Sub(y, &fitted)

	out := ts.Clone()
	for t := range out.Data {
		mat.Row(out.Data[t], t, &resid)
	}

	fit.Residual = out
	fit.Coefficients = &beta
	fit.ResidualStd = columnStd(out)
	fit.VarianceExplained = make([]float64, cols)
	for j := 0; j < cols; j++ {
		_, sy := timestats.MeanStd(ts.Column(j))
		if sy == 0 {
			continue
		}
		r := fit.ResidualStd[j] / sy
		fit.VarianceExplained[j] = 1 - r*r
	}
	return fit, nil
}

func columnStd(ts *core.Timeseries) []float64 {
	out := make([]float64, ts.ColumnCount())
	for j := range out {
		_, s := timestats.MeanStd(ts.Column(j))
		if math.IsNaN(s) {
			s = 0
		}
		out[j] = s
	}
	return out
}
