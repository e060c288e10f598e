// Package gapfill replaces censored frames with values simulated from a
// Lomb-Scargle fit of the retained frames, so that frequency filtering can
// run on a continuous series without spectral leakage from the gaps.
package gapfill

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/dsp/spectrum"
	"github.com/cwbudde/algo-confound/internal/workers"
	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// Periodogram oversampling and highest-frequency factors.
const (
	Oversampling = 8.0
	HighFreq     = 1.0
)

// Active reports whether gap filling applies: a filter is configured and at
// least one frame is censored.
func Active(filtering bool, mask *core.FrameCensorMask) bool {
	return filtering && mask != nil && mask.Any()
}

// Model is the Lomb-Scargle basis of one retention pattern. It is shared by
// every column observed on that pattern.
type Model struct {
	retained []int
	basis    *spectrum.Basis
	grid     *spectrum.Grid
	n        int
}

// NewModel prepares the fit for a series of len(retained) frames sampled
// every tr seconds, where retained marks the observed frames. Frame i sits
// at time (i+1)*tr. With fewer than two retained frames the model falls
// back to the retained mean.
func NewModel(retained []bool, tr float64) (*Model, error) {
	if !(tr > 0) {
		return nil, core.Configf("TR", "gap filling needs a positive TR, got %v", tr)
	}

	m := &Model{n: len(retained)}
	full := make([]float64, len(retained))
	var times []float64
	for i, keep := range retained {
		full[i] = float64(i+1) * tr
		if keep {
			m.retained = append(m.retained, i)
			times = append(times, full[i])
		}
	}

	freqs := spectrum.Frequencies(spectrum.Span(times), len(times), Oversampling, HighFreq)
	if len(freqs) == 0 {
		return m, nil
	}

	basis, err := spectrum.NewBasis(times, freqs)
	if errors.Is(err, spectrum.ErrInsufficientSamples) || errors.Is(err, spectrum.ErrEmptyInput) {
		return m, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to build periodogram basis")
	}
	m.basis = basis
	m.grid = basis.Grid(full)
	return m, nil
}

// Fill returns a copy of values with censored frames replaced by the
// rescaled sinusoid model. Retained frames are returned untouched.
func (m *Model) Fill(values []float64) ([]float64, error) {
	if len(values) != m.n {
		return nil, errors.Errorf("column has %d frames, model expects %d", len(values), m.n)
	}

	out := append([]float64(nil), values...)
	if len(m.retained) == m.n {
		return out, nil
	}

	kept := make([]float64, len(m.retained))
	for i, t := range m.retained {
		kept[i] = values[t]
	}

	if m.basis == nil {
		if len(kept) == 0 {
			return out, nil
		}
		mean := timestats.Mean(kept)
		m.substitute(out, func(int) float64 { return mean })
		return out, nil
	}

	p, err := m.basis.Coefficients(kept)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fit periodogram")
	}

	model := m.grid.Eval(p)
	scale := 0.0
	if _, std := timestats.MeanStd(model); std > 0 {
		scale = math.Sqrt(p.Variance) / std
	}
	m.substitute(out, func(t int) float64 { return p.Mean + scale*model[t] })
	return out, nil
}

func (m *Model) substitute(out []float64, value func(t int) float64) {
	next := 0
	for t := range out {
		if next < len(m.retained) && m.retained[next] == t {
			next++
			continue
		}
		out[t] = value(t)
	}
}

// Column fills one series. See NewModel and Model.Fill.
func Column(values []float64, retained []bool, tr float64) ([]float64, error) {
	if len(values) != len(retained) {
		return nil, errors.Errorf("%d values for a mask of %d frames", len(values), len(retained))
	}
	m, err := NewModel(retained, tr)
	if err != nil {
		return nil, err
	}
	return m.Fill(values)
}

// Filler gap-fills a scan's signal and regressors, columns in parallel.
type Filler struct {
	workers int
}

// New returns a Filler running at most workers columns at once
// (0 means GOMAXPROCS).
func New(workers int) *Filler {
	return &Filler{workers: workers}
}

// Fill returns gap-filled copies of ts and set on mask's retention pattern.
func (f *Filler) Fill(ctx context.Context, ts *core.Timeseries, set *core.RegressorSet, mask *core.FrameCensorMask) (*core.Timeseries, *core.RegressorSet, error) {
	if mask.Len() != ts.FrameCount() || set.Frames() != ts.FrameCount() {
		return nil, nil, errors.Errorf("mask %d, regressors %d and signal %d frames differ", mask.Len(), set.Frames(), ts.FrameCount())
	}

	model, err := NewModel(mask.Retained, ts.TR)
	if err != nil {
		return nil, nil, err
	}

	cols := ts.Columns()
	regs := set.All()
	filled := make([][]float64, len(cols)+len(regs))

	err = workers.ForEach(ctx, len(filled), f.workers, func(_ context.Context, i int) error {
		src := regressorOrColumn(cols, regs, i)
		v, err := model.Fill(src)
		if err != nil {
			return err
		}
		filled[i] = v
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "gap fill")
	}

	outTS, err := ts.WithColumns(filled[:len(cols)])
	if err != nil {
		return nil, nil, err
	}
	outSet := core.NewRegressorSet(set.Frames())
	for k, r := range regs {
		if err := outSet.Add(r.Name, r.Category, filled[len(cols)+k]); err != nil {
			return nil, nil, err
		}
	}
	return outTS, outSet, nil
}

func regressorOrColumn(cols [][]float64, regs []core.Regressor, i int) []float64 {
	if i < len(cols) {
		return cols[i]
	}
	return regs[i-len(cols)].Values
}
