// Package bandpass applies zero-phase Butterworth highpass and lowpass
// filters to signal columns and, with the same operator, to regressors.
//
// Filtering regressors through the signal's transfer function keeps the
// design matrix in the band the signal retains, so confound regression
// cannot reintroduce variance the filter removed.
package bandpass

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/dsp/filter/biquad"
	"github.com/cwbudde/algo-confound/dsp/filter/design/pass"
	"github.com/cwbudde/algo-confound/internal/workers"
)

// Filter is a zero-phase highpass and/or lowpass operator for one TR.
type Filter struct {
	highpass []biquad.Coefficients
	lowpass  []biquad.Coefficients
	cutoffs  []float64
	tr       float64
	workers  int
}

// Response is the zero-phase gain of the whole operator at one frequency.
type Response struct {
	Freq float64 `json:"freq"`
	Gain float64 `json:"gain"`
}

// Option configures a Filter.
type Option func(*Filter)

// WithWorkers bounds column parallelism (0 means GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(f *Filter) { f.workers = n }
}

// NewFilter designs Butterworth cascades of the given order for the
// requested cutoffs (Hz) at sampling interval tr (s). A nil cutoff disables
// that side. Requesting a cutoff with an unknown TR, a cutoff outside
// (0, Nyquist), or highpass >= lowpass is a ConfigurationError.
func NewFilter(highpass, lowpass *float64, tr float64, order int, opts ...Option) (*Filter, error) {
	f := &Filter{tr: tr}
	for _, opt := range opts {
		opt(f)
	}

	if highpass == nil && lowpass == nil {
		return f, nil
	}
	if !(tr > 0) {
		return nil, core.Configf("TR", "frequency filtering needs a known TR, got %v", tr)
	}
	if order < 1 {
		return nil, core.Configf("filter_order", "must be >= 1, got %d", order)
	}

	fs := 1 / tr
	if highpass != nil {
		if !pass.ValidCutoff(*highpass, fs) {
			return nil, core.Configf("highpass", "%v Hz outside (0, %v) Hz for TR %v s", *highpass, fs/2, tr)
		}
		f.highpass = pass.ButterworthHP(*highpass, order, fs)
		f.cutoffs = append(f.cutoffs, *highpass)
	}
	if lowpass != nil {
		if !pass.ValidCutoff(*lowpass, fs) {
			return nil, core.Configf("lowpass", "%v Hz outside (0, %v) Hz for TR %v s", *lowpass, fs/2, tr)
		}
		f.lowpass = pass.ButterworthLP(*lowpass, order, fs)
		f.cutoffs = append(f.cutoffs, *lowpass)
	}
	if highpass != nil && lowpass != nil && *highpass >= *lowpass {
		return nil, core.Configf("highpass", "%v Hz must be below lowpass %v Hz", *highpass, *lowpass)
	}
	return f, nil
}

// Active reports whether any filter side is configured.
func (f *Filter) Active() bool {
	return len(f.highpass) > 0 || len(f.lowpass) > 0
}

// Sections returns the number of biquad sections per side.
func (f *Filter) Sections() (highpass, lowpass int) {
	return len(f.highpass), len(f.lowpass)
}

// Apply returns x filtered forward and backward: highpass first, then
// lowpass. The output has len(x) samples.
func (f *Filter) Apply(x []float64) []float64 {
	y := append([]float64(nil), x...)
	if len(f.highpass) > 0 {
		y = biquad.FiltFilt(f.highpass, y)
	}
	if len(f.lowpass) > 0 {
		y = biquad.FiltFilt(f.lowpass, y)
	}
	return y
}

// Gain returns the zero-phase magnitude response at freq Hz.
func (f *Filter) Gain(freq float64) float64 {
	if !(f.tr > 0) {
		return 1
	}
	fs := 1 / f.tr
	g := 1.0
	if len(f.highpass) > 0 {
		g *= biquad.NewChain(f.highpass).ZeroPhaseMagnitude(freq, fs)
	}
	if len(f.lowpass) > 0 {
		g *= biquad.NewChain(f.lowpass).ZeroPhaseMagnitude(freq, fs)
	}
	return g
}

// CutoffResponse returns the gain at each configured cutoff, highpass first.
// Both sides contribute to each value.
func (f *Filter) CutoffResponse() []Response {
	out := make([]Response, len(f.cutoffs))
	for i, fc := range f.cutoffs {
		out[i] = Response{Freq: fc, Gain: f.Gain(fc)}
	}
	return out
}

// Timeseries filters every column of ts.
func (f *Filter) Timeseries(ctx context.Context, ts *core.Timeseries) (*core.Timeseries, error) {
	cols := ts.Columns()
	out := make([][]float64, len(cols))
	err := workers.ForEach(ctx, len(cols), f.workers, func(_ context.Context, j int) error {
		out[j] = f.Apply(cols[j])
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "filter signal")
	}
	return ts.WithColumns(out)
}

// Regressors filters every regressor of set with the signal's operator.
func (f *Filter) Regressors(ctx context.Context, set *core.RegressorSet) (*core.RegressorSet, error) {
	regs := set.All()
	out := make([][]float64, len(regs))
	err := workers.ForEach(ctx, len(regs), f.workers, func(_ context.Context, k int) error {
		out[k] = f.Apply(regs[k].Values)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "filter regressors")
	}

	filtered := core.NewRegressorSet(set.Frames())
	for k, r := range regs {
		if err := filtered.Add(r.Name, r.Category, out[k]); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}
