// Package ica folds externally computed independent components into the
// nuisance regressor set. The decomposition and the noise classifier are
// injected capabilities; this package only consumes their output.
package ica

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/detrend"
)

// Components are component timeseries, component-major: Timeseries[k][frame].
type Components struct {
	Timeseries [][]float64
}

// Len returns the number of components.
func (c Components) Len() int { return len(c.Timeseries) }

// Decomposer splits a scan into independent components.
type Decomposer interface {
	Decompose(ctx context.Context, ts *core.Timeseries) (Components, error)
}

// Classifier flags each component as noise (true) or signal (false).
type Classifier interface {
	Classify(ctx context.Context, comps Components) ([]bool, error)
}

// Precomputed carries components and flags produced outside the pipeline.
type Precomputed struct {
	Components Components
	Noise      []bool
}

// RegressorName returns the regressor name of component k (0-based).
func RegressorName(k int) string {
	return fmt.Sprintf("%s_%d", core.ICANoise, k+1)
}

// Fold returns a copy of set with every noise-flagged component appended as
// a linearly detrended ICA_noise regressor, and the number appended. An
// empty classification adds nothing.
func Fold(set *core.RegressorSet, comps Components, noise []bool) (*core.RegressorSet, int, error) {
	out := set.Clone()
	if len(noise) == 0 {
		return out, 0, nil
	}
	if len(noise) != comps.Len() {
		return nil, 0, errors.Errorf("%d noise flags for %d components", len(noise), comps.Len())
	}

	added := 0
	for k, isNoise := range noise {
		if !isNoise {
			continue
		}
		tc := comps.Timeseries[k]
		if len(tc) != set.Frames() {
			return nil, 0, errors.Errorf("component %d has %d frames, want %d", k+1, len(tc), set.Frames())
		}
		if err := out.Add(RegressorName(k), core.ICANoise, detrend.Column(tc)); err != nil {
			return nil, 0, errors.Wrap(err, "fold component")
		}
		added++
	}
	return out, added, nil
}

// Adapter runs the optional decomposition and folds noise components.
type Adapter struct {
	decomposer Decomposer
	classifier Classifier
}

// NewAdapter wires the external capabilities. Either may be nil.
func NewAdapter(d Decomposer, c Classifier) *Adapter {
	return &Adapter{decomposer: d, classifier: c}
}

// Apply returns set extended with the noise components of ts. Precomputed
// components win over the wired decomposer. With component removal
// disabled, no source of components, or no classification, set is returned
// unchanged.
func (a *Adapter) Apply(ctx context.Context, ts *core.Timeseries, set *core.RegressorSet, enabled bool, pre *Precomputed) (*core.RegressorSet, int, error) {
	if !enabled {
		return set, 0, nil
	}

	if pre != nil {
		return Fold(set, pre.Components, pre.Noise)
	}

	if a == nil || a.decomposer == nil {
		return set, 0, nil
	}

	comps, err := a.decomposer.Decompose(ctx, ts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to decompose scan")
	}
	if a.classifier == nil || comps.Len() == 0 {
		return set, 0, nil
	}

	noise, err := a.classifier.Classify(ctx, comps)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to classify components")
	}
	return Fold(set, comps, noise)
}
