package pipeline

import (
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/frame"
	"github.com/cwbudde/algo-confound/confound/ica"
	"github.com/cwbudde/algo-confound/confound/regress"
)

// Scan is the input of one run.
type Scan struct {
	ID     string
	Signal *core.Timeseries
	// Motion holds per-frame rigid-body parameters: three translations in
	// mm, then three rotations in radians. Required for FD censoring and
	// the mot_6, mot_24 and mean_FD categories unless the regressor set
	// already carries mot_6.
	Motion     []frame.Motion
	Regressors *core.RegressorSet
	// Tissue is the frame-major timeseries of the combined WM and CSF mask
	// voxels, used for aCompCor.
	Tissue [][]float64
	// ICA holds components decomposed outside the pipeline. They take
	// precedence over a wired decomposer.
	ICA *ica.Precomputed
}

// frames returns the signal frame count or 0.
func (s Scan) frames() int {
	if s.Signal == nil {
		return 0
	}
	return s.Signal.FrameCount()
}

func (s Scan) hasMot6() bool {
	return s.Motion != nil || (s.Regressors != nil && s.Regressors.Has(core.Mot6))
}

// crop restricts every per-frame input to [start, end).
func (s Scan) crop(start, end int) Scan {
	n := s.frames()
	if start == 0 && end == n {
		return s
	}
	out := s
	out.Signal = s.Signal.Crop(start, end)
	if s.Motion != nil {
		out.Motion = append([]frame.Motion(nil), s.Motion[start:end]...)
	}
	if s.Regressors != nil {
		out.Regressors = s.Regressors.Crop(start, end)
	}
	if s.Tissue != nil {
		out.Tissue = s.Tissue[start:end]
	}
	if s.ICA != nil {
		pre := &ica.Precomputed{Noise: s.ICA.Noise}
		for _, tc := range s.ICA.Components.Timeseries {
			if len(tc) == n {
				tc = tc[start:end]
			}
			pre.Components.Timeseries = append(pre.Components.Timeseries, tc)
		}
		out.ICA = pre
	}
	return out
}

// assemble returns the regressor set of the scan on the full (uncensored)
// frame grid, with the derived categories the configuration asks for.
func (p *Pipeline) assemble(s Scan, fd []float64, d *Diagnostics) (*core.RegressorSet, error) {
	n := s.frames()
	set := core.NewRegressorSet(n)
	if s.Regressors != nil {
		set = s.Regressors.Clone()
	}

	needMot6 := p.cfg.Wants(core.Mot6) || p.cfg.Wants(core.Mot24)
	if needMot6 && !set.Has(core.Mot6) && s.Motion != nil {
		for k, name := range regress.Mot6Names {
			col := make([]float64, n)
			for t, m := range s.Motion {
				col[t] = m[k]
			}
			if err := set.Add(name, core.Mot6, col); err != nil {
				return nil, errors.Wrap(err, "motion regressors")
			}
		}
	}

	if p.cfg.Wants(core.Mot24) && !set.Has(core.Mot24) {
		base := set.ByCategory(core.Mot6)
		mot6 := make([][]float64, len(base))
		names := make([]string, len(base))
		for k, r := range base {
			mot6[k], names[k] = r.Values, r.Name
		}
		cols, colNames := regress.Mot24(mot6), regress.Mot24Names(names)
		for k, c := range cols {
			if err := set.Add("mot24_"+colNames[k], core.Mot24, c); err != nil {
				return nil, errors.Wrap(err, "mot_24 regressors")
			}
		}
	}

	if p.cfg.Wants(core.ACompCor) && !set.Has(core.ACompCor) {
		scores, _, err := regress.ACompCor(s.Tissue)
		if err != nil {
			return nil, errors.Wrap(err, "aCompCor")
		}
		for k, sc := range scores {
			if err := set.Add(regress.ACompCorName(k), core.ACompCor, sc); err != nil {
				return nil, errors.Wrap(err, "aCompCor regressors")
			}
		}
		d.ACompCorComponents = len(scores)
	}

	if p.cfg.Wants(core.MeanFD) && !set.Has(core.MeanFD) {
		if err := set.Add(string(core.MeanFD), core.MeanFD, fd); err != nil {
			return nil, errors.Wrap(err, "mean_FD regressor")
		}
	}
	return set, nil
}

// Validate reports the first ConfigurationError that would stop scan from
// running. Other input defects are returned as plain errors.
func (p *Pipeline) Validate(scan Scan) error {
	if scan.Signal == nil {
		return errors.New("scan has no signal")
	}
	if err := scan.Signal.Validate(); err != nil {
		return errors.Wrap(err, "signal")
	}
	n := scan.frames()

	if scan.Motion != nil && len(scan.Motion) != n {
		return core.Configf("motion", "%d frames of motion parameters, signal has %d", len(scan.Motion), n)
	}
	if scan.Regressors != nil && scan.Regressors.Frames() != n {
		return core.Configf("regressors", "%d regressor frames, signal has %d", scan.Regressors.Frames(), n)
	}
	if scan.Tissue != nil && len(scan.Tissue) != n {
		return core.Configf("tissue", "%d tissue frames, signal has %d", len(scan.Tissue), n)
	}
	if _, _, err := p.cfg.TimeseriesInterval.Bounds(n); err != nil {
		return err
	}

	tr := p.tr(scan.Signal)
	if _, err := p.filter(tr); err != nil {
		return err
	}
	if p.cfg.Smoothing() {
		if err := p.smoothable(scan.Signal); err != nil {
			return err
		}
	}

	if p.cfg.FDCensoring && scan.Motion == nil {
		return core.Configf("FD_censoring", "motion parameters are required")
	}
	for _, cat := range p.cfg.ConfList {
		if err := p.available(scan, cat); err != nil {
			return err
		}
	}
	return nil
}

// available checks that cat can be resolved for scan.
func (p *Pipeline) available(scan Scan, cat core.Category) error {
	if scan.Regressors != nil && scan.Regressors.Has(cat) {
		return nil
	}
	switch cat {
	case core.Mot6, core.Mot24:
		if scan.hasMot6() {
			return nil
		}
	case core.MeanFD:
		if scan.Motion != nil {
			return nil
		}
	case core.ACompCor:
		if len(scan.Tissue) > 0 {
			return nil
		}
	}
	return core.Configf("conf_list", "no source for %s regressors in scan %q", cat, scan.ID)
}
