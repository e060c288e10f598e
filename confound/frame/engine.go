package frame

import (
	"github.com/cwbudde/algo-confound/confound/config"
	"github.com/cwbudde/algo-confound/confound/core"
	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// Metrics are the per-frame traces behind a censor mask.
type Metrics struct {
	FD          []float64
	DVARS       []float64
	DVARSPasses int
}

// Engine builds frame metrics and the censor mask of one scan.
type Engine struct {
	headRadiusMM float64
	fdCensoring  bool
	fdThreshold  float64
	dvarsCensor  bool
	dvarsSD      float64
}

// NewEngine reads the censoring options from cfg.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		headRadiusMM: cfg.HeadRadiusMM,
		fdCensoring:  cfg.FDCensoring,
		fdThreshold:  cfg.FDThreshold,
		dvarsCensor:  cfg.DVARSCensoring,
		dvarsSD:      cfg.DVARSThresholdSD,
	}
}

// Build computes FD from motion (may be nil when FD censoring is off) and
// DVARS from the linearly detrended columns of signal, then unions the
// active sub-masks.
func (e *Engine) Build(motion []Motion, signal *core.Timeseries) (Metrics, *core.FrameCensorMask, error) {
	n := signal.FrameCount()
	mask := core.NewMask(n)

	if motion == nil && e.fdCensoring {
		return Metrics{}, nil, core.Configf("FD_censoring", "motion parameters are required")
	}
	if motion != nil && len(motion) != n {
		return Metrics{}, nil, core.Configf("motion", "%d frames of motion parameters, signal has %d", len(motion), n)
	}

	var m Metrics
	if motion != nil {
		m.FD = FramewiseDisplacement(motion, e.headRadiusMM)
	}
	m.DVARS = DVARS(detrended(signal))

	if e.fdCensoring {
		mask.Flag(core.RuleFD, FDMask(m.FD, e.fdThreshold))
	}
	if e.dvarsCensor {
		flagged, passes, err := DVARSMask(m.DVARS, e.dvarsSD)
		if err != nil {
			return Metrics{}, nil, err
		}
		m.DVARSPasses = passes
		mask.Flag(core.RuleDVARS, flagged)
	}

	return m, mask, nil
}

func detrended(ts *core.Timeseries) [][]float64 {
	out := make([][]float64, ts.FrameCount())
	for t := range out {
		out[t] = make([]float64, ts.ColumnCount())
	}
	for j := 0; j < ts.ColumnCount(); j++ {
		col := timestats.Detrend(ts.Column(j))
		for t, v := range col {
			out[t][j] = v
		}
	}
	return out
}
