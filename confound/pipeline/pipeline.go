package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/bandpass"
	"github.com/cwbudde/algo-confound/confound/censor"
	"github.com/cwbudde/algo-confound/confound/config"
	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/detrend"
	"github.com/cwbudde/algo-confound/confound/frame"
	"github.com/cwbudde/algo-confound/confound/gapfill"
	"github.com/cwbudde/algo-confound/confound/ica"
	"github.com/cwbudde/algo-confound/confound/regress"
	"github.com/cwbudde/algo-confound/confound/smooth"
	"github.com/cwbudde/algo-confound/confound/standardize"
	"github.com/cwbudde/algo-confound/internal/logging"
)

// Pipeline runs confound correction with one configuration. It holds no
// per-scan state and is safe for concurrent use.
type Pipeline struct {
	cfg        config.Config
	logger     *slog.Logger
	decomposer ica.Decomposer
	classifier ica.Classifier
	smoother   smooth.Smoother
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithDecomposer wires an ICA decomposition capability.
func WithDecomposer(d ica.Decomposer) Option {
	return func(p *Pipeline) { p.decomposer = d }
}

// WithClassifier wires an ICA noise classifier.
func WithClassifier(c ica.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithSmoother replaces the default Gaussian smoother.
func WithSmoother(s smooth.Smoother) Option {
	return func(p *Pipeline) { p.smoother = s }
}

// New validates cfg and returns a Pipeline.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:    cfg.With(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.smoother == nil {
		p.smoother = smooth.Gaussian{Workers: cfg.ColumnWorkers}
	}
	return p, nil
}

// Config returns a copy of the configuration.
func (p *Pipeline) Config() config.Config { return p.cfg.With() }

// tr returns the effective repetition time of ts.
func (p *Pipeline) tr(ts *core.Timeseries) float64 {
	if p.cfg.TR > 0 {
		return p.cfg.TR
	}
	return ts.TR
}

func (p *Pipeline) filter(tr float64) (*bandpass.Filter, error) {
	return bandpass.NewFilter(p.cfg.Highpass, p.cfg.Lowpass, tr, p.cfg.FilterOrder,
		bandpass.WithWorkers(p.cfg.ColumnWorkers))
}

func (p *Pipeline) smoothable(ts *core.Timeseries) error {
	return smooth.Validate(ts, *p.cfg.SmoothingFilter)
}

// Run cleans one scan. A scan with too few retained frames is not an
// error: it yields a Result with StatusExcluded.
func (p *Pipeline) Run(ctx context.Context, scan Scan) (Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	res, err := p.run(ctx, scan, runID)
	if err != nil {
		logging.LogScanError(p.logger, scan.ID, runID, time.Since(start), err)
		return Result{}, errors.Wrapf(err, "scan %q", scan.ID)
	}
	if !res.Excluded() {
		logging.LogScanComplete(p.logger, scan.ID, runID, time.Since(start), res.Diagnostics.FinalFrames, res.Diagnostics.Rank)
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, scan Scan, runID string) (Result, error) {
	if err := p.Validate(scan); err != nil {
		return Result{}, err
	}

	res := Result{ScanID: scan.ID, RunID: runID}
	d := &res.Diagnostics
	stage := func(s State, attrs ...any) {
		d.visit(s)
		logging.LogStage(p.logger, runID, string(s), attrs...)
	}
	exclude := func(retained int) (Result, error) {
		stage(StateExcluded)
		logging.LogScanExcluded(p.logger, scan.ID, runID, core.ReasonInsufficientTimepoints, retained, p.cfg.MinimumTimepoint)
		res.Status = StatusExcluded
		res.Reason = core.ReasonInsufficientTimepoints
		res.Err = core.InsufficientData(retained, p.cfg.MinimumTimepoint)
		return res, nil
	}

	// Init
	lo, hi, err := p.cfg.TimeseriesInterval.Bounds(scan.frames())
	if err != nil {
		return Result{}, err
	}
	scan = scan.crop(lo, hi)
	signal := scan.Signal.Clone()
	signal.TR = p.tr(scan.Signal)
	d.OriginalFrames = signal.FrameCount()
	logging.LogScanStart(p.logger, scan.ID, runID, signal.FrameCount(), signal.ColumnCount())

	var fd []float64
	if scan.Motion != nil {
		fd = frame.FramewiseDisplacement(scan.Motion, p.cfg.HeadRadiusMM)
	}
	set, err := p.assemble(scan, fd, d)
	if err != nil {
		return Result{}, err
	}
	stage(StateInit, "frames", d.OriginalFrames, "regressors", set.Len())

	// MaskBuilt
	metrics, mask, err := frame.NewEngine(p.cfg).Build(scan.Motion, signal)
	if err != nil {
		return Result{}, err
	}
	d.FD, d.DVARS, d.DVARSPasses = metrics.FD, metrics.DVARS, metrics.DVARSPasses
	if metrics.FD != nil {
		d.MeanFD = frame.MeanFD(metrics.FD)
	}
	d.RetainedFrames = mask.RetainedCount()
	d.recordMask(mask)
	res.Mask = mask
	stage(StateMaskBuilt, "retained", d.RetainedFrames, "censored", mask.CensoredCount())
	if d.RetainedFrames < p.cfg.MinimumTimepoint {
		return exclude(d.RetainedFrames)
	}

	// Detrended
	signal = detrend.Timeseries(signal)
	if set, err = detrend.Regressors(set); err != nil {
		return Result{}, err
	}
	stage(StateDetrended)

	// NoiseFolded
	set, d.NoiseComponents, err = ica.NewAdapter(p.decomposer, p.classifier).
		Apply(ctx, signal, set, p.cfg.RunNoiseComponentRemoval, scan.ICA)
	if err != nil {
		return Result{}, err
	}
	stage(StateNoiseFolded, "components", d.NoiseComponents)

	edge := 0
	if p.cfg.Filtering() {
		filter, err := p.filter(signal.TR)
		if err != nil {
			return Result{}, err
		}
		d.FilterResponse = filter.CutoffResponse()

		// GapFilled
		if gapfill.Active(true, mask) {
			if signal, set, err = gapfill.New(p.cfg.ColumnWorkers).Fill(ctx, signal, set, mask); err != nil {
				return Result{}, err
			}
			d.GapFilled = true
		}
		stage(StateGapFilled, "filled", d.GapFilled)

		// Orthogonalized
		if set, err = filter.Regressors(ctx, set); err != nil {
			return Result{}, err
		}
		stage(StateOrthogonalized)

		// Filtered
		if signal, err = filter.Timeseries(ctx, signal); err != nil {
			return Result{}, err
		}
		stage(StateFiltered)

		edge = censor.EdgeFrames(p.cfg.EdgeCutoff, signal.TR, true)
	}

	// Recensored
	rc, err := censor.Reapply(signal, set, mask, edge)
	if err != nil {
		return Result{}, err
	}
	d.EdgeFrames = edge
	d.FinalFrames = rc.Mask.RetainedCount()
	d.recordMask(rc.Mask)
	res.Mask, res.Frames = rc.Mask, rc.Frames
	stage(StateRecensored, "frames", d.FinalFrames, "edge", edge)
	if d.FinalFrames < p.cfg.MinimumTimepoint {
		return exclude(d.FinalFrames)
	}
	signal, set = rc.Signal, rc.Regressors

	// Regressed
	var scale []float64
	if p.cfg.Standardize {
		scale = standardize.ColumnStd(signal)
	}
	design, err := regress.DesignMatrix(set, p.cfg.ConfList, true)
	if err != nil {
		return Result{}, err
	}
	fit, err := regress.Regress(signal, design)
	if err != nil {
		return Result{}, err
	}
	signal = fit.Residual
	d.RegressorsUsed, d.RegressorsDropped, d.Rank = fit.Used, fit.Dropped, fit.Rank
	d.VarianceExplained, d.ResidualStd = fit.VarianceExplained, fit.ResidualStd
	for _, w := range fit.Warnings {
		p.logger.Warn("degenerate design", "scan", scan.ID, "run_id", runID, "warning", w)
	}
	d.Warnings = append(d.Warnings, fit.Warnings...)
	stage(StateRegressed, "rank", fit.Rank, "dropped", len(fit.Dropped))

	// Standardized
	if p.cfg.Standardize {
		var rep standardize.Report
		signal, rep = standardize.ZScore(signal, standardize.WithReference(scale))
		d.ZeroVariance = rep.ZeroVariance
		if len(rep.ZeroVariance) > 0 {
			p.logger.Warn("zero variance columns", "scan", scan.ID, "run_id", runID, "columns", len(rep.ZeroVariance))
			d.Warnings = append(d.Warnings, "zero-variance columns set to zero")
		}
	}
	stage(StateStandardized)

	// Smoothed
	if p.cfg.Smoothing() {
		if signal, err = p.smoother.Smooth(ctx, signal, *p.cfg.SmoothingFilter); err != nil {
			return Result{}, errors.Wrap(err, "smooth")
		}
	}
	stage(StateSmoothed)

	res.Status = StatusDone
	res.Signal = signal
	stage(StateDone)
	return res, nil
}
