// Package config holds the confound-correction options.
//
// A Config is a plain value: build it with Default and functional options,
// or decode it from JSON with Load/Parse, then call Validate before handing
// it to a pipeline. Nothing in the package keeps process-wide state.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
)

const (
	DefaultEdgeCutoff       = 30.0 // seconds
	DefaultFDThreshold      = 0.05 // mm
	DefaultMinimumTimepoint = 3
	DefaultHeadRadiusMM     = 50.0
	DefaultFilterOrder      = 5
	DefaultDVARSThresholdSD = 2.5
)

// Config is the immutable option set of one confound-correction run.
type Config struct {
	// TR overrides the repetition time of every scan when > 0. Zero keeps
	// the TR read from the input.
	TR float64 `json:"tr"`

	Highpass   *float64 `json:"highpass"`    // Hz
	Lowpass    *float64 `json:"lowpass"`     // Hz
	EdgeCutoff float64  `json:"edge_cutoff"` // seconds trimmed at each end when filtering

	SmoothingFilter *float64 `json:"smoothing_filter"` // mm FWHM

	RunNoiseComponentRemoval bool            `json:"run_noise_component_removal"`
	ConfList                 []core.Category `json:"conf_list"`

	FDCensoring    bool    `json:"FD_censoring"`
	FDThreshold    float64 `json:"FD_threshold"` // mm
	DVARSCensoring bool    `json:"DVARS_censoring"`

	MinimumTimepoint   int      `json:"minimum_timepoint"`
	Standardize        bool     `json:"standardize"`
	TimeseriesInterval Interval `json:"timeseries_interval"`

	HeadRadiusMM     float64 `json:"head_radius_mm"`     // rotation to arc length for FD
	FilterOrder      int     `json:"filter_order"`       // Butterworth order per pass
	DVARSThresholdSD float64 `json:"dvars_threshold_sd"` // outlier bound in standard deviations

	// ColumnWorkers bounds per-stage column parallelism. Zero means GOMAXPROCS.
	ColumnWorkers int `json:"column_workers"`
}

// Option mutates a Config.
type Option func(*Config)

// Default returns the documented defaults: no filtering, no censoring,
// no regression, 30 s edge cutoff, minimum of 3 frames.
func Default() Config {
	return Config{
		EdgeCutoff:       DefaultEdgeCutoff,
		FDThreshold:      DefaultFDThreshold,
		MinimumTimepoint: DefaultMinimumTimepoint,
		HeadRadiusMM:     DefaultHeadRadiusMM,
		FilterOrder:      DefaultFilterOrder,
		DVARSThresholdSD: DefaultDVARSThresholdSD,
	}
}

// New applies opts to Default.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// With returns a copy of cfg with opts applied.
func (cfg Config) With(opts ...Option) Config {
	out := cfg.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

func (cfg Config) clone() Config {
	out := cfg
	out.Highpass = clonePtr(cfg.Highpass)
	out.Lowpass = clonePtr(cfg.Lowpass)
	out.SmoothingFilter = clonePtr(cfg.SmoothingFilter)
	out.ConfList = append([]core.Category(nil), cfg.ConfList...)
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// WithTR overrides the repetition time of every scan.
func WithTR(tr float64) Option {
	return func(cfg *Config) { cfg.TR = tr }
}

// WithHighpass sets the highpass cutoff in Hz.
func WithHighpass(hz float64) Option {
	return func(cfg *Config) { cfg.Highpass = &hz }
}

// WithLowpass sets the lowpass cutoff in Hz.
func WithLowpass(hz float64) Option {
	return func(cfg *Config) { cfg.Lowpass = &hz }
}

// WithEdgeCutoff sets the seconds trimmed from each end after filtering.
func WithEdgeCutoff(seconds float64) Option {
	return func(cfg *Config) { cfg.EdgeCutoff = seconds }
}

// WithSmoothing sets the spatial smoothing FWHM in mm.
func WithSmoothing(fwhm float64) Option {
	return func(cfg *Config) { cfg.SmoothingFilter = &fwhm }
}

// WithNoiseComponentRemoval toggles regression of noise ICA components.
func WithNoiseComponentRemoval(enabled bool) Option {
	return func(cfg *Config) { cfg.RunNoiseComponentRemoval = enabled }
}

// WithConfList sets the regressor categories used for confound regression.
func WithConfList(cats ...core.Category) Option {
	return func(cfg *Config) { cfg.ConfList = append([]core.Category(nil), cats...) }
}

// WithFDCensoring enables framewise displacement censoring at threshold mm.
func WithFDCensoring(threshold float64) Option {
	return func(cfg *Config) {
		cfg.FDCensoring = true
		cfg.FDThreshold = threshold
	}
}

// WithDVARSCensoring toggles DVARS outlier censoring.
func WithDVARSCensoring(enabled bool) Option {
	return func(cfg *Config) { cfg.DVARSCensoring = enabled }
}

// WithMinimumTimepoint sets the retained-frame count below which a scan is
// excluded.
func WithMinimumTimepoint(n int) Option {
	return func(cfg *Config) { cfg.MinimumTimepoint = n }
}

// WithStandardize toggles z-scoring of the cleaned columns.
func WithStandardize(enabled bool) Option {
	return func(cfg *Config) { cfg.Standardize = enabled }
}

// WithInterval crops every scan to frames [start, end) before processing.
func WithInterval(start, end int) Option {
	return func(cfg *Config) { cfg.TimeseriesInterval = Interval{Start: start, End: end} }
}

// WithHeadRadius sets the head radius used to turn rotations into mm.
func WithHeadRadius(mm float64) Option {
	return func(cfg *Config) { cfg.HeadRadiusMM = mm }
}

// WithFilterOrder sets the Butterworth order of each filter pass.
func WithFilterOrder(order int) Option {
	return func(cfg *Config) { cfg.FilterOrder = order }
}

// WithColumnWorkers bounds per-stage column parallelism.
func WithColumnWorkers(n int) Option {
	return func(cfg *Config) { cfg.ColumnWorkers = n }
}

// Filtering reports whether a highpass or lowpass filter is configured.
func (cfg Config) Filtering() bool {
	return cfg.Highpass != nil || cfg.Lowpass != nil
}

// Smoothing reports whether spatial smoothing is configured.
func (cfg Config) Smoothing() bool {
	return cfg.SmoothingFilter != nil
}

// Censoring reports whether any frame censoring rule is active.
func (cfg Config) Censoring() bool {
	return cfg.FDCensoring || cfg.DVARSCensoring
}

// Wants reports whether cat is in the configured category list.
func (cfg Config) Wants(cat core.Category) bool {
	for _, c := range cfg.ConfList {
		if c == cat {
			return true
		}
	}
	return false
}

// Validate checks every option that can be judged without scan data. All
// failures are *core.ConfigurationError.
func (cfg Config) Validate() error {
	if cfg.TR < 0 {
		return core.Configf("tr", "must be >= 0, got %v", cfg.TR)
	}
	if cfg.Highpass != nil && !(*cfg.Highpass > 0) {
		return core.Configf("highpass", "must be > 0 Hz, got %v", *cfg.Highpass)
	}
	if cfg.Lowpass != nil && !(*cfg.Lowpass > 0) {
		return core.Configf("lowpass", "must be > 0 Hz, got %v", *cfg.Lowpass)
	}
	if cfg.Highpass != nil && cfg.Lowpass != nil && *cfg.Highpass >= *cfg.Lowpass {
		return core.Configf("highpass", "%v Hz must be below lowpass %v Hz", *cfg.Highpass, *cfg.Lowpass)
	}
	if cfg.EdgeCutoff < 0 {
		return core.Configf("edge_cutoff", "must be >= 0 s, got %v", cfg.EdgeCutoff)
	}
	if cfg.SmoothingFilter != nil && !(*cfg.SmoothingFilter > 0) {
		return core.Configf("smoothing_filter", "must be > 0 mm, got %v", *cfg.SmoothingFilter)
	}
	seen := map[core.Category]struct{}{}
	for _, c := range cfg.ConfList {
		if _, err := core.ParseCategory(string(c)); err != nil {
			return err
		}
		if _, ok := seen[c]; ok {
			return core.Configf("conf_list", "category %q listed twice", c)
		}
		seen[c] = struct{}{}
	}
	if cfg.FDCensoring && !(cfg.FDThreshold > 0) {
		return core.Configf("FD_threshold", "must be > 0 mm, got %v", cfg.FDThreshold)
	}
	if cfg.MinimumTimepoint < 1 {
		return core.Configf("minimum_timepoint", "must be >= 1, got %d", cfg.MinimumTimepoint)
	}
	if err := cfg.TimeseriesInterval.validate(); err != nil {
		return err
	}
	if !(cfg.HeadRadiusMM > 0) {
		return core.Configf("head_radius_mm", "must be > 0, got %v", cfg.HeadRadiusMM)
	}
	if cfg.FilterOrder < 1 {
		return core.Configf("filter_order", "must be >= 1, got %d", cfg.FilterOrder)
	}
	if !(cfg.DVARSThresholdSD > 0) {
		return core.Configf("dvars_threshold_sd", "must be > 0, got %v", cfg.DVARSThresholdSD)
	}
	if cfg.ColumnWorkers < 0 {
		return core.Configf("column_workers", "must be >= 0, got %d", cfg.ColumnWorkers)
	}
	return nil
}

// Load reads a JSON config file on top of the defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes JSON on top of the defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Interval is a [Start, End) frame range. The zero value keeps every frame.
type Interval struct {
	Start int
	End   int
}

// All reports whether the interval keeps every frame.
func (iv Interval) All() bool { return iv == Interval{} }

// String renders the interval the way ParseInterval reads it.
func (iv Interval) String() string {
	if iv.All() {
		return "all"
	}
	return strconv.Itoa(iv.Start) + "," + strconv.Itoa(iv.End)
}

// Bounds clamps the interval to a series of n frames.
func (iv Interval) Bounds(n int) (start, end int, err error) {
	if iv.All() {
		return 0, n, nil
	}
	if iv.Start >= n {
		return 0, 0, core.Configf("timeseries_interval", "start %d beyond %d frames", iv.Start, n)
	}
	return iv.Start, min(iv.End, n), nil
}

func (iv Interval) validate() error {
	if iv.All() {
		return nil
	}
	if iv.Start < 0 || iv.End <= iv.Start {
		return core.Configf("timeseries_interval", "invalid range %d,%d", iv.Start, iv.End)
	}
	return nil
}

// ParseInterval reads "start,end" or "all".
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return Interval{}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Interval{}, core.Configf("timeseries_interval", "want \"start,end\" or \"all\", got %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Interval{}, core.Configf("timeseries_interval", "bad start %q", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Interval{}, core.Configf("timeseries_interval", "bad end %q", parts[1])
	}

	if start < 0 || end <= start {
		return Interval{}, core.Configf("timeseries_interval", "invalid range %d,%d", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// MarshalJSON encodes the interval as its string form.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(iv.String())
}

// UnmarshalJSON accepts "start,end" or "all".
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "timeseries_interval must be a string")
	}
	parsed, err := ParseInterval(s)
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}
