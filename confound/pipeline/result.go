package pipeline

import (
	"github.com/cwbudde/algo-confound/confound/bandpass"
	"github.com/cwbudde/algo-confound/confound/core"
)

// State is one step of a scan's run.
type State string

const (
	StateInit           State = "Init"
	StateMaskBuilt      State = "MaskBuilt"
	StateExcluded       State = "Excluded"
	StateDetrended      State = "Detrended"
	StateNoiseFolded    State = "NoiseFolded"
	StateGapFilled      State = "GapFilled"
	StateOrthogonalized State = "Orthogonalized"
	StateFiltered       State = "Filtered"
	StateRecensored     State = "Recensored"
	StateRegressed      State = "Regressed"
	StateStandardized   State = "Standardized"
	StateSmoothed       State = "Smoothed"
	StateDone           State = "Done"
)

// Status is the terminal outcome of a run.
type Status int

const (
	StatusDone Status = iota
	StatusExcluded
)

func (s Status) String() string {
	if s == StatusExcluded {
		return "excluded"
	}
	return "done"
}

// Result is the outcome of one scan.
type Result struct {
	ScanID string
	RunID  string
	Status Status
	// Reason is set when Status is StatusExcluded.
	Reason string
	// Signal is the cleaned series; nil when excluded.
	Signal *core.Timeseries
	// Mask is the final censor mask over the (interval-cropped) input frames.
	Mask *core.FrameCensorMask
	// Frames are the input frame indices present in Signal.
	Frames []int
	// Err wraps core.ErrInsufficientData when the scan was excluded.
	Err         error
	Diagnostics Diagnostics
}

// Excluded reports whether the scan was dropped.
func (r Result) Excluded() bool { return r.Status == StatusExcluded }

// Diagnostics describe what a run did.
type Diagnostics struct {
	OriginalFrames int
	RetainedFrames int // after masking, before the edge trim
	FinalFrames    int
	EdgeFrames     int

	Censored         map[core.CensorRule]int
	CensoredFraction map[core.CensorRule]float64

	FD          []float64
	DVARS       []float64
	DVARSPasses int
	MeanFD      float64

	RegressorsUsed    []string
	RegressorsDropped []string
	Rank              int
	VarianceExplained []float64
	ResidualStd       []float64
	ZeroVariance      []int

	NoiseComponents    int
	ACompCorComponents int
	GapFilled          bool

	// FilterResponse is the passband gain at each configured cutoff.
	FilterResponse []bandpass.Response

	Warnings []string
	States   []State
}

// CensoredTotal returns the number of input frames absent from the output.
func (d Diagnostics) CensoredTotal() int {
	return d.OriginalFrames - d.FinalFrames
}

func (d *Diagnostics) visit(s State) {
	d.States = append(d.States, s)
}

func (d *Diagnostics) recordMask(m *core.FrameCensorMask) {
	d.Censored = make(map[core.CensorRule]int)
	d.CensoredFraction = make(map[core.CensorRule]float64)
	for _, rule := range m.ActiveRules() {
		d.Censored[rule] = m.Count(rule)
		d.CensoredFraction[rule] = m.Fraction(rule)
	}
}
