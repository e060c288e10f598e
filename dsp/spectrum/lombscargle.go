package spectrum

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by the Lomb-Scargle routines.
var (
	ErrEmptyInput          = errors.New("spectrum: empty input")
	ErrLengthMismatch      = errors.New("spectrum: times and values differ in length")
	ErrInsufficientSamples = errors.New("spectrum: need at least two samples spanning a nonzero interval")
	ErrNoFrequencies       = errors.New("spectrum: no trial frequencies")
)

// Periodogram is a Lomb-Scargle fit of one series.
//
// For trial frequency Freqs[k] (Hz) with angular frequency w = 2*pi*Freqs[k],
// the fitted component is
//
//	C[k]*cos(w*(t-Tau[k])) + S[k]*sin(w*(t-Tau[k]))
//
// and the series model is Mean plus the sum of all components.
type Periodogram struct {
	Freqs []float64
	Tau   []float64
	C     []float64
	S     []float64
	// Power is the normalized Lomb-Scargle power at each frequency,
	// 0.5*(Σx·cos)²/Σcos² + 0.5*(Σx·sin)²/Σsin², divided by the sample
	// variance. It is all zero for a constant series.
	Power    []float64
	Mean     float64
	Variance float64
}

// Frequencies returns the trial frequency grid used for a series of n samples
// spanning span seconds: multiples of 1/(span*ofac) starting at 1/(span*ofac)
// and staying below hifac times the average Nyquist frequency n/(2*span).
func Frequencies(span float64, n int, ofac, hifac float64) []float64 {
	if span <= 0 || n < 2 || ofac <= 0 || hifac <= 0 {
		return nil
	}

	step := 1 / (span * ofac)
	fmax := hifac * float64(n) / (2 * span)

	count := int(math.Ceil(fmax/step - 1 - 1e-9))
	if count <= 0 {
		return nil
	}

	freqs := make([]float64, count)
	for k := range freqs {
		freqs[k] = step * float64(k+1)
	}
	return freqs
}

// Basis caches the trigonometric terms of a set of sample times and trial
// frequencies, so that many series observed at the same times can be fitted
// without recomputing them.
type Basis struct {
	freqs []float64
	tau   []float64
	cosT  [][]float64 // [freq][sample]
	sinT  [][]float64
	cc    []float64 // Σcos² per frequency
	ss    []float64 // Σsin² per frequency
	n     int
}

// NewBasis precomputes the Lomb-Scargle terms for the given sample times
// (seconds) and trial frequencies (Hz).
func NewBasis(times, freqs []float64) (*Basis, error) {
	if len(times) == 0 {
		return nil, ErrEmptyInput
	}
	if len(freqs) == 0 {
		return nil, ErrNoFrequencies
	}
	if len(times) < 2 || span(times) == 0 {
		return nil, ErrInsufficientSamples
	}

	b := &Basis{
		freqs: append([]float64(nil), freqs...),
		tau:   make([]float64, len(freqs)),
		cosT:  make([][]float64, len(freqs)),
		sinT:  make([][]float64, len(freqs)),
		cc:    make([]float64, len(freqs)),
		ss:    make([]float64, len(freqs)),
		n:     len(times),
	}

	for k, f := range freqs {
		w := 2 * math.Pi * f

		var s2, c2 float64
		for _, t := range times {
			s2 += math.Sin(2 * w * t)
			c2 += math.Cos(2 * w * t)
		}
		tau := math.Atan2(s2, c2) / (2 * w)
		b.tau[k] = tau

		cosK := make([]float64, len(times))
		sinK := make([]float64, len(times))
		var cc, ss float64
		for i, t := range times {
			c := math.Cos(w * (t - tau))
			s := math.Sin(w * (t - tau))
			cosK[i] = c
			sinK[i] = s
			cc += c * c
			ss += s * s
		}
		b.cosT[k] = cosK
		b.sinT[k] = sinK
		b.cc[k] = cc
		b.ss[k] = ss
	}

	return b, nil
}

// Freqs returns the trial frequencies of the basis.
func (b *Basis) Freqs() []float64 { return b.freqs }

// Fit computes the Lomb-Scargle periodogram of x, sampled at the times the
// basis was built for.
func (b *Basis) Fit(x []float64) (*Periodogram, error) {
	return b.fit(x, true)
}

// Coefficients projects x onto the basis without computing power. The
// returned Periodogram has a nil Power and is meant for Grid.Eval.
func (b *Basis) Coefficients(x []float64) (*Periodogram, error) {
	return b.fit(x, false)
}

func (b *Basis) fit(x []float64, power bool) (*Periodogram, error) {
	if len(x) != b.n {
		return nil, ErrLengthMismatch
	}

	mean, variance := meanVariance(x)
	nf := len(b.freqs)
	p := &Periodogram{
		Freqs:    b.freqs,
		Tau:      b.tau,
		C:        make([]float64, nf),
		S:        make([]float64, nf),
		Mean:     mean,
		Variance: variance,
	}

	var re, im []float64
	if power {
		var buf *scratchBuf
		re, im, buf = getScratch(nf)
		defer putScratch(buf)
	}

	for k := 0; k < nf; k++ {
		var xc, xs float64
		cosK, sinK := b.cosT[k], b.sinT[k]
		for i, v := range x {
			d := v - mean
			xc += d * cosK[i]
			xs += d * sinK[i]
		}

		if b.cc[k] > 0 {
			p.C[k] = xc / b.cc[k]
		}
		if b.ss[k] > 0 {
			p.S[k] = xs / b.ss[k]
		}
		if power {
			re[k], im[k] = 0, 0
			if b.cc[k] > 0 {
				re[k] = xc / math.Sqrt(b.cc[k])
			}
			if b.ss[k] > 0 {
				im[k] = xs / math.Sqrt(b.ss[k])
			}
		}
	}

	if !power {
		return p, nil
	}

	p.Power = make([]float64, nf)
	vecmath.Power(p.Power, re, im)
	if variance > 0 {
		norm := 0.5 / variance
		for k := range p.Power {
			p.Power[k] *= norm
		}
	} else {
		clear(p.Power)
	}

	return p, nil
}

// LombScargle computes the periodogram of values x observed at times
// (seconds) for the given trial frequencies (Hz).
func LombScargle(times, x, freqs []float64) (*Periodogram, error) {
	if len(times) != len(x) {
		return nil, ErrLengthMismatch
	}

	b, err := NewBasis(times, freqs)
	if err != nil {
		return nil, err
	}

	return b.Fit(x)
}

// Dominant returns the frequency and power of the strongest component.
// It returns zeros for an empty periodogram.
func (p *Periodogram) Dominant() (freq, power float64) {
	for k, pw := range p.Power {
		if pw > power {
			freq, power = p.Freqs[k], pw
		}
	}
	return freq, power
}

// Reconstruct evaluates the sinusoid model, excluding Mean, at the given
// times.
func (p *Periodogram) Reconstruct(times []float64) []float64 {
	return NewGrid(p.Freqs, p.Tau, times).Eval(p)
}

// Grid caches the trigonometric terms of a periodogram's frequencies and
// phase offsets on an evaluation time grid.
type Grid struct {
	cosT [][]float64 // [freq][time]
	sinT [][]float64
	n    int
}

// NewGrid precomputes model terms for frequencies freqs with phase offsets
// tau at the given evaluation times.
func NewGrid(freqs, tau, times []float64) *Grid {
	g := &Grid{
		cosT: make([][]float64, len(freqs)),
		sinT: make([][]float64, len(freqs)),
		n:    len(times),
	}
	for k, f := range freqs {
		w := 2 * math.Pi * f
		cosK := make([]float64, len(times))
		sinK := make([]float64, len(times))
		for i, t := range times {
			cosK[i] = math.Cos(w * (t - tau[k]))
			sinK[i] = math.Sin(w * (t - tau[k]))
		}
		g.cosT[k] = cosK
		g.sinT[k] = sinK
	}
	return g
}

// Grid returns the evaluation grid for this basis' frequencies at times.
func (b *Basis) Grid(times []float64) *Grid {
	return NewGrid(b.freqs, b.tau, times)
}

// Eval returns the sinusoid model of p, excluding Mean, on the grid. p must
// have been fitted with the frequencies and offsets the grid was built from.
func (g *Grid) Eval(p *Periodogram) []float64 {
	out := make([]float64, g.n)
	for k := range g.cosT {
		c, s := p.C[k], p.S[k]
		if c == 0 && s == 0 {
			continue
		}
		cosK, sinK := g.cosT[k], g.sinT[k]
		for i := range out {
			out[i] += c*cosK[i] + s*sinK[i]
		}
	}
	return out
}

func span(times []float64) float64 {
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	return hi - lo
}

// Span returns max(times) - min(times), or 0 for an empty slice.
func Span(times []float64) float64 {
	if len(times) == 0 {
		return 0
	}
	return span(times)
}

func meanVariance(x []float64) (mean, variance float64) {
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	return mean, variance
}
