package pass

import (
	"math"

	"github.com/cwbudde/algo-confound/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// ValidCutoff reports whether freq lies strictly between 0 and the Nyquist
// frequency of sampleRate.
func ValidCutoff(freq, sampleRate float64) bool {
	_, ok := normalizedW0(freq, sampleRate)
	return ok
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// LowpassRBJ designs a second-order lowpass section (RBJ cookbook) at freq
// (Hz) with quality factor q. Invalid parameters yield zero coefficients.
func LowpassRBJ(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2

	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha)
}

// HighpassRBJ designs a second-order highpass section (RBJ cookbook) at freq
// (Hz) with quality factor q. Invalid parameters yield zero coefficients.
func HighpassRBJ(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)

	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha)
}

// butterworthQ returns the quality factor for a Butterworth filter section.
// index ranges from 0 to (order/2 - 1) for the biquad sections.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return defaultQ
	}

	return 1 / (2 * s)
}

// butterworthFirstOrderLP designs a first-order lowpass Butterworth section.
// Used for odd-order filters.
func butterworthFirstOrderLP(freq, sampleRate float64) biquad.Coefficients {
	if _, ok := normalizedW0(freq, sampleRate); !ok {
		return biquad.Coefficients{}
	}

	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad.Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

// butterworthFirstOrderHP designs a first-order highpass Butterworth section.
// Used for odd-order filters.
func butterworthFirstOrderHP(freq, sampleRate float64) biquad.Coefficients {
	if _, ok := normalizedW0(freq, sampleRate); !ok {
		return biquad.Coefficients{}
	}

	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	return biquad.Coefficients{
		B0: norm,
		B1: -norm,
		A1: (k - 1) * norm,
	}
}
