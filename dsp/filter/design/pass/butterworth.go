// Package pass designs lowpass and highpass filter cascades.
package pass

import "github.com/cwbudde/algo-confound/dsp/filter/biquad"

// ButterworthLP designs a lowpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0). It returns nil
// for a non-positive order or a cutoff outside (0, sampleRate/2).
func ButterworthLP(freq float64, order int, sampleRate float64) []biquad.Coefficients {
	if order <= 0 || !ValidCutoff(freq, sampleRate) {
		return nil
	}
	sections := make([]biquad.Coefficients, 0, (order+1)/2)

	n2 := order / 2
	for i := n2 - 1; i >= 0; i-- {
		q := butterworthQ(order, i)
		sections = append(sections, LowpassRBJ(freq, q, sampleRate))
	}
	if order%2 != 0 {
		sections = append(sections, butterworthFirstOrderLP(freq, sampleRate))
	}
	return sections
}

// ButterworthHP designs a highpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0). It returns nil
// for a non-positive order or a cutoff outside (0, sampleRate/2).
func ButterworthHP(freq float64, order int, sampleRate float64) []biquad.Coefficients {
	if order <= 0 || !ValidCutoff(freq, sampleRate) {
		return nil
	}
	sections := make([]biquad.Coefficients, 0, (order+1)/2)

	n2 := order / 2
	for i := n2 - 1; i >= 0; i-- {
		q := butterworthQ(order, i)
		sections = append(sections, HighpassRBJ(freq, q, sampleRate))
	}
	if order%2 != 0 {
		sections = append(sections, butterworthFirstOrderHP(freq, sampleRate))
	}
	return sections
}
