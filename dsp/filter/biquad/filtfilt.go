package biquad

// PadLength returns the number of samples FiltFilt mirrors onto each end of
// a signal for a cascade with the given number of sections, before clamping
// to the signal length.
func PadLength(numSections int) int {
	return 3 * (2*numSections + 1)
}

// FiltFilt applies the cascade forward and then backward over x and returns
// the zero-phase result in a new slice of the same length.
//
// The signal is extended at both ends by odd reflection about its end
// points and each pass starts from the steady state for its first sample,
// which suppresses edge transients the same way scipy's sosfiltfilt does.
// The effective magnitude response is |H(f)|^2 and the phase is zero.
func FiltFilt(coeffs []Coefficients, x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	out := make([]float64, n)
	if len(coeffs) == 0 {
		copy(out, x)
		return out
	}

	pad := PadLength(len(coeffs))
	if pad > n-1 {
		pad = n - 1
	}

	ext := oddExtend(x, pad)
	chain := NewChain(coeffs)

	chain.SetSteadyState(ext[0])
	chain.ProcessBlock(ext)
	reverse(ext)

	chain.Reset()
	chain.SetSteadyState(ext[0])
	chain.ProcessBlock(ext)
	reverse(ext)

	copy(out, ext[pad:pad+n])
	return out
}

// oddExtend returns x with pad samples reflected about x[0] prepended and
// pad samples reflected about x[n-1] appended.
func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)

	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	return ext
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
