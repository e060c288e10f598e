package conv

import (
	"errors"
	"math"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput     = errors.New("conv: empty input")
	ErrEmptyKernel    = errors.New("conv: empty kernel")
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
	ErrInvalidSigma   = errors.New("conv: sigma must be positive and finite")
)

// Mode specifies the output mode for convolution.
type Mode int

const (
	// ModeFull returns the full convolution result with length len(a)+len(b)-1.
	ModeFull Mode = iota

	// ModeSame returns output with the same length as the first input.
	ModeSame

	// ModeValid returns only the portion where signals fully overlap,
	// with length max(len(a), len(b)) - min(len(a), len(b)) + 1.
	ModeValid
)

// Direct performs direct linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	if err := DirectTo(result, a, b); err != nil {
		return nil, err
	}
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length len(a) + len(b) - 1.
func DirectTo(dst, a, b []float64) error {
	n, m := len(a), len(b)
	if n == 0 {
		return ErrEmptyInput
	}
	if m == 0 {
		return ErrEmptyKernel
	}
	if len(dst) != n+m-1 {
		return ErrLengthMismatch
	}

	clear(dst)
	for i, x := range a {
		if x == 0 {
			continue
		}
		out := dst[i : i+m]
		for j, k := range b {
			out[j] += x * k
		}
	}
	return nil
}

// ConvolveMode performs convolution with specified output mode.
func ConvolveMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := Direct(a, b)
	if err != nil {
		return nil, err
	}

	return trimToMode(full, len(a), len(b), mode), nil
}

// trimToMode extracts the appropriate portion of a full convolution result.
func trimToMode(full []float64, lenA, lenB int, mode Mode) []float64 {
	switch mode {
	case ModeSame:
		start := (lenB - 1) / 2
		return full[start : start+lenA]
	case ModeValid:
		if lenA >= lenB {
			return full[lenB-1 : lenA]
		}
		return full[lenA-1 : lenB]
	default:
		return full
	}
}

// GaussianKernel returns a unit-sum, odd-length Gaussian kernel with standard
// deviation sigma (in samples), truncated at truncate standard deviations.
func GaussianKernel(sigma, truncate float64) ([]float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, ErrInvalidSigma
	}
	if truncate <= 0 {
		truncate = 4
	}

	radius := int(truncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)

	var sum float64
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k, nil
}

// FWHMToSigma converts a full width at half maximum to a Gaussian standard
// deviation in the same unit.
func FWHMToSigma(fwhm float64) float64 {
	return fwhm / math.Sqrt(8*math.Ln2)
}
