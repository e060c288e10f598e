package pass

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-confound/dsp/filter/biquad"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// magChain is the single-pass magnitude of c at freq Hz.
func magChain(c *biquad.Chain, freq, fs float64) float64 {
	return cmplx.Abs(c.Response(freq, fs))
}

func assertFiniteCoefficients(t *testing.T, c biquad.Coefficients) {
	t.Helper()
	for i, v := range [5]float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("coefficient %d is %v in %#v", i, v, c)
		}
	}
}

// assertStableSection fails unless both poles of z² + A1·z + A2 lie inside
// the unit circle. First-order sections have A2 = 0 and a pole at 0.
func assertStableSection(t *testing.T, c biquad.Coefficients) {
	t.Helper()
	root := cmplx.Sqrt(complex(c.A1*c.A1-4*c.A2, 0))
	for _, p := range []complex128{(complex(-c.A1, 0) + root) / 2, (complex(-c.A1, 0) - root) / 2} {
		if cmplx.Abs(p) >= 1 {
			t.Fatalf("pole %v outside the unit circle for %#v", p, c)
		}
	}
}
