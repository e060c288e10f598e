package conv

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-confound/internal/testutil"
)

func TestDirect(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected []float64
	}{
		{
			name:     "simple 3x3",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 1, 1},
			expected: []float64{1, 3, 6, 5, 3},
		},
		{
			name:     "impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{1},
			expected: []float64{1, 2, 3, 4, 5},
		},
		{
			name:     "delayed impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{0, 0, 1},
			expected: []float64{0, 0, 1, 2, 3, 4, 5},
		},
		{
			name:     "symmetric",
			a:        []float64{1, 2, 1},
			b:        []float64{1, 2, 1},
			expected: []float64{1, 4, 6, 4, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Direct(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.RequireSliceNearlyEqual(t, result, tt.expected, 1e-12)
		})
	}
}

func TestDirectErrors(t *testing.T) {
	if _, err := Direct([]float64{}, []float64{1, 2}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Direct([]float64{1, 2}, []float64{}); !errors.Is(err, ErrEmptyKernel) {
		t.Errorf("expected ErrEmptyKernel, got %v", err)
	}
	if err := DirectTo(make([]float64, 2), []float64{1, 2}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestConvolveMode(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{1, 2, 3}

	full, _ := ConvolveMode(a, b, ModeFull)
	if len(full) != len(a)+len(b)-1 {
		t.Errorf("full mode length: got %d, expected %d", len(full), len(a)+len(b)-1)
	}

	same, _ := ConvolveMode(a, b, ModeSame)
	testutil.RequireSliceNearlyEqual(t, same, []float64{4, 10, 16, 22, 22}, 1e-12)

	valid, _ := ConvolveMode(a, b, ModeValid)
	testutil.RequireSliceNearlyEqual(t, valid, []float64{10, 16, 22}, 1e-12)
}

func TestGaussianKernel(t *testing.T) {
	k, err := GaussianKernel(1.5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(k) != 13 {
		t.Fatalf("kernel length %d, want 13", len(k))
	}

	var sum float64
	for i, v := range k {
		sum += v
		if math.Abs(v-k[len(k)-1-i]) > 1e-15 {
			t.Fatalf("kernel not symmetric at %d", i)
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("kernel sum %v, want 1", sum)
	}
	if k[6] <= k[5] {
		t.Fatal("kernel must peak at its centre")
	}

	if _, err := GaussianKernel(0, 4); !errors.Is(err, ErrInvalidSigma) {
		t.Fatalf("expected ErrInvalidSigma, got %v", err)
	}
}

func TestGaussianKernelPreservesDC(t *testing.T) {
	k, _ := GaussianKernel(2, 4)
	x := testutil.DC(3, 64)
	y, err := ConvolveMode(x, k, ModeValid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, y, testutil.DC(3, len(y)), 1e-12)
}

func TestFWHMToSigma(t *testing.T) {
	// A Gaussian's value at sigma*sqrt(2 ln 2) is half its peak.
	s := FWHMToSigma(6)
	half := math.Exp(-0.5 * 3 * 3 / (s * s))
	if math.Abs(half-0.5) > 1e-12 {
		t.Fatalf("value at half width = %v, want 0.5", half)
	}
}
