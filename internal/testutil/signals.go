package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave sampled at
// sampleRate (1/TR for fMRI series).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp generates offset + slope*i for i in [0, length).
func Ramp(offset, slope float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = offset + slope*float64(i)
	}
	return out
}

// Add returns the element-wise sum of equally long signals.
func Add(signals ...[]float64) []float64 {
	if len(signals) == 0 {
		return nil
	}
	out := make([]float64, len(signals[0]))
	for _, s := range signals {
		for i, v := range s {
			out[i] += v
		}
	}
	return out
}

// Frames assembles column vectors into a frame-major matrix,
// out[frame][column].
func Frames(columns ...[]float64) [][]float64 {
	if len(columns) == 0 {
		return nil
	}
	out := make([][]float64, len(columns[0]))
	for t := range out {
		out[t] = make([]float64, len(columns))
		for j, c := range columns {
			out[t][j] = c[t]
		}
	}
	return out
}
