// Package time provides time-domain statistics for per-column timeseries:
// summary moments, RMS, and least-squares linear trends over frame index.
package time

import "math"

// Stats holds time-domain statistics of one series.
type Stats struct {
	Length   int
	Mean     float64
	Variance float64 // population
	Std      float64 // population
	RMS      float64
	Max      float64
	MaxPos   int
	Min      float64
	MinPos   int
	Energy   float64 // sum of squares
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the variance.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{}
	}

	var (
		mean   float64
		m2     float64
		sumSq  float64
		maxVal = signal[0]
		maxPos int
		minVal = signal[0]
		minPos int
	)

	for i, x := range signal {
		ni := float64(i + 1)
		delta := x - mean
		mean += delta / ni
		m2 += delta * (x - mean)

		sumSq += x * x

		if x > maxVal {
			maxVal = x
			maxPos = i
		}
		if x < minVal {
			minVal = x
			minPos = i
		}
	}

	nf := float64(n)
	variance := m2 / nf

	return Stats{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		Std:      math.Sqrt(variance),
		RMS:      math.Sqrt(sumSq / nf),
		Max:      maxVal,
		MaxPos:   maxPos,
		Min:      minVal,
		MinPos:   minPos,
		Energy:   sumSq,
	}
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Mean returns the arithmetic mean of the signal.
func Mean(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// MeanStd returns the mean and population standard deviation of the signal.
func MeanStd(signal []float64) (mean, std float64) {
	s := Calculate(signal)
	return s.Mean, s.Std
}

// LinearTrend fits value = intercept + slope*i by ordinary least squares over
// the sample index i = 0..n-1. A single sample yields slope 0.
func LinearTrend(signal []float64) (intercept, slope float64) {
	n := len(signal)
	switch n {
	case 0:
		return 0, 0
	case 1:
		return signal[0], 0
	}

	// Centred index keeps the normal equations diagonal.
	tMean := float64(n-1) / 2
	yMean := Mean(signal)

	var sxy, sxx float64
	for i, y := range signal {
		dt := float64(i) - tMean
		sxy += dt * (y - yMean)
		sxx += dt * dt
	}

	slope = sxy / sxx
	return yMean - slope*tMean, slope
}

// Detrend returns signal with its least-squares line removed.
func Detrend(signal []float64) []float64 {
	out := make([]float64, len(signal))
	DetrendTo(out, signal)
	return out
}

// DetrendTo writes the linearly detrended signal to dst, which must have the
// same length as signal. dst may alias signal.
func DetrendTo(dst, signal []float64) {
	a, b := LinearTrend(signal)
	for i, y := range signal {
		dst[i] = y - (a + b*float64(i))
	}
}

// Diff returns the backward difference of signal with a leading zero, so
// the result has the same length as the input.
func Diff(signal []float64) []float64 {
	out := make([]float64, len(signal))
	for i := 1; i < len(signal); i++ {
		out[i] = signal[i] - signal[i-1]
	}
	return out
}
