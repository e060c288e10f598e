// Package spectrum provides spectral estimation for irregularly sampled
// series.
//
// [LombScargle] fits a least-squares sinusoid at each trial frequency to
// samples taken at arbitrary times, which makes it usable on series with
// dropped (censored) frames where an FFT would require an even grid. The
// fitted amplitudes double as a sinusoid model that can be evaluated on any
// time grid with [Periodogram.Reconstruct] or, for many series sharing the
// same sample times, with a precomputed [Basis] and [Grid].
package spectrum
