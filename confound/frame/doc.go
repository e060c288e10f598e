// Package frame computes per-frame quality metrics of a scan and the
// censor mask built from them.
//
// Framewise displacement follows Power et al. (2012): the sum of absolute
// frame-to-frame changes of the six rigid-body parameters, with rotations
// (radians) converted to arc length on a sphere of HeadRadiusMM. DVARS is
// the RMS across columns of the frame-to-frame difference of the detrended
// signal.
package frame
