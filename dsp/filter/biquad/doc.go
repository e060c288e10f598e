// Package biquad runs cascades of second-order IIR sections.
//
// [Section] processes one set of [Coefficients] in Direct Form II
// Transposed; [Chain] cascades sections with an overall gain. [FiltFilt]
// filters a whole series forward and then backward for a zero-phase result,
// starting each pass from the steady state of its first sample.
//
// Coefficient design lives in dsp/filter/design/pass.
package biquad
