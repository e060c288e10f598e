// Package pipeline runs confound correction on one scan.
//
// A run walks a fixed state machine:
//
//	Init → MaskBuilt → (Excluded | Detrended → NoiseFolded →
//	  [GapFilled → Orthogonalized → Filtered] → Recensored → Regressed →
//	  Standardized → Smoothed → Done)
//
// The bracketed states run only when a frequency filter is configured.
// Excluded is terminal: a scan with too few retained frames yields no
// cleaned series at all.
package pipeline
