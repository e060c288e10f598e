// Package censor drops censored frames after filtering and trims the
// filter's edge artifacts from both ends of what remains.
package censor

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
)

// EdgeFrames converts an edge cutoff in seconds to a frame count. Without
// filtering nothing is trimmed.
func EdgeFrames(edgeCutoff, tr float64, filtering bool) int {
	if !filtering || !(tr > 0) || edgeCutoff <= 0 {
		return 0
	}
	return int(math.Round(edgeCutoff / tr))
}

// Result is the re-censored scan.
type Result struct {
	Signal     *core.Timeseries
	Regressors *core.RegressorSet
	// Mask is the input mask with the trimmed frames flagged under
	// core.RuleEdge.
	Mask *core.FrameCensorMask
	// Frames are the original indices of the frames kept.
	Frames []int
}

// Reapply keeps the frames mask retains, minus edgeFrames retained frames
// at each end. When fewer than 2*edgeFrames frames are retained the result
// is empty.
func Reapply(ts *core.Timeseries, set *core.RegressorSet, mask *core.FrameCensorMask, edgeFrames int) (Result, error) {
	n := ts.FrameCount()
	if mask.Len() != n || set.Frames() != n {
		return Result{}, errors.Errorf("mask %d, regressors %d and signal %d frames differ", mask.Len(), set.Frames(), n)
	}
	if edgeFrames < 0 {
		return Result{}, errors.Errorf("negative edge trim %d", edgeFrames)
	}

	final := mask.Clone()
	if edgeFrames > 0 {
		retained := mask.Indices()
		edge := make([]bool, n)
		for i, t := range retained {
			if i < edgeFrames || i >= len(retained)-edgeFrames {
				edge[t] = true
			}
		}
		final.Flag(core.RuleEdge, edge)
	}

	return Result{
		Signal:     ts.SelectFrames(final.Retained),
		Regressors: set.SelectFrames(final.Retained),
		Mask:       final,
		Frames:     final.Indices(),
	}, nil
}
