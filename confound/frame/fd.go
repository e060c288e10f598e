package frame

import (
	"math"

	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// Motion holds one frame of rigid-body parameters: three translations (mm)
// followed by three rotations (radians).
type Motion = [6]float64

// Censoring window around a frame whose FD exceeds the threshold.
const (
	fdWindowBefore = 1
	fdWindowAfter  = 2
)

// FramewiseDisplacement returns FD per frame. FD[0] is 0.
func FramewiseDisplacement(motion []Motion, headRadiusMM float64) []float64 {
	fd := make([]float64, len(motion))
	for t := 1; t < len(motion); t++ {
		var sum float64
		for k := 0; k < 3; k++ {
			sum += math.Abs(motion[t][k] - motion[t-1][k])
		}
		for k := 3; k < 6; k++ {
			sum += headRadiusMM * math.Abs(motion[t][k]-motion[t-1][k])
		}
		fd[t] = sum
	}
	return fd
}

// FDMask flags every frame with FD above threshold together with the one
// frame before and the two frames after it.
func FDMask(fd []float64, threshold float64) []bool {
	flagged := make([]bool, len(fd))
	for t, v := range fd {
		if v <= threshold {
			continue
		}
		lo := max(t-fdWindowBefore, 0)
		hi := min(t+fdWindowAfter, len(fd)-1)
		for i := lo; i <= hi; i++ {
			flagged[i] = true
		}
	}
	return flagged
}

// MeanFD returns the mean of an FD trace.
func MeanFD(fd []float64) float64 {
	return timestats.Mean(fd)
}
