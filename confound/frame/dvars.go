package frame

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// DVARS returns, per frame, the RMS across columns of the difference to the
// previous frame. DVARS[0] is 0. data is frame-major.
func DVARS(data [][]float64) []float64 {
	out := make([]float64, len(data))
	for t := 1; t < len(data); t++ {
		cur, prev := data[t], data[t-1]
		if len(cur) == 0 {
			continue
		}
		var sum float64
		for j := range cur {
			d := cur[j] - prev[j]
			sum += d * d
		}
		out[t] = math.Sqrt(sum / float64(len(cur)))
	}
	return out
}

// DVARSMask iteratively flags outliers of dvars[1:]: values further than sd
// population standard deviations from the mean of the values not flagged so
// far. It repeats until a pass flags nothing and returns every frame ever
// flagged with the number of passes run. Each pass either flags a frame or
// stops, so the loop ends within len(dvars) passes.
func DVARSMask(dvars []float64, sd float64) (flagged []bool, passes int, err error) {
	flagged = make([]bool, len(dvars))
	if len(dvars) < 3 {
		return flagged, 0, nil
	}

	for passes < len(dvars) {
		passes++

		var kept stats.Float64Data
		for t := 1; t < len(dvars); t++ {
			if !flagged[t] {
				kept = append(kept, dvars[t])
			}
		}
		if len(kept) < 2 {
			break
		}

		mean, err := stats.Mean(kept)
		if err != nil {
			return nil, passes, errors.Wrap(err, "dvars mean")
		}
		std, err := stats.StandardDeviationPopulation(kept)
		if err != nil {
			return nil, passes, errors.Wrap(err, "dvars std")
		}
		if std == 0 {
			break
		}

		changed := false
		for t := 1; t < len(dvars); t++ {
			if !flagged[t] && math.Abs(dvars[t]-mean) > sd*std {
				flagged[t] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return flagged, passes, nil
}
