package regress

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ACompCorVariance is the cumulative explained-variance fraction the kept
// components must reach.
const ACompCorVariance = 0.5

// ErrNoTissueVariance is returned when the tissue voxels carry no variance.
var ErrNoTissueVariance = errors.New("tissue voxels have no variance")

// ACompCorName returns the regressor name of component k (0-based).
func ACompCorName(k int) string {
	return fmt.Sprintf("aCompCor%d", k+1)
}

// ACompCor runs a PCA over the frame-major tissue voxel matrix (combined WM
// and CSF masks) and returns, column-major, the scores of the smallest
// number of leading components whose cumulative explained variance reaches
// ACompCorVariance, together with each kept component's variance fraction.
func ACompCor(tissue [][]float64) (scores [][]float64, explained []float64, err error) {
	frames := len(tissue)
	if frames < 2 || len(tissue[0]) == 0 {
		return nil, nil, errors.Errorf("aCompCor needs at least 2 frames and 1 voxel, got %d frames", frames)
	}
	voxels := len(tissue[0])

	centered := mat.NewDense(frames, voxels, nil)
	for j := 0; j < voxels; j++ {
		var mean float64
		for t := 0; t < frames; t++ {
			if len(tissue[t]) != voxels {
				return nil, nil, errors.Errorf("tissue frame %d has %d voxels, want %d", t, len(tissue[t]), voxels)
			}
			mean += tissue[t][j]
		}
		mean /= float64(frames)
		for t := 0; t < frames; t++ {
			centered.Set(t, j, tissue[t][j]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, nil, errors.New("aCompCor decomposition failed")
	}
	vars := pc.VarsTo(nil)

	var total float64
	for _, v := range vars {
		total += v
	}
	if total <= 0 {
		return nil, nil, ErrNoTissueVariance
	}

	keep := 0
	var cum float64
	for keep < len(vars) {
		cum += vars[keep] / total
		explained = append(explained, vars[keep]/total)
		keep++
		if cum >= ACompCorVariance {
			break
		}
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, voxels, 0, keep))

	scores = make([][]float64, keep)
	for k := range scores {
		scores[k] = mat.Col(nil, k, &proj)
	}
	return scores, explained, nil
}
