// Package smooth applies spatial Gaussian smoothing to voxelwise timeseries.
//
// Smoothing is the last stage of confound correction. The Smoother
// interface is the boundary to any image smoother; Gaussian is the default
// one, a separable 3-D kernel over the volume the column grid describes.
package smooth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/dsp/conv"
	"github.com/cwbudde/algo-confound/internal/workers"
)

// Truncate is the kernel radius in standard deviations.
const Truncate = 4.0

// Smoother smooths every frame of a voxelwise timeseries with a kernel of
// the given full width at half maximum in millimetres.
type Smoother interface {
	Smooth(ctx context.Context, ts *core.Timeseries, fwhmMM float64) (*core.Timeseries, error)
}

// Validate reports whether ts can be smoothed at fwhmMM.
func Validate(ts *core.Timeseries, fwhmMM float64) error {
	if !(fwhmMM > 0) {
		return core.Configf("smoothing_filter", "FWHM must be > 0 mm, got %v", fwhmMM)
	}
	if ts.Kind != core.Voxelwise {
		return core.Configf("smoothing_filter", "spatial smoothing needs voxelwise data, got %s", ts.Kind)
	}
	if ts.Grid == nil {
		return core.Configf("smoothing_filter", "spatial smoothing needs a voxel grid")
	}
	if err := ts.Grid.Validate(ts.ColumnCount()); err != nil {
		return core.Configf("smoothing_filter", "%v", err)
	}
	return nil
}

// Gaussian is the default Smoother. Voxels outside the column set are zero,
// as they are in a masked image.
type Gaussian struct {
	// Workers bounds frame parallelism (0 means GOMAXPROCS).
	Workers int
}

// Kernels returns the per-axis kernels for fwhmMM on grid g.
func Kernels(g *core.SpatialGrid, fwhmMM float64) ([3][]float64, error) {
	var ks [3][]float64
	sigmaMM := conv.FWHMToSigma(fwhmMM)
	for axis := range ks {
		k, err := conv.GaussianKernel(sigmaMM/g.VoxelSize[axis], Truncate)
		if err != nil {
			return ks, errors.Wrapf(err, "axis %d kernel", axis)
		}
		ks[axis] = k
	}
	return ks, nil
}

// Smooth implements Smoother.
func (s Gaussian) Smooth(ctx context.Context, ts *core.Timeseries, fwhmMM float64) (*core.Timeseries, error) {
	if err := Validate(ts, fwhmMM); err != nil {
		return nil, err
	}
	kernels, err := Kernels(ts.Grid, fwhmMM)
	if err != nil {
		return nil, err
	}

	out := ts.Clone()
	g := ts.Grid
	err = workers.ForEach(ctx, ts.FrameCount(), s.Workers, func(_ context.Context, t int) error {
		vol := make([]float64, g.Voxels())
		for j, idx := range g.Index {
			vol[idx] = ts.Data[t][j]
		}
		for axis, k := range kernels {
			if err := convolveAxis(vol, g.Dims, axis, k); err != nil {
				return err
			}
		}
		for j, idx := range g.Index {
			out.Data[t][j] = vol[idx]
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "smooth frames")
	}
	return out, nil
}

// convolveAxis filters every line of vol along axis in place.
func convolveAxis(vol []float64, dims [3]int, axis int, kernel []float64) error {
	if len(kernel) == 1 {
		return nil
	}
	stride := 1
	for a := 0; a < axis; a++ {
		stride *= dims[a]
	}
	n := dims[axis]
	line := make([]float64, n)

	for base := range vol {
		// A line starts at every voxel whose coordinate along axis is 0.
		if (base/stride)%n != 0 {
			continue
		}
		for i := range line {
			line[i] = vol[base+i*stride]
		}
		y, err := conv.ConvolveMode(line, kernel, conv.ModeSame)
		if err != nil {
			return err
		}
		for i, v := range y {
			vol[base+i*stride] = v
		}
	}
	return nil
}
