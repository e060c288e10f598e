// Package inputs reads scans from disk: NIfTI-1 images into voxelwise
// timeseries and confound tables into motion parameters and regressors.
package inputs

import (
	"os"

	"github.com/henghuang/nifti"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
)

// volume is the part of a loaded image the loaders read.
type volume interface {
	Dims() [4]int
	At(x, y, z, t int) float64
	VoxelSize() [3]float64
	TR() float64
}

type niftiVolume struct {
	img    nifti.Nifti1Image
	header nifti.Nifti1Header
}

func (v *niftiVolume) Dims() [4]int {
	d := v.img.GetDims()
	out := [4]int{1, 1, 1, 1}
	for i := 0; i < len(d) && i < 4; i++ {
		if d[i] > 0 {
			out[i] = int(d[i])
		}
	}
	return out
}

func (v *niftiVolume) At(x, y, z, t int) float64 {
	return float64(v.img.GetAt(x, y, z, t))
}

func (v *niftiVolume) VoxelSize() [3]float64 {
	return [3]float64{float64(v.header.Pixdim[1]), float64(v.header.Pixdim[2]), float64(v.header.Pixdim[3])}
}

func (v *niftiVolume) TR() float64 {
	return float64(v.header.Pixdim[4])
}

// openNifti loads path, turning the library's panics into errors.
func openNifti(path string) (v *niftiVolume, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("unable to read %s: %v", path, rec)
		}
	}()

	v = &niftiVolume{}
	v.img.LoadImage(path, true)
	v.header.LoadHeader(path)
	return v, nil
}

// LoadNifti reads the 4-D image at path and keeps the voxels inside the
// 3-D mask at maskPath as columns of a voxelwise Timeseries. The TR comes
// from pixdim[4], the voxel size from pixdim[1..3].
func LoadNifti(path, maskPath string) (*core.Timeseries, error) {
	mask, err := LoadMask(maskPath)
	if err != nil {
		return nil, err
	}
	img, err := openNifti(path)
	if err != nil {
		return nil, err
	}
	ts, err := fromVolume(img, mask)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	ts.Meta = map[string]string{"source": path, "mask": maskPath}
	return ts, nil
}

// Mask is a boolean brain mask on a voxel grid.
type Mask struct {
	Dims      [3]int
	VoxelSize [3]float64
	// In holds the linear indexes x + Dims[0]*(y + Dims[1]*z) of the
	// voxels inside the mask, ascending.
	In []int
}

// LoadMask reads a 3-D mask image; every non-zero voxel is inside.
func LoadMask(path string) (*Mask, error) {
	v, err := openNifti(path)
	if err != nil {
		return nil, err
	}
	return maskFromVolume(v), nil
}

func maskFromVolume(v volume) *Mask {
	d := v.Dims()
	m := &Mask{Dims: [3]int{d[0], d[1], d[2]}, VoxelSize: v.VoxelSize()}
	for z := 0; z < d[2]; z++ {
		for y := 0; y < d[1]; y++ {
			for x := 0; x < d[0]; x++ {
				if v.At(x, y, z, 0) != 0 {
					m.In = append(m.In, x+d[0]*(y+d[1]*z))
				}
			}
		}
	}
	return m
}

func fromVolume(v volume, mask *Mask) (*core.Timeseries, error) {
	d := v.Dims()
	if [3]int{d[0], d[1], d[2]} != mask.Dims {
		return nil, errors.Errorf("image grid %v does not match mask grid %v", d[:3], mask.Dims)
	}
	if len(mask.In) == 0 {
		return nil, errors.New("mask is empty")
	}

	grid := &core.SpatialGrid{Dims: mask.Dims, VoxelSize: v.VoxelSize(), Index: append([]int(nil), mask.In...)}
	data := make([][]float64, d[3])
	for t := range data {
		row := make([]float64, len(mask.In))
		for j, idx := range mask.In {
			x, y, z := grid.Coord(idx)
			row[j] = v.At(x, y, z, t)
		}
		data[t] = row
	}

	ts, err := core.NewTimeseries(data, v.TR(), core.Voxelwise)
	if err != nil {
		return nil, err
	}
	ts.Grid = grid
	return ts, nil
}

// Tissue returns the frame-major timeseries of the voxels of ts inside
// mask, for aCompCor. ts must be voxelwise on the mask's grid.
func Tissue(ts *core.Timeseries, mask *Mask) ([][]float64, error) {
	if ts.Grid == nil || ts.Grid.Dims != mask.Dims {
		return nil, errors.New("timeseries and tissue mask grids differ")
	}
	col := make(map[int]int, len(ts.Grid.Index))
	for j, idx := range ts.Grid.Index {
		col[idx] = j
	}
	var cols []int
	for _, idx := range mask.In {
		if j, ok := col[idx]; ok {
			cols = append(cols, j)
		}
	}
	if len(cols) == 0 {
		return nil, errors.New("no tissue voxels inside the brain mask")
	}

	out := make([][]float64, ts.FrameCount())
	for t, row := range ts.Data {
		out[t] = make([]float64, len(cols))
		for k, j := range cols {
			out[t][k] = row[j]
		}
	}
	return out, nil
}

// TissueUnion merges masks on the same grid.
func TissueUnion(masks ...*Mask) (*Mask, error) {
	if len(masks) == 0 {
		return nil, errors.New("no masks")
	}
	out := &Mask{Dims: masks[0].Dims, VoxelSize: masks[0].VoxelSize}
	n := masks[0].Dims[0] * masks[0].Dims[1] * masks[0].Dims[2]
	in := make([]bool, n)
	for _, m := range masks {
		if m.Dims != out.Dims {
			return nil, errors.Errorf("mask grid %v differs from %v", m.Dims, out.Dims)
		}
		for _, idx := range m.In {
			in[idx] = true
		}
	}
	for idx, ok := range in {
		if ok {
			out.In = append(out.In, idx)
		}
	}
	return out, nil
}
