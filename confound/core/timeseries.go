package core

import (
	"github.com/pkg/errors"
)

// Kind distinguishes voxel-level from region-level data.
type Kind int

const (
	Voxelwise Kind = iota
	ROI
)

func (k Kind) String() string {
	switch k {
	case Voxelwise:
		return "voxelwise"
	case ROI:
		return "roi"
	default:
		return "unknown"
	}
}

// SpatialGrid places the columns of a voxelwise Timeseries in a 3-D volume.
type SpatialGrid struct {
	Dims      [3]int
	VoxelSize [3]float64 // mm
	// Index holds, per column, the linear voxel index x + Dims[0]*(y + Dims[1]*z).
	Index []int
}

// Voxels returns the number of voxels in the full volume.
func (g *SpatialGrid) Voxels() int {
	return g.Dims[0] * g.Dims[1] * g.Dims[2]
}

// Linear returns the linear index of voxel (x, y, z).
func (g *SpatialGrid) Linear(x, y, z int) int {
	return x + g.Dims[0]*(y+g.Dims[1]*z)
}

// Coord is the inverse of Linear.
func (g *SpatialGrid) Coord(idx int) (x, y, z int) {
	x = idx % g.Dims[0]
	idx /= g.Dims[0]
	y = idx % g.Dims[1]
	z = idx / g.Dims[1]
	return x, y, z
}

// Validate checks the grid against a column count.
func (g *SpatialGrid) Validate(columns int) error {
	for i, d := range g.Dims {
		if d <= 0 {
			return errors.Errorf("grid dimension %d is %d", i, d)
		}
		if g.VoxelSize[i] <= 0 {
			return errors.Errorf("grid voxel size %d is %v", i, g.VoxelSize[i])
		}
	}
	if len(g.Index) != columns {
		return errors.Errorf("grid indexes %d columns, timeseries has %d", len(g.Index), columns)
	}
	n := g.Voxels()
	for j, idx := range g.Index {
		if idx < 0 || idx >= n {
			return errors.Errorf("grid index %d of column %d out of range", idx, j)
		}
	}
	return nil
}

func (g *SpatialGrid) clone() *SpatialGrid {
	if g == nil {
		return nil
	}
	c := *g
	c.Index = append([]int(nil), g.Index...)
	return &c
}

// Timeseries is a frame-major matrix, Data[frame][column], sampled every TR
// seconds. A TR of 0 means the sampling interval is unknown.
type Timeseries struct {
	Data [][]float64
	TR   float64
	Kind Kind
	Grid *SpatialGrid
	Meta map[string]string
}

// NewTimeseries checks that data is rectangular and wraps it.
func NewTimeseries(data [][]float64, tr float64, kind Kind) (*Timeseries, error) {
	ts := &Timeseries{Data: data, TR: tr, Kind: kind}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

// FromColumns builds a Timeseries from column-major data.
func FromColumns(cols [][]float64, tr float64, kind Kind) (*Timeseries, error) {
	frames := 0
	if len(cols) > 0 {
		frames = len(cols[0])
	}
	data := make([][]float64, frames)
	for t := range data {
		data[t] = make([]float64, len(cols))
	}
	for j, c := range cols {
		if len(c) != frames {
			return nil, errors.Errorf("column %d has %d frames, want %d", j, len(c), frames)
		}
		for t, v := range c {
			data[t][j] = v
		}
	}
	return &Timeseries{Data: data, TR: tr, Kind: kind}, nil
}

// Validate checks that every frame has the same number of columns.
func (ts *Timeseries) Validate() error {
	if ts.TR < 0 {
		return errors.Errorf("negative TR %v", ts.TR)
	}
	cols := ts.ColumnCount()
	for t, row := range ts.Data {
		if len(row) != cols {
			return errors.Errorf("frame %d has %d columns, want %d", t, len(row), cols)
		}
	}
	if ts.Grid != nil {
		if err := ts.Grid.Validate(cols); err != nil {
			return err
		}
	}
	return nil
}

// FrameCount returns the number of frames.
func (ts *Timeseries) FrameCount() int { return len(ts.Data) }

// ColumnCount returns the number of columns (voxels or regions).
func (ts *Timeseries) ColumnCount() int {
	if len(ts.Data) == 0 {
		return 0
	}
	return len(ts.Data[0])
}

// Column returns a copy of column j.
func (ts *Timeseries) Column(j int) []float64 {
	out := make([]float64, len(ts.Data))
	for t, row := range ts.Data {
		out[t] = row[j]
	}
	return out
}

// SetColumn overwrites column j with v, which must have FrameCount values.
func (ts *Timeseries) SetColumn(j int, v []float64) {
	for t, row := range ts.Data {
		row[j] = v[t]
	}
}

// Columns returns the data in column-major order.
func (ts *Timeseries) Columns() [][]float64 {
	cols := make([][]float64, ts.ColumnCount())
	for j := range cols {
		cols[j] = ts.Column(j)
	}
	return cols
}

// WithColumns returns a copy of ts carrying the column-major data cols.
func (ts *Timeseries) WithColumns(cols [][]float64) (*Timeseries, error) {
	out, err := FromColumns(cols, ts.TR, ts.Kind)
	if err != nil {
		return nil, err
	}
	out.Grid = ts.Grid.clone()
	out.Meta = cloneMeta(ts.Meta)
	return out, nil
}

// Clone returns a deep copy.
func (ts *Timeseries) Clone() *Timeseries {
	data := make([][]float64, len(ts.Data))
	for t, row := range ts.Data {
		data[t] = append([]float64(nil), row...)
	}
	return &Timeseries{
		Data: data,
		TR:   ts.TR,
		Kind: ts.Kind,
		Grid: ts.Grid.clone(),
		Meta: cloneMeta(ts.Meta),
	}
}

// SelectFrames returns a copy holding only the frames where keep is true.
func (ts *Timeseries) SelectFrames(keep []bool) *Timeseries {
	out := ts.shell()
	for t, row := range ts.Data {
		if keep[t] {
			out.Data = append(out.Data, append([]float64(nil), row...))
		}
	}
	return out
}

// Crop returns a copy holding frames [start, end).
func (ts *Timeseries) Crop(start, end int) *Timeseries {
	out := ts.shell()
	for _, row := range ts.Data[start:end] {
		out.Data = append(out.Data, append([]float64(nil), row...))
	}
	return out
}

// shell copies everything but the samples.
func (ts *Timeseries) shell() *Timeseries {
	return &Timeseries{
		TR:   ts.TR,
		Kind: ts.Kind,
		Grid: ts.Grid.clone(),
		Meta: cloneMeta(ts.Meta),
	}
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
