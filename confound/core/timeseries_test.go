package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries(t *testing.T) *Timeseries {
	t.Helper()
	ts, err := NewTimeseries([][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
		{4, 40},
	}, 2, ROI)
	require.NoError(t, err)
	ts.Meta = map[string]string{"scan": "sub-01"}
	return ts
}

func TestNewTimeseriesRejectsRagged(t *testing.T) {
	_, err := NewTimeseries([][]float64{{1, 2}, {3}}, 1, ROI)
	assert.Error(t, err)

	_, err = NewTimeseries([][]float64{{1}}, -1, ROI)
	assert.Error(t, err)
}

func TestTimeseriesShape(t *testing.T) {
	ts := sampleSeries(t)
	assert.Equal(t, 4, ts.FrameCount())
	assert.Equal(t, 2, ts.ColumnCount())
	assert.Equal(t, []float64{10, 20, 30, 40}, ts.Column(1))

	empty := &Timeseries{}
	assert.Equal(t, 0, empty.ColumnCount())
}

func TestTimeseriesColumnsRoundTrip(t *testing.T) {
	ts := sampleSeries(t)
	cols := ts.Columns()
	cols[0][0] = 99

	out, err := ts.WithColumns(cols)
	require.NoError(t, err)
	assert.Equal(t, 99.0, out.Data[0][0])
	assert.Equal(t, 1.0, ts.Data[0][0], "source must not change")
	assert.Equal(t, ts.TR, out.TR)
	assert.Equal(t, ts.Meta, out.Meta)
}

func TestFromColumnsRejectsMismatch(t *testing.T) {
	_, err := FromColumns([][]float64{{1, 2}, {1}}, 1, ROI)
	assert.Error(t, err)
}

func TestTimeseriesCloneDoesNotAlias(t *testing.T) {
	ts := sampleSeries(t)
	c := ts.Clone()
	c.Data[0][0] = -1
	c.Meta["scan"] = "other"
	assert.Equal(t, 1.0, ts.Data[0][0])
	assert.Equal(t, "sub-01", ts.Meta["scan"])
}

func TestTimeseriesSelectAndCrop(t *testing.T) {
	ts := sampleSeries(t)

	sel := ts.SelectFrames([]bool{true, false, true, false})
	assert.Equal(t, [][]float64{{1, 10}, {3, 30}}, sel.Data)

	crop := ts.Crop(1, 3)
	assert.Equal(t, [][]float64{{2, 20}, {3, 30}}, crop.Data)
	crop.Data[0][0] = 0
	assert.Equal(t, 2.0, ts.Data[1][0])
}

func TestSpatialGrid(t *testing.T) {
	g := &SpatialGrid{Dims: [3]int{4, 3, 2}, VoxelSize: [3]float64{2, 2, 3}, Index: []int{0, 23}}
	require.NoError(t, g.Validate(2))
	assert.Equal(t, 24, g.Voxels())

	x, y, z := g.Coord(g.Linear(3, 2, 1))
	assert.Equal(t, [3]int{3, 2, 1}, [3]int{x, y, z})

	tests := map[string]struct {
		grid SpatialGrid
		cols int
	}{
		"zero dim":     {grid: SpatialGrid{Dims: [3]int{0, 1, 1}, VoxelSize: [3]float64{1, 1, 1}}, cols: 0},
		"zero voxel":   {grid: SpatialGrid{Dims: [3]int{1, 1, 1}, VoxelSize: [3]float64{1, 0, 1}}, cols: 0},
		"count":        {grid: SpatialGrid{Dims: [3]int{2, 1, 1}, VoxelSize: [3]float64{1, 1, 1}, Index: []int{0}}, cols: 2},
		"out of range": {grid: SpatialGrid{Dims: [3]int{2, 1, 1}, VoxelSize: [3]float64{1, 1, 1}, Index: []int{2}}, cols: 1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, tt.grid.Validate(tt.cols))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "voxelwise", Voxelwise.String())
	assert.Equal(t, "roi", ROI.String())
	assert.Equal(t, "unknown", Kind(7).String())
}
