package inputs

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-confound/confound/core"
	"github.com/cwbudde/algo-confound/confound/frame"
)

// confoundRow is one frame of a preprocessing confound table. Values are
// kept as text so that absent columns and blank cells can be told apart
// from zeros.
type confoundRow struct {
	Mov1     string `csv:"mov1"`
	Mov2     string `csv:"mov2"`
	Mov3     string `csv:"mov3"`
	Rot1     string `csv:"rot1"`
	Rot2     string `csv:"rot2"`
	Rot3     string `csv:"rot3"`
	WM       string `csv:"WM_signal"`
	CSF      string `csv:"CSF_signal"`
	Vascular string `csv:"vascular_signal"`
	Global   string `csv:"global_signal"`
}

var motionColumns = []string{"mov1", "mov2", "mov3", "rot1", "rot2", "rot3"}

var tissueColumns = []struct {
	name string
	cat  core.Category
	get  func(*confoundRow) string
}{
	{"WM_signal", core.WMSignal, func(r *confoundRow) string { return r.WM }},
	{"CSF_signal", core.CSFSignal, func(r *confoundRow) string { return r.CSF }},
	{"vascular_signal", core.VascularSignal, func(r *confoundRow) string { return r.Vascular }},
	{"global_signal", core.GlobalSignal, func(r *confoundRow) string { return r.Global }},
}

func (r *confoundRow) motion() [6]string {
	return [6]string{r.Mov1, r.Mov2, r.Mov3, r.Rot1, r.Rot2, r.Rot3}
}

// Confounds is a parsed confound table.
type Confounds struct {
	// Motion is nil when the table has no motion columns.
	Motion     []frame.Motion
	Regressors *core.RegressorSet
}

// ReadConfounds parses a comma-separated confound table with a header row.
// Motion columns mov1..mov3, rot1..rot3 must appear all together or not at
// all; they become the motion parameters and mot_6 regressors. The tissue
// signal columns that are present become regressors of their category.
// Other columns are ignored.
func ReadConfounds(r io.Reader) (Confounds, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Confounds{}, errors.Wrap(err, "read confounds")
	}
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return Confounds{}, errors.Wrap(err, "read confound header")
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var rows []*confoundRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return Confounds{}, errors.Wrap(err, "parse confounds")
	}
	n := len(rows)
	out := Confounds{Regressors: core.NewRegressorSet(n)}

	motionCount := 0
	for _, c := range motionColumns {
		if present[c] {
			motionCount++
		}
	}
	switch motionCount {
	case 0:
	case len(motionColumns):
		out.Motion = make([]frame.Motion, n)
		cols := make([][]float64, len(motionColumns))
		for k := range cols {
			cols[k] = make([]float64, n)
		}
		for t, row := range rows {
			for k, s := range row.motion() {
				v, err := parseCell(s, motionColumns[k], t)
				if err != nil {
					return Confounds{}, err
				}
				out.Motion[t][k] = v
				cols[k][t] = v
			}
		}
		for k, name := range motionColumns {
			if err := out.Regressors.Add(name, core.Mot6, cols[k]); err != nil {
				return Confounds{}, err
			}
		}
	default:
		return Confounds{}, errors.Errorf("confound table has %d of the 6 motion columns", motionCount)
	}

	for _, tc := range tissueColumns {
		if !present[tc.name] {
			continue
		}
		col := make([]float64, n)
		for t, row := range rows {
			v, err := parseCell(tc.get(row), tc.name, t)
			if err != nil {
				return Confounds{}, err
			}
			col[t] = v
		}
		if err := out.Regressors.Add(tc.name, tc.cat, col); err != nil {
			return Confounds{}, err
		}
	}
	return out, nil
}

func parseCell(s, column string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "column %s frame %d", column, row)
	}
	return v, nil
}
