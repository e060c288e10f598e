package regress

import (
	"github.com/cwbudde/algo-confound/confound/core"
)

// InterceptName names the constant column of a design matrix.
const InterceptName = "intercept"

// Design is a column-major nuisance design matrix.
type Design struct {
	Names   []string
	Columns [][]float64
	// Intercept is true when Columns[0] is the constant column.
	Intercept bool
}

// Width returns the number of columns.
func (d Design) Width() int { return len(d.Columns) }

// DesignMatrix resolves the requested categories against set, in order.
// A requested category with no regressors in set is a ConfigurationError.
// With includeNoise, every ICA_noise regressor is appended. A constant
// intercept is prepended whenever at least one regressor is selected.
func DesignMatrix(set *core.RegressorSet, confList []core.Category, includeNoise bool) (Design, error) {
	var d Design

	for _, cat := range confList {
		if _, err := core.ParseCategory(string(cat)); err != nil {
			return Design{}, err
		}
		regs := set.ByCategory(cat)
		if len(regs) == 0 {
			return Design{}, core.Configf("conf_list", "no %s regressors available for this scan", cat)
		}
		for _, r := range regs {
			d.Names = append(d.Names, r.Name)
			d.Columns = append(d.Columns, r.Values)
		}
	}
	if includeNoise {
		for _, r := range set.ByCategory(core.ICANoise) {
			d.Names = append(d.Names, r.Name)
			d.Columns = append(d.Columns, r.Values)
		}
	}

	if len(d.Columns) == 0 {
		return d, nil
	}

	ones := make([]float64, set.Frames())
	for i := range ones {
		ones[i] = 1
	}
	d.Names = append([]string{InterceptName}, d.Names...)
	d.Columns = append([][]float64{ones}, d.Columns...)
	d.Intercept = true
	return d, nil
}
