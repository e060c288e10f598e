package core

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Category groups nuisance regressors. The names match the conf_list
// vocabulary of the preprocessing outputs.
type Category string

const (
	WMSignal       Category = "WM_signal"
	CSFSignal      Category = "CSF_signal"
	VascularSignal Category = "vascular_signal"
	GlobalSignal   Category = "global_signal"
	ACompCor       Category = "aCompCor"
	Mot6           Category = "mot_6"
	Mot24          Category = "mot_24"
	MeanFD         Category = "mean_FD"
	// ICANoise holds noise-classified ICA components. It is never requested
	// through a category list; it is added when component removal runs.
	ICANoise Category = "ICA_noise"
)

// Categories returns the categories that may be requested in a
// configuration, in canonical order.
func Categories() []Category {
	return []Category{WMSignal, CSFSignal, VascularSignal, GlobalSignal, ACompCor, Mot6, Mot24, MeanFD}
}

// ParseCategory resolves a configured category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", Configf("conf_list", "unsupported regressor category %q", s)
}

// CategoryNames renders categories for logs and diagnostics.
func CategoryNames(cats []Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

// Regressor is one named nuisance vector.
type Regressor struct {
	Name     string
	Category Category
	Values   []float64
}

// RegressorSet is an ordered collection of uniquely named regressors that
// all share one frame count.
type RegressorSet struct {
	frames int
	items  []Regressor
	index  map[string]int
}

// NewRegressorSet returns an empty set for series of the given length.
func NewRegressorSet(frames int) *RegressorSet {
	return &RegressorSet{frames: frames, index: map[string]int{}}
}

// Frames returns the frame count every regressor must have.
func (s *RegressorSet) Frames() int { return s.frames }

// Len returns the number of regressors.
func (s *RegressorSet) Len() int { return len(s.items) }

// Add appends a copy of values under name. Duplicate names and vectors of
// the wrong length are rejected.
func (s *RegressorSet) Add(name string, cat Category, values []float64) error {
	if name == "" {
		return errors.New("regressor name must be set")
	}
	if _, ok := s.index[name]; ok {
		return errors.Errorf("duplicate regressor %q", name)
	}
	if len(values) != s.frames {
		return errors.Errorf("regressor %q has %d frames, want %d", name, len(values), s.frames)
	}
	s.index[name] = len(s.items)
	s.items = append(s.items, Regressor{
		Name:     name,
		Category: cat,
		Values:   append([]float64(nil), values...),
	})
	return nil
}

// Get returns the regressor called name.
func (s *RegressorSet) Get(name string) (Regressor, bool) {
	i, ok := s.index[name]
	if !ok {
		return Regressor{}, false
	}
	return s.items[i], true
}

// All returns the regressors in insertion order. The slice is shared; use
// Clone before modifying values.
func (s *RegressorSet) All() []Regressor { return s.items }

// ByCategory returns the regressors of one category in insertion order.
func (s *RegressorSet) ByCategory(cat Category) []Regressor {
	var out []Regressor
	for _, r := range s.items {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether at least one regressor of cat is present.
func (s *RegressorSet) Has(cat Category) bool {
	for _, r := range s.items {
		if r.Category == cat {
			return true
		}
	}
	return false
}

// Names returns the regressor names in insertion order.
func (s *RegressorSet) Names() []string {
	out := make([]string, len(s.items))
	for i, r := range s.items {
		out[i] = r.Name
	}
	return out
}

// PresentCategories returns the distinct categories in the set, sorted.
func (s *RegressorSet) PresentCategories() []Category {
	seen := map[Category]struct{}{}
	for _, r := range s.items {
		seen[r.Category] = struct{}{}
	}
	out := make([]Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy.
func (s *RegressorSet) Clone() *RegressorSet {
	out := NewRegressorSet(s.frames)
	for _, r := range s.items {
		// Names are unique and lengths match, so Add cannot fail.
		_ = out.Add(r.Name, r.Category, r.Values)
	}
	return out
}

// Map returns a new set whose vectors are fn applied to each regressor.
// fn must preserve the frame count unless every call changes it the same
// way; the new frame count is taken from the first result.
func (s *RegressorSet) Map(fn func(Regressor) ([]float64, error)) (*RegressorSet, error) {
	if len(s.items) == 0 {
		return NewRegressorSet(s.frames), nil
	}
	var out *RegressorSet
	for _, r := range s.items {
		v, err := fn(r)
		if err != nil {
			return nil, errors.Wrapf(err, "regressor %q", r.Name)
		}
		if out == nil {
			out = NewRegressorSet(len(v))
		}
		if err := out.Add(r.Name, r.Category, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SelectFrames returns a copy holding only the frames where keep is true.
func (s *RegressorSet) SelectFrames(keep []bool) *RegressorSet {
	frames := 0
	for _, k := range keep {
		if k {
			frames++
		}
	}
	out := NewRegressorSet(frames)
	for _, r := range s.items {
		v := make([]float64, 0, frames)
		for t, x := range r.Values {
			if keep[t] {
				v = append(v, x)
			}
		}
		_ = out.Add(r.Name, r.Category, v)
	}
	return out
}

// Crop returns a copy holding frames [start, end).
func (s *RegressorSet) Crop(start, end int) *RegressorSet {
	out := NewRegressorSet(end - start)
	for _, r := range s.items {
		_ = out.Add(r.Name, r.Category, r.Values[start:end])
	}
	return out
}
