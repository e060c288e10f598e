package regress

import (
	"github.com/cwbudde/algo-vecmath"

	timestats "github.com/cwbudde/algo-confound/stats/time"
)

// Mot6Names are the six rigid-body regressor names, translations first.
var Mot6Names = []string{"mov1", "mov2", "mov3", "rot1", "rot2", "rot3"}

// Mot24 expands six motion columns (column-major) into 24: the parameters,
// their backward differences (first frame 0), then the squares of those 12.
func Mot24(mot6 [][]float64) [][]float64 {
	out := make([][]float64, 0, 4*len(mot6))
	for _, c := range mot6 {
		out = append(out, append([]float64(nil), c...))
	}
	for _, c := range mot6 {
		out = append(out, timestats.Diff(c))
	}
	for _, c := range out[:2*len(mot6)] {
		sq := make([]float64, len(c))
		vecmath.MulBlock(sq, c, c)
		out = append(out, sq)
	}
	return out
}

// Mot24Names returns the names matching Mot24's column order.
func Mot24Names(base []string) []string {
	out := make([]string, 0, 4*len(base))
	out = append(out, base...)
	for _, b := range base {
		out = append(out, b+"_der")
	}
	for _, b := range base {
		out = append(out, b+"_sq")
	}
	for _, b := range base {
		out = append(out, b+"_der_sq")
	}
	return out
}
