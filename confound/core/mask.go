package core

import "sort"

// CensorRule names the rule that flagged a frame.
type CensorRule string

const (
	RuleFD    CensorRule = "fd"
	RuleDVARS CensorRule = "dvars"
	// RuleEdge marks frames trimmed after filtering.
	RuleEdge CensorRule = "edge"
)

// FrameCensorMask records which frames are retained and, per rule, which
// frames that rule flagged. A frame is retained only if no rule flagged it.
type FrameCensorMask struct {
	Retained []bool
	Rules    map[CensorRule][]bool
}

// NewMask returns a mask of n retained frames.
func NewMask(n int) *FrameCensorMask {
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	return &FrameCensorMask{Retained: keep, Rules: map[CensorRule][]bool{}}
}

// Len returns the frame count.
func (m *FrameCensorMask) Len() int { return len(m.Retained) }

// Flag records flagged frames for rule and removes them from the retained
// set. Flags from repeated calls for one rule accumulate.
func (m *FrameCensorMask) Flag(rule CensorRule, flagged []bool) {
	prev, ok := m.Rules[rule]
	if !ok {
		prev = make([]bool, len(m.Retained))
		m.Rules[rule] = prev
	}
	for t, f := range flagged {
		if f {
			prev[t] = true
			m.Retained[t] = false
		}
	}
}

// RetainedCount returns the number of retained frames.
func (m *FrameCensorMask) RetainedCount() int {
	n := 0
	for _, k := range m.Retained {
		if k {
			n++
		}
	}
	return n
}

// CensoredCount returns the number of frames censored by any rule.
func (m *FrameCensorMask) CensoredCount() int {
	return len(m.Retained) - m.RetainedCount()
}

// Count returns the number of frames flagged by rule. Frames flagged by
// several rules count once for each.
func (m *FrameCensorMask) Count(rule CensorRule) int {
	n := 0
	for _, f := range m.Rules[rule] {
		if f {
			n++
		}
	}
	return n
}

// Fraction returns Count(rule) over the mask length.
func (m *FrameCensorMask) Fraction(rule CensorRule) float64 {
	if len(m.Retained) == 0 {
		return 0
	}
	return float64(m.Count(rule)) / float64(len(m.Retained))
}

// Any reports whether at least one frame is censored.
func (m *FrameCensorMask) Any() bool {
	for _, k := range m.Retained {
		if !k {
			return true
		}
	}
	return false
}

// Indices returns the retained frame indices in order.
func (m *FrameCensorMask) Indices() []int {
	out := make([]int, 0, len(m.Retained))
	for t, k := range m.Retained {
		if k {
			out = append(out, t)
		}
	}
	return out
}

// ActiveRules returns the rules that flagged at least one frame, sorted.
func (m *FrameCensorMask) ActiveRules() []CensorRule {
	var out []CensorRule
	for r := range m.Rules {
		if m.Count(r) > 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy.
func (m *FrameCensorMask) Clone() *FrameCensorMask {
	out := &FrameCensorMask{
		Retained: append([]bool(nil), m.Retained...),
		Rules:    make(map[CensorRule][]bool, len(m.Rules)),
	}
	for r, f := range m.Rules {
		out.Rules[r] = append([]bool(nil), f...)
	}
	return out
}

// Union returns a mask of the given length combining every sub-mask: a
// frame is retained only if every sub-mask retains it.
func Union(n int, masks ...*FrameCensorMask) *FrameCensorMask {
	out := NewMask(n)
	for _, m := range masks {
		if m == nil {
			continue
		}
		for r, f := range m.Rules {
			out.Flag(r, f)
		}
		for t, k := range m.Retained {
			if !k {
				out.Retained[t] = false
			}
		}
	}
	return out
}
