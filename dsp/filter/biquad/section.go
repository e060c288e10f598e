package biquad

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// IsZero reports whether all coefficients are zero, which design functions
// return for invalid parameters.
func (c Coefficients) IsZero() bool {
	return c == Coefficients{}
}

// DCGain returns H(z=1), the response of the section to a constant input.
// It returns 0 when the denominator vanishes at DC.
func (c Coefficients) DCGain() float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}

	return (c.B0 + c.B1 + c.B2) / den
}

// Section is a single biquad filter with coefficients and internal state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	d0, d1 := s.d0, s.d1

	for i, x := range buf {
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// State returns the current delay-line state [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a previously saved delay-line state.
func (s *Section) SetState(state [2]float64) {
	s.d0 = state[0]
	s.d1 = state[1]
}

// SteadyState returns the delay-line state the section settles into when
// driven by the constant input u, together with the settled output.
// Loading this state before filtering a signal that starts at u removes
// the start-up transient.
func (c Coefficients) SteadyState(u float64) (state [2]float64, y float64) {
	y = c.DCGain() * u
	d1 := c.B2*u - c.A2*y
	d0 := c.B1*u - c.A1*y + d1

	return [2]float64{d0, d1}, y
}
