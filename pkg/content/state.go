package content

// GraphicsState is the subset of the PDF graphics state that affects where
// text lands on the page. Text state parameters (font, size, leading) are part
// of the graphics state in PDF, so they are saved and restored by q/Q too.
type GraphicsState struct {
	CTM      Matrix  // Current Transformation Matrix
	FontName string  // Current font resource name
	FontSize float64 // Current font size
	Leading  float64 // Text leading (TL)

	decoder TextDecoder
}

// NewGraphicsState creates a new graphics state with defaults
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM: IdentityMatrix(),
	}
}

// Clone creates a copy of the graphics state
func (gs *GraphicsState) Clone() *GraphicsState {
	newState := *gs
	return &newState
}

// Matrix represents a 2D transformation matrix [a b c d e f]
type Matrix struct {
	A, B, C, D, E, F float64
}

// IdentityMatrix returns an identity matrix
func IdentityMatrix() Matrix {
	return Matrix{A: 1, B: 0, C: 0, D: 1, E: 0, F: 0}
}

// Multiply returns m × other
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.C,
		B: m.A*other.B + m.B*other.D,
		C: m.C*other.A + m.D*other.C,
		D: m.C*other.B + m.D*other.D,
		E: m.E*other.A + m.F*other.C + other.E,
		F: m.E*other.B + m.F*other.D + other.F,
	}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(x, y float64) (float64, float64) {
	newX := m.A*x + m.C*y + m.E
	newY := m.B*x + m.D*y + m.F
	return newX, newY
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{A: 1, B: 0, C: 0, D: 1, E: tx, F: ty}
}

// StateStack manages graphics state stack for save/restore operations
type StateStack struct {
	states []*GraphicsState
}

// NewStateStack creates a new state stack
func NewStateStack() *StateStack {
	return &StateStack{
		states: []*GraphicsState{NewGraphicsState()},
	}
}

// Current returns the current graphics state
func (s *StateStack) Current() *GraphicsState {
	return s.states[len(s.states)-1]
}

// Save pushes a copy of the current graphics state
func (s *StateStack) Save() {
	s.states = append(s.states, s.Current().Clone())
}

// Restore pops the current graphics state. An unbalanced Q is ignored.
func (s *StateStack) Restore() {
	if len(s.states) > 1 {
		s.states = s.states[:len(s.states)-1]
	}
}

// Depth returns the number of saved states above the base state
func (s *StateStack) Depth() int {
	return len(s.states) - 1
}
