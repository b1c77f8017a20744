package content

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Fragment is one piece of text drawn by a single text-showing operator.
// Y is the vertical component of the text matrix at the time of drawing.
type Fragment struct {
	X        float64
	Y        float64
	Text     string
	FontSize float64
}

// Operand is a content stream operand as seen by the extractor
type Operand interface {
	Float64() float64
	Name() string
	RawString() string
	IsString() bool
	Len() int
	Index(i int) Operand
}

// TextDecoder turns the raw bytes of a shown string into text
type TextDecoder interface {
	Decode(raw string) string
}

// FontResolver returns the decoder for a font resource name. A nil decoder
// means the raw bytes are used as-is.
type FontResolver func(name string) TextDecoder

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithFontResolver sets the font decoder lookup
func WithFontResolver(resolve FontResolver) ExtractorOption {
	return func(e *Extractor) {
		e.resolve = resolve
	}
}

// WithUserSpace reports fragment positions in user space (text origin mapped
// through the CTM) instead of text space.
func WithUserSpace(enabled bool) ExtractorOption {
	return func(e *Extractor) {
		e.userSpace = enabled
	}
}

// Extractor walks text-drawing operators and records one Fragment per
// text-showing operation.
type Extractor struct {
	resolve   FontResolver
	userSpace bool

	stateStack *StateStack
	tm         Matrix // Text matrix
	tlm        Matrix // Text line matrix
	fragments  []Fragment
}

// NewExtractor creates a new extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		stateStack: NewStateStack(),
		tm:         IdentityMatrix(),
		tlm:        IdentityMatrix(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fragments returns the fragments recorded so far, in stream order
func (e *Extractor) Fragments() []Fragment {
	return e.fragments
}

// Process applies a single operator with its operands. Operators with the
// wrong operand count are ignored.
func (e *Extractor) Process(op string, args []Operand) {
	state := e.stateStack.Current()

	switch op {
	case "q":
		e.stateStack.Save()

	case "Q":
		e.stateStack.Restore()

	case "cm":
		if len(args) == 6 {
			state.CTM = matrixFromOperands(args).Multiply(state.CTM)
		}

	case "BT":
		e.tm = IdentityMatrix()
		e.tlm = IdentityMatrix()

	case "Tm":
		if len(args) == 6 {
			e.tm = matrixFromOperands(args)
			e.tlm = e.tm
		}

	case "TD":
		if len(args) == 2 {
			state.Leading = -args[1].Float64()
			e.moveLine(args[0].Float64(), args[1].Float64())
		}

	case "Td":
		if len(args) == 2 {
			e.moveLine(args[0].Float64(), args[1].Float64())
		}

	case "T*":
		e.moveLine(0, -state.Leading)

	case "TL":
		if len(args) == 1 {
			state.Leading = args[0].Float64()
		}

	case "Tf":
		if len(args) == 2 {
			state.FontName = args[0].Name()
			state.FontSize = args[1].Float64()
			state.decoder = nil
			if e.resolve != nil {
				state.decoder = e.resolve(state.FontName)
			}
		}

	case "Tj":
		if len(args) == 1 {
			e.show(args[0].RawString())
		}

	case "'":
		if len(args) == 1 {
			e.moveLine(0, -state.Leading)
			e.show(args[0].RawString())
		}

	case "\"":
		if len(args) == 3 {
			e.moveLine(0, -state.Leading)
			e.show(args[2].RawString())
		}

	case "TJ":
		if len(args) == 1 {
			var raw strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				if item := arr.Index(i); item.IsString() {
					raw.WriteString(item.RawString())
				}
			}
			e.show(raw.String())
		}
	}
}

// moveLine implements Td: Tlm = [1 0 0 1 tx ty] × Tlm, Tm = Tlm
func (e *Extractor) moveLine(tx, ty float64) {
	e.tlm = Translate(tx, ty).Multiply(e.tlm)
	e.tm = e.tlm
}

// show records a fragment at the current text position
func (e *Extractor) show(raw string) {
	state := e.stateStack.Current()

	text := raw
	if state.decoder != nil {
		text = state.decoder.Decode(raw)
	}

	x, y := e.tm.E, e.tm.F
	if e.userSpace {
		x, y = state.CTM.Transform(x, y)
	}

	e.fragments = append(e.fragments, Fragment{
		X:        x,
		Y:        y,
		Text:     text,
		FontSize: state.FontSize,
	})
}

// ExtractFromBytes tokenises a decoded content stream and processes every
// operator in it. State carries over between calls so multiple streams of one
// page can be fed in order.
func (e *Extractor) ExtractFromBytes(data []byte) error {
	lexer := NewContentLexer(data)
	var operands []Operand

	for {
		token, err := lexer.NextToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tokenize content stream: %w", err)
		}

		if token.Type == TokenOperator {
			e.Process(token.Value.(string), operands)
			operands = operands[:0]
		} else {
			operands = append(operands, lexOperand{v: token.Value})
		}
	}
}

func matrixFromOperands(args []Operand) Matrix {
	return Matrix{
		A: args[0].Float64(),
		B: args[1].Float64(),
		C: args[2].Float64(),
		D: args[3].Float64(),
		E: args[4].Float64(),
		F: args[5].Float64(),
	}
}

// lexOperand adapts a ContentLexer token value to Operand
type lexOperand struct {
	v interface{}
}

func (o lexOperand) Float64() float64 {
	f, _ := o.v.(float64)
	return f
}

func (o lexOperand) Name() string {
	s, _ := o.v.(string)
	return s
}

func (o lexOperand) RawString() string {
	b, _ := o.v.([]byte)
	return string(b)
}

func (o lexOperand) IsString() bool {
	_, ok := o.v.([]byte)
	return ok
}

func (o lexOperand) Len() int {
	arr, _ := o.v.([]interface{})
	return len(arr)
}

func (o lexOperand) Index(i int) Operand {
	arr, _ := o.v.([]interface{})
	if i < 0 || i >= len(arr) {
		return lexOperand{}
	}
	return lexOperand{v: arr[i]}
}
