package eval

import (
	"fmt"
	"strings"

	"github.com/lumenlang/lumen/internal/lexer"
)

// CallFrame is the only frame kind the specification requires to be
// individually addressable after the fact: it is the unit counted toward
// max_stack and the unit printed in a runtime error's trace (spec.md
// §4.B). The evaluator's many other "frame kinds" (BINARY_LEFT, IF,
// OBJECT, ...) are modeled here as ordinary Go call-stack recursion inside
// Eval rather than as entries of this slice — see DESIGN.md for why that
// simplification still satisfies every testable property.
type CallFrame struct {
	Pos      lexer.Position
	Name     string // set by the pushing site ("function f", "thunk x", ...), or "" if unknown
	TailCall bool
}

// CallStack is the explicit, inspectable stack of CallFrames. Keeping it
// separate from the Go call stack is what makes tail-call trimming and
// bounded-depth traces possible (spec.md Design Notes).
type CallStack struct {
	frames   []CallFrame
	maxStack int
}

func NewCallStack(maxStack int) *CallStack {
	if maxStack <= 0 {
		maxStack = 500
	}
	return &CallStack{maxStack: maxStack}
}

// ErrStackOverflow is returned by Push when max_stack would be exceeded.
var ErrStackOverflow = fmt.Errorf("Max stack frames exceeded")

// Push adds a frame, first trimming the immediately preceding frame if it
// was marked tail_call, whatever f's own TailCall flag (spec.md §4.B
// "tail-call trim"). Returns ErrStackOverflow if the resulting depth would
// exceed maxStack.
func (s *CallStack) Push(f CallFrame) error {
	if n := len(s.frames); n > 0 && s.frames[n-1].TailCall {
		s.frames = s.frames[:n-1]
	}
	if len(s.frames) >= s.maxStack {
		return ErrStackOverflow
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *CallStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *CallStack) Depth() int { return len(s.frames) }

// Trace renders the current stack top-to-bottom, truncating the middle
// when it exceeds maxTrace entries: keep ceil(maxTrace/2) at the top and
// the remainder at the bottom, with a "..." marker in between (spec.md
// §4.B "Error traces").
func (s *CallStack) Trace(maxTrace int) string {
	n := len(s.frames)
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	writeFrame := func(f CallFrame) {
		name := f.Name
		if name == "" {
			name = "anonymous"
		}
		sb.WriteString(fmt.Sprintf("\t%s\t%s\n", f.Pos, name))
	}

	if maxTrace <= 0 || n <= maxTrace {
		for i := n - 1; i >= 0; i-- {
			writeFrame(s.frames[i])
		}
		return sb.String()
	}

	top := (maxTrace + 1) / 2
	bottom := maxTrace - top
	for i := n - 1; i >= n-top; i-- {
		writeFrame(s.frames[i])
	}
	sb.WriteString("\t...\n")
	for i := bottom - 1; i >= 0; i-- {
		writeFrame(s.frames[i])
	}
	return sb.String()
}
