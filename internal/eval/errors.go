package eval

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/lexer"
)

// StaticError is raised by the lex/parse/desugar/analyze pipeline (spec.md
// §7); the evaluator only ever wraps one on its way back out of Load.
type StaticError struct {
	Pos     lexer.Position
	Message string
}

func (e *StaticError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("STATIC ERROR: %s", e.Message)
	}
	return fmt.Sprintf("STATIC ERROR: %s: %s", e.Pos, e.Message)
}

// RuntimeError carries a message plus the stack trace captured at the
// point it was raised (spec.md §7).
type RuntimeError struct {
	Message string
	Trace   string
}

func (e *RuntimeError) Error() string {
	if e.Trace == "" {
		return fmt.Sprintf("RUNTIME ERROR: %s", e.Message)
	}
	return fmt.Sprintf("RUNTIME ERROR: %s\n%s", e.Message, e.Trace)
}

func (ev *Evaluator) runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Trace:   ev.state.stack.Trace(ev.state.ctx.MaxTrace),
	}
}
