package eval

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/lexer"
)

func frame(name string, tailCall bool) CallFrame {
	return CallFrame{Pos: lexer.Position{File: "<test>", Line: 1, Column: 1}, Name: name, TailCall: tailCall}
}

func TestCallStack_DefaultMaxStack(t *testing.T) {
	s := NewCallStack(0)
	if s.maxStack != 500 {
		t.Errorf("maxStack = %d, want 500", s.maxStack)
	}
}

func TestCallStack_PushPopTracksDepth(t *testing.T) {
	s := NewCallStack(10)
	if err := s.Push(frame("f", false)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", s.Depth())
	}
	s.Pop()
	if s.Depth() != 0 {
		t.Errorf("Depth() after Pop = %d, want 0", s.Depth())
	}
}

func TestCallStack_TailCallTrimsPriorFrame(t *testing.T) {
	s := NewCallStack(10)
	if err := s.Push(frame("f", true)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Push(frame("g", false)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	// g's push should have trimmed f's tail-call frame rather than
	// stacking on top of it.
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1 (tail-call frame trimmed)", s.Depth())
	}
}

func TestCallStack_NonTailFramesAccumulate(t *testing.T) {
	s := NewCallStack(10)
	for i := 0; i < 5; i++ {
		if err := s.Push(frame("f", false)); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if s.Depth() != 5 {
		t.Errorf("Depth() = %d, want 5", s.Depth())
	}
}

func TestCallStack_OverflowsAtMaxStack(t *testing.T) {
	s := NewCallStack(3)
	for i := 0; i < 3; i++ {
		if err := s.Push(frame("f", false)); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	if err := s.Push(frame("f", false)); err != ErrStackOverflow {
		t.Errorf("Push at limit = %v, want ErrStackOverflow", err)
	}
}

func TestCallStack_TraceEmptyWhenNoFrames(t *testing.T) {
	s := NewCallStack(10)
	if got := s.Trace(10); got != "" {
		t.Errorf("Trace() = %q, want empty string", got)
	}
}

func TestCallStack_TraceListsFramesTopToBottom(t *testing.T) {
	s := NewCallStack(10)
	s.Push(frame("outer", false))
	s.Push(frame("inner", false))
	trace := s.Trace(10)
	lines := strings.Split(strings.TrimRight(trace, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), trace)
	}
	if !strings.Contains(lines[0], "inner") {
		t.Errorf("first line = %q, want it to name the innermost frame first", lines[0])
	}
	if !strings.Contains(lines[1], "outer") {
		t.Errorf("second line = %q, want it to name the outermost frame last", lines[1])
	}
}

func TestCallStack_TraceUsesAnonymousForUnnamedFrames(t *testing.T) {
	s := NewCallStack(10)
	s.Push(frame("", false))
	trace := s.Trace(10)
	if !strings.Contains(trace, "anonymous") {
		t.Errorf("Trace() = %q, want it to mention \"anonymous\"", trace)
	}
}

func TestCallStack_TraceTruncatesMiddleWhenOverMaxTrace(t *testing.T) {
	s := NewCallStack(20)
	for i := 0; i < 10; i++ {
		s.Push(frame(string(rune('a'+i)), false))
	}
	trace := s.Trace(4)
	if !strings.Contains(trace, "...") {
		t.Fatalf("expected a \"...\" truncation marker, got %q", trace)
	}
	lines := strings.Split(strings.TrimRight(trace, "\n"), "\n")
	if len(lines) != 5 { // 4 real frames + 1 "..." marker
		t.Errorf("got %d lines, want 5 (4 frames + truncation marker): %q", len(lines), trace)
	}
}
