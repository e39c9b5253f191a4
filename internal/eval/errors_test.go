package eval

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/lexer"
)

func TestStaticError_FormatsWithPosition(t *testing.T) {
	err := &StaticError{Pos: lexer.Position{File: "f.lumen", Line: 3, Column: 5}, Message: "bad token"}
	got := err.Error()
	if !strings.HasPrefix(got, "STATIC ERROR: ") {
		t.Errorf("Error() = %q, want it to start with \"STATIC ERROR: \"", got)
	}
	if !strings.Contains(got, "bad token") {
		t.Errorf("Error() = %q, want it to contain the message", got)
	}
}

func TestStaticError_OmitsPositionWhenZero(t *testing.T) {
	err := &StaticError{Message: "bad token"}
	got := err.Error()
	if got != "STATIC ERROR: bad token" {
		t.Errorf("Error() = %q, want %q", got, "STATIC ERROR: bad token")
	}
}

func TestRuntimeError_IncludesTraceWhenPresent(t *testing.T) {
	err := &RuntimeError{Message: "boom", Trace: "\tf.lumen:1:1\tfunction f\n"}
	got := err.Error()
	if !strings.HasPrefix(got, "RUNTIME ERROR: boom\n") {
		t.Errorf("Error() = %q, want it to start with \"RUNTIME ERROR: boom\\n\"", got)
	}
	if !strings.Contains(got, "function f") {
		t.Errorf("Error() = %q, want it to contain the trace", got)
	}
}

func TestRuntimeError_OmitsTraceWhenEmpty(t *testing.T) {
	err := &RuntimeError{Message: "boom"}
	got := err.Error()
	if got != "RUNTIME ERROR: boom" {
		t.Errorf("Error() = %q, want %q", got, "RUNTIME ERROR: boom")
	}
}

func TestImportCache_StoreAndLookupRoundTrip(t *testing.T) {
	c := NewImportCache()
	if _, ok := c.lookup("/dir", "a.lumen"); ok {
		t.Fatal("expected lookup miss on an empty cache")
	}
	entry := &importEntry{content: "1 + 1", foundHere: "/dir/a.lumen"}
	c.store("/dir", "a.lumen", entry)

	got, ok := c.lookup("/dir", "a.lumen")
	if !ok {
		t.Fatal("expected lookup hit after store")
	}
	if got != entry {
		t.Error("expected the identical cached entry pointer back (referential transparency)")
	}
}

func TestImportCache_KeyIncludesImportingDir(t *testing.T) {
	c := NewImportCache()
	c.store("/dirA", "a.lumen", &importEntry{content: "1"})
	if _, ok := c.lookup("/dirB", "a.lumen"); ok {
		t.Error("expected a miss: same relative path imported from a different directory is a distinct key")
	}
}

func TestImportCache_AllExposesEveryEntry(t *testing.T) {
	c := NewImportCache()
	c.store("/dir", "a.lumen", &importEntry{content: "1"})
	c.store("/dir", "b.lumen", &importEntry{content: "2"})
	if len(c.all()) != 2 {
		t.Errorf("all() returned %d entries, want 2", len(c.all()))
	}
}
