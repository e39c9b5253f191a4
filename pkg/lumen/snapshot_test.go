package lumen

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestManifestSnapshots golden-tests the manifested JSON text of a handful
// of representative programs (object extension, comprehensions, hidden
// fields, nested arrays, multi mode) with go-snaps; no snapshot file is
// committed, so the first run records one. Grounded on internal/interp/fixture_test.go's snaps.MatchSnapshot usage
// in the teacher repo (see DESIGN.md).
func TestManifestSnapshots(t *testing.T) {
	cases := []struct {
		name   string
		source string
		mode   Mode
	}{
		{"object_extension", `
local Base = { greeting: "hello", who: "world", msg: self.greeting + " " + self.who };
Base + { who: "lumen" }
`, ModeRegular},
		{"comprehension", `{ ["k" + i]: i * i for i in [1, 2, 3] }`, ModeRegular},
		{"hidden_fields", `{ visible: 1, hidden:: 2, both: self.visible + self.hidden }`, ModeRegular},
		{"nested_arrays", `[[1, 2], [3, [4, 5]], []]`, ModeRegular},
		{"multi_mode", `{ a: { x: 1 }, b: { y: 2 } }`, ModeMulti},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := New()
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer engine.Close()
			out, err := engine.EvaluateSnippet(tc.source, tc.mode)
			if err != nil {
				t.Fatalf("EvaluateSnippet(%s): %v", tc.name, err)
			}
			snaps.MatchSnapshot(t, out)
		})
	}
}
