package eval

import "github.com/lumenlang/lumen/internal/ast"

// importKey is (importing_file_dir, imported_path) per spec.md Invariant 8.
type importKey struct{ dir, path string }

type importEntry struct {
	node      ast.Node // nil for importstr entries
	content   string
	foundHere string
}

// ImportCache guarantees referential transparency across a single
// evaluator run: repeated imports of the same (dir, path) return the
// identical parsed AST / string content (spec.md §4.D, Testable Property
// 2), even though the underlying host import callback is consulted only
// once per key.
type ImportCache struct {
	entries map[importKey]*importEntry
}

func NewImportCache() *ImportCache {
	return &ImportCache{entries: map[importKey]*importEntry{}}
}

func (c *ImportCache) lookup(dir, path string) (*importEntry, bool) {
	e, ok := c.entries[importKey{dir, path}]
	return e, ok
}

func (c *ImportCache) store(dir, path string, e *importEntry) {
	c.entries[importKey{dir, path}] = e
}

// all exposes every cached entry, for tests. The cache itself needs no GC
// root: entries hold an ast.Node and raw string content, never a
// HeapEntity — each import/importstr re-evaluates or re-wraps that cached
// source fresh on every lookup (evalImport, evalImportStr in
// evaluator.go), so nothing heap-resident is ever owned by this cache.
func (c *ImportCache) all() map[importKey]*importEntry { return c.entries }
