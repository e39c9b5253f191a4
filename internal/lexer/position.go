// Package lexer tokenizes lumen source text into a token stream, carrying
// source positions through to the parser for diagnostics.
package lexer

import "fmt"

// Position identifies a single point in source text.
type Position struct {
	File   string
	Line   int
	Column int
}

// String renders the position as "file:line:column", or "line:column" when
// File is empty.
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}
