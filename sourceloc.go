package loxx

import "fmt"

// SourceLocation pins a diagnostic to a place in the original source; it
// carries no filename, since a chunk and everything it compiles from
// always belongs to a single source text.
type SourceLocation struct {
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
