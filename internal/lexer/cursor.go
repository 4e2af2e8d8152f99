package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"nwnsc/internal/source"
)

// Cursor walks the byte content of a single file.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

// NewCursor returns a Cursor positioned at the start of f.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("lexer: file content length overflow: %w", err))
	}
	return Cursor{File: f, Limit: limit}
}

// EOF reports whether the cursor has consumed all bytes.
func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump consumes and returns the current byte.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Mark is a saved cursor offset used to compute a Span once more bytes
// have been consumed.
type Mark uint32

// Mark captures the current offset.
func (c *Cursor) Mark() Mark { return Mark(c.Off) }

// SpanFrom returns the span from m to the current offset.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}
