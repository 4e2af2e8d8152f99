package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// Arena stores values of one node kind behind 1-based handles so that
// cross-references (a function symbol's parameters pointing back at the
// function, a call expression's argument list) never need raw pointers —
// per the arena discipline spec.md's DESIGN NOTES calls for. The arena is
// owned by one CompilationUnit and released whole when code generation
// for that unit finishes.
type Arena[T any] struct {
	data []T
}

// NewArena returns an empty Arena with data pre-sized to capHint.
func NewArena[T any](capHint int) *Arena[T] {
	return &Arena[T]{data: make([]T, 0, capHint)}
}

// Allocate appends value and returns its 1-based index; 0 is reserved to
// mean "no such node".
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("ast: arena overflow: %w", err))
	}
	return n
}

// Get returns a pointer to the node at index, or nil if index is 0 or out
// of range.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || int(index) > len(a.data) {
		return nil
	}
	return &a.data[index-1]
}

// Len returns the number of allocated nodes.
func (a *Arena[T]) Len() uint32 {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("ast: arena overflow: %w", err))
	}
	return n
}

// Slice exposes the backing storage read-only, for code that needs to walk
// every node (the disassembler's debug-symbol builder, golden-test dumps).
func (a *Arena[T]) Slice() []T { return a.data }
