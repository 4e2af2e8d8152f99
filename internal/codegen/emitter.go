package codegen

import (
	"math"

	"fortio.org/safecast"

	"nwnsc/internal/source"
)

// lineMark records a byte-code address's source position, relative to the
// owning emitter's own buffer; generator.link rebases these once the
// emitter's bytes are appended to the shared program stream.
type lineMark struct {
	addr int
	file source.FileID
	line uint32
}

// jumpFixup is an intra-function jump whose relative offset is not yet
// known when the jump instruction is emitted (the label lies further
// ahead in the same function). It is always resolved before the
// function's codegen returns, so it never reaches the program-level
// fixup table (spec.md testable property 5, "fixup closure").
type jumpFixup struct {
	siteOperand int // byte offset of the 4-byte relative operand
	label       int // opaque label id, resolved against labelPos
}

// callFixup is a call or engine-action-prototype reference to a function
// symbol whose entry address is not known until every function in the
// unit has been laid out. These accumulate in the emitter's shared table
// and are resolved once, in Generate's final linking pass.
type callFixup struct {
	siteOperand int
	sym         uint32 // symbols.SymbolID, opaque here to avoid an import cycle
}

// emitter is the low-level byte-stream writer shared by one function's
// code generation. Each function gets its own emitter so that label ids
// and jump fixups never leak across function boundaries; callFixups are
// copied into the program-wide table when the function is linked in.
type emitter struct {
	code       []byte
	jumpFixups []jumpFixup
	callFixups []callFixup
	labelPos   map[int]int
	nextLabel  int
	lineMarks  []lineMark
}

// mark records that the instruction about to be emitted corresponds to
// the given source position.
func (e *emitter) mark(file source.FileID, line uint32) {
	e.lineMarks = append(e.lineMarks, lineMark{addr: e.here(), file: file, line: line})
}

func newEmitter() *emitter {
	return &emitter{code: make([]byte, 0, 256), labelPos: map[int]int{}}
}

func (e *emitter) here() int { return len(e.code) }

func (e *emitter) byte(b byte) { e.code = append(e.code, b) }

func (e *emitter) op(o Op) { e.byte(byte(o)) }

func (e *emitter) u8(v uint8) { e.byte(v) }

func (e *emitter) u16(v uint16) {
	e.byte(byte(v >> 8))
	e.byte(byte(v))
}

func (e *emitter) u32(v uint32) {
	e.byte(byte(v >> 24))
	e.byte(byte(v >> 16))
	e.byte(byte(v >> 8))
	e.byte(byte(v))
}

func (e *emitter) i32(v int32) { e.u32(uint32(v)) }

func (e *emitter) f32(v float32) { e.u32(math.Float32bits(v)) }

func (e *emitter) str(s string) {
	n, err := safecast.Conv[uint16](len(s))
	if err != nil {
		n = math.MaxUint16
		s = s[:n]
	}
	e.u16(n)
	e.code = append(e.code, s...)
}

// newLabel allocates an unresolved label id.
func (e *emitter) newLabel() int {
	e.nextLabel++
	return e.nextLabel
}

// placeLabel binds label to the current write position.
func (e *emitter) placeLabel(label int) { e.labelPos[label] = e.here() }

// jumpTo emits op followed by a placeholder 4-byte relative operand,
// recording a fixup to patch once label's position is known.
func (e *emitter) jumpTo(op Op, label int) {
	e.op(op)
	site := e.here()
	e.i32(0)
	e.jumpFixups = append(e.jumpFixups, jumpFixup{siteOperand: site, label: label})
}

// call emits OpJsr followed by a placeholder absolute address, recording
// a cross-function fixup resolved once every function has a final
// program address (Generate's linking pass).
func (e *emitter) call(sym uint32) {
	e.op(OpJsr)
	site := e.here()
	e.u32(0)
	e.callFixups = append(e.callFixups, callFixup{siteOperand: site, sym: sym})
}

// resolveJumps patches every intra-function jump against its label and
// reports an unresolved label (a codegen bug, not a user error).
func (e *emitter) resolveJumps() bool {
	for _, f := range e.jumpFixups {
		target, ok := e.labelPos[f.label]
		if !ok {
			return false
		}
		rel := int32(target - (f.siteOperand + 4))
		patch32(e.code, f.siteOperand, uint32(rel))
	}
	e.jumpFixups = nil
	return true
}

func patch32(code []byte, at int, v uint32) {
	code[at] = byte(v >> 24)
	code[at+1] = byte(v >> 16)
	code[at+2] = byte(v >> 8)
	code[at+3] = byte(v)
}
