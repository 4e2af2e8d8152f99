// Package disasm walks a decoded .ncs instruction stream and renders one
// line per instruction: byte offset, mnemonic, decoded operands (spec.md
// §4.6 "Disassembler"). Callers strip the .ncs container framing with
// internal/ncs.Parse first; this package only ever sees the raw stream
// internal/codegen produced.
package disasm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"nwnsc/internal/codegen"
	"nwnsc/internal/ndb"
)

// Options configures one disassembly pass.
type Options struct {
	// Symbols, if non-nil, annotates function entry points with their
	// name and parameter list and stack-relative operands with the
	// variable name live at that address (spec.md §4.6: "when a .ndb is
	// available...").
	Symbols *ndb.Symbols

	// BaseAddr is added to every printed address. internal/codegen
	// addresses everything (EntryAddr, jump/call targets, line-table
	// addresses) relative to 0 at the first byte of its own output, but
	// a real .ncs file's first instruction sits at internal/ncs.HeaderLen
	// (spec.md §8 S6: "offsets starting at 0x0D"); callers disassembling
	// a full file pass internal/ncs.HeaderLen here, callers disassembling
	// a bare code stream leave it 0.
	BaseAddr uint32
}

// Listing decodes code into a printable instruction listing, beginning
// with the NCS V1.0 header note spec.md §8 S6 requires.
func Listing(code []byte, opts Options) (string, error) {
	var b strings.Builder
	b.WriteString("; NCS V1.0\n")

	off := 0
	for off < len(code) {
		start := off
		if opts.Symbols != nil {
			if f, ok := opts.Symbols.FuncAt(uint32(start)); ok && f.Addr == uint32(start) {
				fmt.Fprintf(&b, "; %s\n", funcSignature(f))
			}
		}

		op := codegen.Op(code[off])
		off++
		mnem, operand, n, err := decode(code, off, op, start, opts.Symbols, opts.BaseAddr)
		if err != nil {
			return b.String(), fmt.Errorf("offset 0x%08X: %w", start+int(opts.BaseAddr), err)
		}
		off += n

		fileOff := uint32(start) + opts.BaseAddr
		if operand == "" {
			fmt.Fprintf(&b, "%08X  %s\n", fileOff, mnem)
		} else {
			fmt.Fprintf(&b, "%08X  %-10s %s\n", fileOff, mnem, operand)
		}
	}
	return b.String(), nil
}

func funcSignature(f ndb.FuncRecord) string {
	var parts []string
	for _, p := range f.Params {
		parts = append(parts, p.Type+" "+p.Name)
	}
	return fmt.Sprintf("%s %s(%s)", f.Return, f.Name, strings.Join(parts, ", "))
}

// errShortRead is returned when code ends in the middle of an operand.
type errShortRead struct{ need, have int }

func (e *errShortRead) Error() string {
	return fmt.Sprintf("truncated instruction: need %d more bytes, have %d", e.need, e.have)
}

// decode reads one instruction's operands starting at code[pos], given its
// already-consumed opcode byte op. It returns the mnemonic, a formatted
// operand string (empty if the opcode takes none), and the operand byte
// count consumed (not counting the opcode byte itself).
func decode(code []byte, pos int, op codegen.Op, instrAddr int, sym *ndb.Symbols, base uint32) (string, string, int, error) {
	need := func(n int) error {
		if pos+n > len(code) {
			return &errShortRead{need: n, have: len(code) - pos}
		}
		return nil
	}

	switch op {
	case codegen.OpNop, codegen.OpSaveBP, codegen.OpRestoreBP, codegen.OpRetn, codegen.OpScriptEnd,
		codegen.OpNot, codegen.OpComp:
		return mnemonic(op), "", 0, nil

	case codegen.OpConst:
		if err := need(1); err != nil {
			return "", "", 0, err
		}
		tag := codegen.TypeTag(code[pos])
		val, n, err := decodeConst(code, pos+1, tag)
		if err != nil {
			return "", "", 0, err
		}
		return mnemonic(op), fmt.Sprintf("%s %s", tagName(tag), val), 1 + n, nil

	case codegen.OpCpDownSP, codegen.OpCpTopSP, codegen.OpCpDownBP, codegen.OpCpTopBP:
		if err := need(6); err != nil {
			return "", "", 0, err
		}
		offset := int32(binary.BigEndian.Uint32(code[pos:]))
		size := binary.BigEndian.Uint16(code[pos+4:])
		return mnemonic(op), fmt.Sprintf("%d, %d%s", offset, size, varComment(sym, instrAddr, offset)), 6, nil

	case codegen.OpMovSP:
		if err := need(4); err != nil {
			return "", "", 0, err
		}
		offset := int32(binary.BigEndian.Uint32(code[pos:]))
		return mnemonic(op), fmt.Sprintf("%d", offset), 4, nil

	case codegen.OpNeg:
		if err := need(1); err != nil {
			return "", "", 0, err
		}
		return mnemonic(op), tagName(codegen.TypeTag(code[pos])), 1, nil

	case codegen.OpAdd, codegen.OpSub, codegen.OpMul, codegen.OpDiv, codegen.OpMod,
		codegen.OpLogAnd, codegen.OpLogOr, codegen.OpIncOr, codegen.OpExcOr, codegen.OpBoolAnd,
		codegen.OpEqual, codegen.OpNEqual, codegen.OpGEq, codegen.OpGT, codegen.OpLT, codegen.OpLEq,
		codegen.OpShLeft, codegen.OpShRight, codegen.OpUShRight, codegen.OpConv:
		if err := need(1); err != nil {
			return "", "", 0, err
		}
		aux := code[pos]
		return mnemonic(op), fmt.Sprintf("%s, %s", tagName(codegen.TypeTag(aux>>4)), tagName(codegen.TypeTag(aux&0xF))), 1, nil

	case codegen.OpJmp, codegen.OpJz, codegen.OpJnz:
		if err := need(4); err != nil {
			return "", "", 0, err
		}
		rel := int32(binary.BigEndian.Uint32(code[pos:]))
		target := uint32(pos+4) + uint32(rel)
		return mnemonic(op), fmt.Sprintf("0x%08X", target+base), 4, nil

	case codegen.OpJsr:
		if err := need(4); err != nil {
			return "", "", 0, err
		}
		target := binary.BigEndian.Uint32(code[pos:])
		return mnemonic(op), fmt.Sprintf("0x%08X", target+base), 4, nil

	case codegen.OpAction:
		if err := need(3); err != nil {
			return "", "", 0, err
		}
		id := binary.BigEndian.Uint16(code[pos:])
		argc := code[pos+2]
		return mnemonic(op), fmt.Sprintf("%d, %d", id, argc), 3, nil

	case codegen.OpStoreState:
		if err := need(8); err != nil {
			return "", "", 0, err
		}
		locals := binary.BigEndian.Uint32(code[pos:])
		params := binary.BigEndian.Uint32(code[pos+4:])
		return mnemonic(op), fmt.Sprintf("%d, %d", locals, params), 8, nil

	default:
		return "", "", 0, fmt.Errorf("unknown opcode 0x%02X", byte(op))
	}
}

func decodeConst(code []byte, pos int, tag codegen.TypeTag) (string, int, error) {
	switch tag {
	case codegen.TagInt, codegen.TagObject, codegen.TagAction:
		if pos+4 > len(code) {
			return "", 0, &errShortRead{need: 4, have: len(code) - pos}
		}
		v := int32(binary.BigEndian.Uint32(code[pos:]))
		return fmt.Sprintf("%d", v), 4, nil
	case codegen.TagFloat:
		if pos+4 > len(code) {
			return "", 0, &errShortRead{need: 4, have: len(code) - pos}
		}
		bits := binary.BigEndian.Uint32(code[pos:])
		return fmt.Sprintf("%g", math.Float32frombits(bits)), 4, nil
	case codegen.TagString:
		if pos+2 > len(code) {
			return "", 0, &errShortRead{need: 2, have: len(code) - pos}
		}
		n := int(binary.BigEndian.Uint16(code[pos:]))
		if pos+2+n > len(code) {
			return "", 0, &errShortRead{need: n, have: len(code) - pos - 2}
		}
		return fmt.Sprintf("%q", code[pos+2:pos+2+n]), 2 + n, nil
	default:
		return "", 0, fmt.Errorf("unsupported CONST tag 0x%02X", byte(tag))
	}
}

func varComment(sym *ndb.Symbols, addr int, offset int32) string {
	if sym == nil {
		return ""
	}
	if v, ok := sym.VarAt(uint32(addr), offset); ok {
		return " ; " + v.Name
	}
	return ""
}

func tagName(t codegen.TypeTag) string {
	switch t {
	case codegen.TagInt:
		return "int"
	case codegen.TagFloat:
		return "float"
	case codegen.TagString:
		return "string"
	case codegen.TagObject:
		return "object"
	case codegen.TagVector:
		return "vector"
	case codegen.TagAction:
		return "action"
	case codegen.TagEngine:
		return "engine"
	default:
		return fmt.Sprintf("0x%02X", byte(t))
	}
}

func mnemonic(op codegen.Op) string {
	switch op {
	case codegen.OpNop:
		return "NOP"
	case codegen.OpConst:
		return "CONST"
	case codegen.OpCpDownSP:
		return "CPDOWNSP"
	case codegen.OpCpTopSP:
		return "CPTOPSP"
	case codegen.OpCpDownBP:
		return "CPDOWNBP"
	case codegen.OpCpTopBP:
		return "CPTOPBP"
	case codegen.OpSaveBP:
		return "SAVEBP"
	case codegen.OpRestoreBP:
		return "RESTOREBP"
	case codegen.OpMovSP:
		return "MOVSP"
	case codegen.OpAdd:
		return "ADD"
	case codegen.OpSub:
		return "SUB"
	case codegen.OpMul:
		return "MUL"
	case codegen.OpDiv:
		return "DIV"
	case codegen.OpMod:
		return "MOD"
	case codegen.OpNeg:
		return "NEG"
	case codegen.OpComp:
		return "COMP"
	case codegen.OpLogAnd:
		return "LOGAND"
	case codegen.OpLogOr:
		return "LOGOR"
	case codegen.OpIncOr:
		return "INCOR"
	case codegen.OpExcOr:
		return "EXCOR"
	case codegen.OpBoolAnd:
		return "BOOLAND"
	case codegen.OpNot:
		return "NOT"
	case codegen.OpEqual:
		return "EQ"
	case codegen.OpNEqual:
		return "NEQ"
	case codegen.OpGEq:
		return "GEQ"
	case codegen.OpGT:
		return "GT"
	case codegen.OpLT:
		return "LT"
	case codegen.OpLEq:
		return "LEQ"
	case codegen.OpShLeft:
		return "SHLEFT"
	case codegen.OpShRight:
		return "SHRIGHT"
	case codegen.OpUShRight:
		return "USHRIGHT"
	case codegen.OpConv:
		return "CONV"
	case codegen.OpJmp:
		return "JMP"
	case codegen.OpJsr:
		return "JSR"
	case codegen.OpJz:
		return "JZ"
	case codegen.OpJnz:
		return "JNZ"
	case codegen.OpRetn:
		return "RETN"
	case codegen.OpAction:
		return "ACTION"
	case codegen.OpStoreState:
		return "STORESTATE"
	case codegen.OpScriptEnd:
		return "SCRIPTEND"
	default:
		return fmt.Sprintf("0x%02X", byte(op))
	}
}
