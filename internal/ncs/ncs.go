// Package ncs reads and writes the compiled bytecode container format
// (spec.md §6 "Compiled bytecode file (.ncs)"): an 8-byte magic/version
// header, a size record giving the total file length, and the raw
// instruction stream internal/codegen produced.
package ncs

import (
	"encoding/binary"
	"fmt"
)

// Magic and Version together form the 8-byte header every .ncs file
// opens with.
const (
	Magic   = "NCS "
	Version = "V1.0"

	// sizeOp tags the size record that follows the header: one opcode
	// byte plus a 4-byte big-endian total file length, no separate aux
	// byte. spec.md §8 S6 fixes the first instruction at offset 0x0D
	// (13): 8 header bytes + 1 opcode byte + 4 length bytes, which only
	// holds if the size record carries no aux byte of its own.
	sizeOp = 0x42

	// HeaderLen is the byte offset of the first instruction in a
	// well-formed .ncs stream.
	HeaderLen = len(Magic) + len(Version) + 1 + 4
)

// Write wraps code in the .ncs container: header, size record, then the
// instruction stream unchanged.
func Write(code []byte) []byte {
	total := HeaderLen + len(code)
	out := make([]byte, 0, total)
	out = append(out, Magic...)
	out = append(out, Version...)
	out = append(out, sizeOp)
	out = binary.BigEndian.AppendUint32(out, uint32(total))
	out = append(out, code...)
	return out
}

// ErrBadHeader is returned by Parse when data does not open with the
// expected magic/version/size-record prefix.
type ErrBadHeader struct{ Reason string }

func (e *ErrBadHeader) Error() string { return fmt.Sprintf("ncs: bad header: %s", e.Reason) }

// Parse validates data's header and size record and returns the
// instruction stream that follows, stripped of the container framing.
func Parse(data []byte) ([]byte, error) {
	if len(data) < HeaderLen {
		return nil, &ErrBadHeader{Reason: "file too short for header"}
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, &ErrBadHeader{Reason: fmt.Sprintf("magic %q, want %q", data[:len(Magic)], Magic)}
	}
	verStart := len(Magic)
	verEnd := verStart + len(Version)
	if string(data[verStart:verEnd]) != Version {
		return nil, &ErrBadHeader{Reason: fmt.Sprintf("version %q, want %q", data[verStart:verEnd], Version)}
	}
	if data[verEnd] != sizeOp {
		return nil, &ErrBadHeader{Reason: fmt.Sprintf("size opcode 0x%02x, want 0x%02x", data[verEnd], sizeOp)}
	}
	total := binary.BigEndian.Uint32(data[verEnd+1 : verEnd+5])
	if int(total) != len(data) {
		return nil, &ErrBadHeader{Reason: fmt.Sprintf("size record says %d bytes, file is %d", total, len(data))}
	}
	return data[HeaderLen:], nil
}
