// Package ndb reads and writes the line-oriented debug-symbols text
// format (spec.md §6 "Debug symbols file (.ndb)"): file names, function
// entry metadata, a byte-address-to-source-line table, and local
// variable live ranges, each as its own record kind on its own line.
//
// Record kinds, one per line, fields space-separated:
//
//	N <index> <filename>
//	f <addrHex8> <endAddrHex8> <name> <returnType> <paramCount> [<type> <name>]...
//	l <addrHex8> <fileIndex> <line>
//	v <name> <offset> <type> <beginHex8> <endHex8>
//
// Records appear grouped by kind, each group in ascending address order,
// matching spec.md §6's ordering requirement.
package ndb

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"nwnsc/internal/codegen"
)

// Param is one function parameter as recorded in an 'f' line.
type Param struct {
	Type string
	Name string
}

// FuncRecord is one parsed 'f' line.
type FuncRecord struct {
	Name    string
	Addr    uint32
	Return  string
	Params  []Param
	EndAddr uint32
}

// LineRecord is one parsed 'l' line.
type LineRecord struct {
	Addr uint32
	File uint32
	Line uint32
}

// VarRecord is one parsed 'v' line.
type VarRecord struct {
	Name   string
	Offset int32
	Type   string
	Begin  uint32
	End    uint32
}

// Symbols is the full set of records Parse recovers from an .ndb file.
type Symbols struct {
	Files []string
	Funcs []FuncRecord
	Lines []LineRecord
	Vars  []VarRecord
}

// Write renders res's debug metadata as .ndb text.
func Write(res codegen.Result) []byte {
	var b bytes.Buffer
	for i, name := range res.FileNames {
		fmt.Fprintf(&b, "N %d %s\n", i, name)
	}
	for _, f := range res.Funcs {
		fmt.Fprintf(&b, "f %08X %08X %s %s %d", f.Addr, f.EndAddr, f.Name, f.Return.String(), len(f.Params))
		for _, p := range f.Params {
			fmt.Fprintf(&b, " %s %s", p.Type.String(), p.Name)
		}
		b.WriteByte('\n')
	}
	for _, l := range res.Lines {
		fmt.Fprintf(&b, "l %08X %d %d\n", l.Addr, l.File, l.Line)
	}
	for _, f := range res.Funcs {
		for _, v := range f.Locals {
			end := v.End
			if end == 0 {
				end = f.EndAddr
			}
			fmt.Fprintf(&b, "v %s %d %s %08X %08X\n", v.Name, v.Offset, v.Type.String(), v.Begin, end)
		}
	}
	return b.Bytes()
}

// ErrMalformed is returned by Parse for a line that doesn't match its
// record kind's expected field count.
type ErrMalformed struct {
	Line int
	Text string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("ndb: malformed record at line %d: %q", e.Line, e.Text)
}

// Parse reads an .ndb text stream into Symbols.
func Parse(data []byte) (*Symbols, error) {
	sym := &Symbols{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "N":
			if len(fields) < 3 {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			sym.Files = append(sym.Files, strings.Join(fields[2:], " "))
		case "f":
			if len(fields) < 6 {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			addr, err1 := parseHex32(fields[1])
			endAddr, err2 := parseHex32(fields[2])
			count, err3 := strconv.Atoi(fields[5])
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			fr := FuncRecord{Addr: addr, EndAddr: endAddr, Name: fields[3], Return: fields[4]}
			rest := fields[6:]
			for i := 0; i < count && i*2+1 < len(rest); i++ {
				fr.Params = append(fr.Params, Param{Type: rest[i*2], Name: rest[i*2+1]})
			}
			sym.Funcs = append(sym.Funcs, fr)
		case "l":
			if len(fields) < 4 {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			addr, err1 := parseHex32(fields[1])
			file, err2 := strconv.ParseUint(fields[2], 10, 32)
			ln, err3 := strconv.ParseUint(fields[3], 10, 32)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			sym.Lines = append(sym.Lines, LineRecord{Addr: addr, File: uint32(file), Line: uint32(ln)})
		case "v":
			if len(fields) < 6 {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			offset, err1 := strconv.ParseInt(fields[2], 10, 32)
			begin, err2 := parseHex32(fields[4])
			end, err3 := parseHex32(fields[5])
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, &ErrMalformed{Line: lineNo, Text: line}
			}
			sym.Vars = append(sym.Vars, VarRecord{
				Name: fields[1], Offset: int32(offset), Type: fields[3], Begin: begin, End: end,
			})
		default:
			return nil, &ErrMalformed{Line: lineNo, Text: line}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sym, nil
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

// FuncAt returns the function whose address range contains addr, if any,
// used by internal/disasm to annotate an instruction's enclosing function.
func (s *Symbols) FuncAt(addr uint32) (FuncRecord, bool) {
	for _, f := range s.Funcs {
		if addr >= f.Addr && (f.EndAddr == 0 || addr < f.EndAddr) {
			return f, true
		}
	}
	return FuncRecord{}, false
}

// VarAt returns the variable live at addr whose stack offset matches
// offset, used by internal/disasm to render a CPTOPSP/CPDOWNSP operand as
// a name instead of a raw offset.
func (s *Symbols) VarAt(addr uint32, offset int32) (VarRecord, bool) {
	for _, v := range s.Vars {
		if v.Offset == offset && addr >= v.Begin && addr < v.End {
			return v, true
		}
	}
	return VarRecord{}, false
}
