package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a bytecode segment ends before an
// instruction's fields are fully readable.
var ErrTruncated = errors.New("truncated bytecode")

// ErrUnknownOpcode is returned when an opcode id falls outside the
// fixed table range (§4.6: unknown opcodes end disassembly, no resync).
var ErrUnknownOpcode = errors.New("unknown opcode")

// CaseEntry is one (value, target) pair of a CASEGOTOSORTED table,
// carrying its own pc so the disassembler can print a per-case line.
type CaseEntry struct {
	PC     int
	Value  int32
	Target int32
}

// Instruction is one decoded pcode instruction.
type Instruction struct {
	PC     int
	Opcode int
	Name   string
	Ints   []int32 // generic integer arguments, in encoding order
	Cases  []CaseEntry
}

// Decoder decodes a bytecode segment already isolated by the caller
// (via extent inference and a bounds-checked buffer read); every field
// read within the segment is still bounds-checked against len(data).
type Decoder struct {
	Data      []byte
	SmallCode bool
	// Base is the absolute file offset corresponding to Data[0]. Decoded
	// instruction and case PCs are reported in file coordinates
	// (Base + position), and CASEGOTOSORTED's alignment rule pads to a
	// 4-byte boundary in the file's own coordinate space, not the
	// segment's (the reference computes alignment from the instruction's
	// absolute file position).
	Base int
}

func (d *Decoder) requireAvail(pos, n int) error {
	if pos < 0 || pos+n > len(d.Data) {
		return fmt.Errorf("%w: need %d bytes at %d, have %d", ErrTruncated, n, pos, len(d.Data))
	}
	return nil
}

func (d *Decoder) u8(pos int) (uint8, error) {
	if err := d.requireAvail(pos, 1); err != nil {
		return 0, err
	}
	return d.Data[pos], nil
}

func (d *Decoder) i32(pos int) (int32, error) {
	if err := d.requireAvail(pos, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(d.Data[pos:])), nil
}

func (d *Decoder) i16(pos int) (int16, error) {
	if err := d.requireAvail(pos, 2); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(d.Data[pos:])), nil
}

// readOpcode reads the opcode id at pos, per §4.6's two encodings, and
// returns the id and the position after the opcode field.
func (d *Decoder) readOpcode(pos int) (int, int, error) {
	if !d.SmallCode {
		v, err := d.i32(pos)
		if err != nil {
			return 0, pos, err
		}
		return int(v), pos + 4, nil
	}
	b, err := d.u8(pos)
	if err != nil {
		return 0, pos, err
	}
	pos++
	opc := int(b)
	if opc >= 240 {
		b2, err := d.u8(pos)
		if err != nil {
			return 0, pos, err
		}
		pos++
		opc += int(b2)
	}
	return opc, pos, nil
}

// readSmallScaledInt reads the "1 integer arg, scaled by small_code"
// class: one signed byte if SmallCode, else a 4-byte int.
func (d *Decoder) readSmallScaledInt(pos int) (int32, int, error) {
	if d.SmallCode {
		v, err := d.u8(pos)
		if err != nil {
			return 0, pos, err
		}
		return int32(int8(v)), pos + 1, nil
	}
	v, err := d.i32(pos)
	if err != nil {
		return 0, pos, err
	}
	return v, pos + 4, nil
}

// readLspecID reads the LSPECnDIRECT id field: one byte if SmallCode,
// else 4 bytes (§4.6 "note asymmetry" — the id shrinks with small_code
// but the following n arguments stay full-width regardless).
func (d *Decoder) readLspecID(pos int) (int32, int, error) {
	if d.SmallCode {
		v, err := d.u8(pos)
		if err != nil {
			return 0, pos, err
		}
		return int32(v), pos + 1, nil
	}
	v, err := d.i32(pos)
	if err != nil {
		return 0, pos, err
	}
	return v, pos + 4, nil
}

// DecodeAt decodes the instruction whose opcode field starts at pos,
// returning the instruction, the position just past it, and an error if
// the opcode is unknown or a field ran off the end of the segment.
func (d *Decoder) DecodeAt(pos int) (Instruction, int, error) {
	opcodePos := d.Base + pos
	opc, next, err := d.readOpcode(pos)
	if err != nil {
		return Instruction{}, pos, err
	}
	info, ok := Lookup(opc)
	if !ok {
		return Instruction{PC: opcodePos, Opcode: opc}, next, fmt.Errorf("%w: opcode %d at offset %d", ErrUnknownOpcode, opc, opcodePos)
	}

	instr := Instruction{PC: opcodePos, Opcode: opc, Name: info.Name}

	switch info.Class {
	case ClassNone:
		// no immediates

	case ClassSmallInt:
		v, p, err := d.readSmallScaledInt(next)
		if err != nil {
			return instr, next, err
		}
		instr.Ints = []int32{v}
		next = p

	case ClassIntArgs:
		ints := make([]int32, 0, info.N)
		p := next
		for i := 0; i < info.N; i++ {
			v, err := d.i32(p)
			if err != nil {
				return instr, next, err
			}
			ints = append(ints, v)
			p += 4
		}
		instr.Ints = ints
		next = p

	case ClassLspecDirect:
		id, p, err := d.readLspecID(next)
		if err != nil {
			return instr, next, err
		}
		ints := make([]int32, 0, info.N+1)
		ints = append(ints, id)
		for i := 0; i < info.N; i++ {
			v, err := d.i32(p)
			if err != nil {
				return instr, next, err
			}
			ints = append(ints, v)
			p += 4
		}
		instr.Ints = ints
		next = p

	case ClassByteArgs:
		p := next
		ints := make([]int32, 0, info.N)
		for i := 0; i < info.N; i++ {
			v, err := d.u8(p)
			if err != nil {
				return instr, next, err
			}
			ints = append(ints, int32(int8(v)))
			p++
		}
		instr.Ints = ints
		next = p

	case ClassByteCounted:
		count, err := d.u8(next)
		if err != nil {
			return instr, next, err
		}
		p := next + 1
		ints := make([]int32, 0, count)
		for i := 0; i < int(count); i++ {
			v, err := d.u8(p)
			if err != nil {
				return instr, next, err
			}
			ints = append(ints, int32(int8(v)))
			p++
		}
		instr.Ints = ints
		next = p

	case ClassCaseTable:
		p := next
		// Alignment is computed in the file's own coordinate space
		// (the reference derives it from the instruction's absolute
		// file offset), not from the segment's local zero.
		if rem := (d.Base + p) % 4; rem != 0 {
			p += 4 - rem
		}
		count, err := d.i32(p)
		if err != nil {
			return instr, next, err
		}
		p += 4
		if count < 0 {
			return instr, next, fmt.Errorf("%w: negative case count %d at offset %d", ErrTruncated, count, p-4)
		}
		if remaining := len(d.Data) - p; int64(count)*8 > int64(remaining) {
			return instr, next, fmt.Errorf("%w: case count %d exceeds remaining segment bytes %d", ErrTruncated, count, remaining)
		}
		cases := make([]CaseEntry, 0, count)
		for i := int32(0); i < count; i++ {
			casePC := d.Base + p
			value, err := d.i32(p)
			if err != nil {
				return instr, next, err
			}
			p += 4
			target, err := d.i32(p)
			if err != nil {
				return instr, next, err
			}
			p += 4
			cases = append(cases, CaseEntry{PC: casePC, Value: value, Target: target})
		}
		instr.Cases = cases
		next = p

	case ClassCallFunc:
		var numArgs, index int32
		var p int
		if d.SmallCode {
			v, err := d.u8(next)
			if err != nil {
				return instr, next, err
			}
			numArgs = int32(int8(v))
			p = next + 1
			iv, err := d.i16(p)
			if err != nil {
				return instr, next, err
			}
			index = int32(iv)
			p += 2
		} else {
			v, err := d.i32(next)
			if err != nil {
				return instr, next, err
			}
			numArgs = v
			p = next + 4
			iv, err := d.i32(p)
			if err != nil {
				return instr, next, err
			}
			index = iv
			p += 4
		}
		instr.Ints = []int32{numArgs, index}
		next = p

	default:
		return instr, next, fmt.Errorf("bytecode: unhandled arg class %q for opcode %q", info.Class, info.Name)
	}

	return instr, next, nil
}
