// Package bytecode holds the opcode metadata table for the ACS pcode
// instruction set and the bounds-checked operand decoders that use it.
package bytecode

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ArgClass identifies how an opcode's arguments are encoded (§4.6).
type ArgClass string

const (
	ClassNone        ArgClass = "none"         // no immediates
	ClassIntArgs     ArgClass = "int_args"     // N x 4-byte integers, N from table (default class)
	ClassSmallInt    ArgClass = "small_int"    // 1 integer, scaled by small_code (1 byte or 4)
	ClassLspecDirect ArgClass = "lspec_direct" // id (1 or 4 bytes by small_code), then N x i32
	ClassByteArgs    ArgClass = "byte_args"    // N fixed bytes, always u8
	ClassByteCounted ArgClass = "byte_counted" // count: u8, then count x u8 (PUSHBYTES)
	ClassCaseTable   ArgClass = "case_table"   // CASEGOTOSORTED: aligned count + (value,target) pairs
	ClassCallFunc    ArgClass = "callfunc"     // polymorphic num_args/index encoding
)

// OpInfo holds the metadata for one opcode: its mnemonic and the class
// of argument decoding it requires.
type OpInfo struct {
	ID    int      `yaml:"id"`
	Name  string   `yaml:"name"`
	Class ArgClass `yaml:"class"`
	N     int      `yaml:"n"`
}

type opcodeFile struct {
	Opcodes []OpInfo `yaml:"opcodes"`
}

//go:embed opcodes.yaml
var opcodesYAML []byte

// Table holds every opcode indexed by opcode id, decoded once from the
// embedded declarative source file (§9 "static opcode table").
var Table []OpInfo

func init() {
	var f opcodeFile
	if err := yaml.Unmarshal(opcodesYAML, &f); err != nil {
		panic(fmt.Sprintf("bytecode: malformed embedded opcodes.yaml: %v", err))
	}
	Table = make([]OpInfo, len(f.Opcodes))
	for _, op := range f.Opcodes {
		if op.ID < 0 || op.ID >= len(f.Opcodes) {
			panic(fmt.Sprintf("bytecode: opcode id %d out of range in opcodes.yaml", op.ID))
		}
		Table[op.ID] = op
	}
}

// Total is the number of opcodes fixed by the embedded table.
func Total() int { return len(Table) }

// Lookup returns the OpInfo for opcode id, or false if id is out of the
// fixed range (§4.6: unknown opcodes end disassembly of the segment).
func Lookup(id int) (OpInfo, bool) {
	if id < 0 || id >= len(Table) {
		return OpInfo{}, false
	}
	return Table[id], true
}
