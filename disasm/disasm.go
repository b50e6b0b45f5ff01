// Package disasm implements the bytecode disassembler (L6): decoding a
// variable-width pcode instruction stream into the line-oriented text
// format of the object-file dump.
package disasm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doomtools/acsdump/acs"
	"github.com/doomtools/acsdump/bytecode"
)

// Segment describes one bytecode region to disassemble: the bytes
// themselves (already isolated by extent inference and a bounds-checked
// buffer read) and the absolute file offset the bytes start at.
type Segment struct {
	Data      []byte
	Base      int
	SmallCode bool
}

// Disassemble decodes seg into the line-oriented text format of §4.6:
// one line per instruction ("{pc:08d}> {mnemonic} {args}"), with
// CASEGOTOSORTED's line ending in " num-cases=N" and followed by one
// "{pc:08d}>   case V: T" line per case. Mode governs whether an unknown opcode or truncated field
// is fatal (Strict) or recorded as a diagnostic and treated as the end
// of the segment (BestEffort) — §4.6 states an unknown opcode always
// ends disassembly of the segment; BestEffort differs only in whether
// that also fails the whole run.
func Disassemble(seg Segment, opt acs.Options) (acs.Result[string], error) {
	d := &bytecode.Decoder{Data: seg.Data, SmallCode: seg.SmallCode, Base: seg.Base}
	var b strings.Builder
	var diags []acs.Diagnostic
	maxSteps := opt.EffectiveMaxSteps()

	pos := 0
	steps := 0
	for pos < len(seg.Data) {
		steps++
		if steps > maxSteps {
			diag := acs.Diagnostic{Offset: seg.Base + pos, Kind: "overflow", Msg: fmt.Sprintf("step limit %d reached, truncating disassembly", maxSteps)}
			if opt.Mode == acs.Strict {
				return acs.Result[string]{Value: b.String(), Diags: diags}, fmt.Errorf("%w: %s", acs.ErrIllFormed, diag.Msg)
			}
			diags = append(diags, diag)
			break
		}

		instr, next, err := d.DecodeAt(pos)
		if err != nil {
			if errors.Is(err, bytecode.ErrUnknownOpcode) {
				diag := acs.Diagnostic{Offset: instr.PC, Kind: "unknown_opcode", Msg: err.Error()}
				if opt.Mode == acs.Strict {
					return acs.Result[string]{Value: b.String(), Diags: diags}, fmt.Errorf("%w: %v", acs.ErrIllFormed, err)
				}
				diags = append(diags, diag)
				break
			}
			diag := acs.Diagnostic{Offset: seg.Base + pos, Kind: "truncated", Msg: err.Error()}
			if opt.Mode == acs.Strict {
				return acs.Result[string]{Value: b.String(), Diags: diags}, fmt.Errorf("%w: %v", acs.ErrIllFormed, err)
			}
			diags = append(diags, diag)
			break
		}

		writeInstruction(&b, instr)
		pos = next
	}

	return acs.Result[string]{Value: b.String(), Diags: diags}, nil
}

// writeInstruction renders one decoded instruction in the fixed
// "{pc:08d}> {mnemonic}{args}" line format; a CASEGOTOSORTED line also
// carries a " num-cases=N" suffix and is followed by one sub-line per case.
func writeInstruction(b *strings.Builder, instr bytecode.Instruction) {
	fmt.Fprintf(b, "%08d> %s", instr.PC, instr.Name)
	for _, v := range instr.Ints {
		fmt.Fprintf(b, " %d", v)
	}
	if instr.Name == "casegotosorted" || len(instr.Cases) > 0 {
		fmt.Fprintf(b, " num-cases=%d", len(instr.Cases))
	}
	b.WriteByte('\n')
	for _, c := range instr.Cases {
		fmt.Fprintf(b, "%08d>   case %d: %d\n", c.PC, c.Value, c.Target)
	}
}
