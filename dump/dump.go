// Package dump implements the dispatcher (L7): the three top-level
// operations on a resolved object file (show-object, list-chunks,
// view-chunk), each producing the line-oriented text format of the
// object-file dump and a RunID-tagged trail of glog diagnostics.
package dump

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/doomtools/acsdump/acs"
	"github.com/doomtools/acsdump/disasm"
)

// ShowObject dumps the whole file: the format header, every chunk (with
// contents), and — for ACS0/indirect files — the script and string
// directories, disassembling each script body.
func ShowObject(f *acs.File) (acs.Result[string], error) {
	runID := uuid.New()
	glog.V(1).Infof("run=%s dispatch=show-object", runID)

	var b strings.Builder
	var diags []acs.Diagnostic

	writeHeader(&b, f.Layout)

	extent, chunks, err := buildExtent(f)
	if err != nil {
		return acs.Result[string]{Value: b.String(), Diags: diags}, err
	}

	if f.Layout.HasChunkOffset {
		for _, c := range chunks {
			glog.V(2).Infof("run=%s chunk=%s offset=%d size=%d", runID, c.Name, c.DataOffset, c.Size)
			fmt.Fprintf(&b, "-- %s (offset=%d size=%d)\n", c.Name, c.DataOffset, c.Size)
			d, err := renderChunk(&b, f, c, extent, runID)
			diags = append(diags, d...)
			if err != nil {
				return acs.Result[string]{Value: b.String(), Diags: diags}, err
			}
		}
	}

	if f.Layout.HasScriptDirectory {
		d, err := renderDirectories(&b, f, extent, runID)
		diags = append(diags, d...)
		if err != nil {
			return acs.Result[string]{Value: b.String(), Diags: diags}, err
		}
	}

	return acs.Result[string]{Value: b.String(), Diags: diags}, nil
}

// buildExtent gathers every candidate "later offset" set that applies
// to this file (§4.5) into one CodeExtentInputs shared by every
// disassembly call the dispatcher makes, and returns the file's walked
// chunks as a side effect so callers need not walk twice.
func buildExtent(f *acs.File) (*acs.CodeExtentInputs, []acs.Chunk, error) {
	var chunks []acs.Chunk
	var sptrEntries []acs.ScriptEntry
	var funcEntries []acs.FuncEntry
	if f.Layout.HasChunkOffset {
		var err error
		chunks, err = acs.WalkChunks(f.Buf, f.Layout, f.Opt)
		if err != nil {
			return nil, chunks, err
		}
		for _, c := range chunks {
			switch c.Tag {
			case acs.TagSPTR:
				es, err := acs.DecodeSPTR(f.Buf, c, f.Layout)
				if err != nil {
					return nil, chunks, err
				}
				sptrEntries = append(sptrEntries, es...)
			case acs.TagFUNC:
				es, err := acs.DecodeFUNC(f.Buf, c)
				if err != nil {
					return nil, chunks, err
				}
				funcEntries = append(funcEntries, es...)
			}
		}
	}

	var dirEntries []acs.ScriptEntry
	var strOffsets []int32
	if f.Layout.HasScriptDirectory {
		var err error
		dirEntries, err = acs.DecodeScriptDirectory(f.Buf, f.Layout)
		if err != nil {
			return nil, chunks, err
		}
		strs, err := acs.DecodeStringDirectory(f.Buf, f.Layout)
		if err != nil {
			return nil, chunks, err
		}
		strOffsets = acs.StringDirectoryOffsets(strs)
	}

	extent := acs.NewCodeExtentInputs(f.Buf.Len(), f.Layout, sptrEntries, funcEntries, dirEntries, strOffsets)
	return extent, chunks, nil
}

// ListChunks lists one header line per chunk. Restricted to ACSE/ACSe.
func ListChunks(f *acs.File) (acs.Result[string], error) {
	runID := uuid.New()
	glog.V(1).Infof("run=%s dispatch=list-chunks", runID)
	if !f.Layout.HasChunkOffset {
		return acs.Result[string]{}, fmt.Errorf("%w: list-chunks requires format %s or %s, file is %s",
			acs.ErrUnsupportedOperation, acs.FormatBigE, acs.FormatLittleE, f.Layout.Format)
	}
	chunks, err := acs.WalkChunks(f.Buf, f.Layout, f.Opt)
	if err != nil {
		return acs.Result[string]{}, err
	}
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "-- %s (offset=%d size=%d)\n", c.Name, c.DataOffset, c.Size)
	}
	return acs.Result[string]{Value: b.String()}, nil
}

// ViewChunk dumps only the chunks whose name matches (case-insensitive).
// Restricted to ACSE/ACSe.
func ViewChunk(f *acs.File, name string) (acs.Result[string], error) {
	runID := uuid.New()
	glog.V(1).Infof("run=%s dispatch=view-chunk chunk=%s", runID, name)
	if !f.Layout.HasChunkOffset {
		return acs.Result[string]{}, fmt.Errorf("%w: view-chunk requires format %s or %s, file is %s",
			acs.ErrUnsupportedOperation, acs.FormatBigE, acs.FormatLittleE, f.Layout.Format)
	}
	chunks, err := acs.ViewChunks(f.Buf, f.Layout, f.Opt, name)
	if err != nil {
		return acs.Result[string]{}, err
	}
	if len(chunks) == 0 {
		return acs.Result[string]{Value: "not found\n"}, nil
	}

	extent, _, err := buildExtent(f)
	if err != nil {
		return acs.Result[string]{}, err
	}

	var b strings.Builder
	var diags []acs.Diagnostic
	for _, c := range chunks {
		fmt.Fprintf(&b, "-- %s (offset=%d size=%d)\n", c.Name, c.DataOffset, c.Size)
		d, err := renderChunk(&b, f, c, extent, runID)
		diags = append(diags, d...)
		if err != nil {
			return acs.Result[string]{Value: b.String(), Diags: diags}, err
		}
	}
	return acs.Result[string]{Value: b.String(), Diags: diags}, nil
}

func writeHeader(b *strings.Builder, l *acs.Layout) {
	if l.Indirect {
		fmt.Fprintf(b, "format: %s (indirect)\n", l.Format)
		return
	}
	fmt.Fprintf(b, "format: %s\n", l.Format)
}

var scriptTypeNames = map[int]string{
	0: "closed", 1: "open", 2: "respawn", 3: "death", 4: "enter",
	5: "pickup", 6: "bluereturn", 7: "redreturn", 8: "whitereturn",
	12: "lightning", 13: "unloading", 14: "disconnect", 15: "return",
	16: "event", 17: "kill",
}

func scriptTypeName(t int) (string, bool) {
	name, ok := scriptTypeNames[t]
	return name, ok
}

// renderChunk writes one chunk's content lines and returns any
// non-fatal diagnostics accumulated while decoding it. An unrecognized
// tag or an unsupported ATAG version is a continue-and-record
// condition (§7 UnsupportedChunk/UnsupportedChunkVersion), never fatal.
func renderChunk(b *strings.Builder, f *acs.File, c acs.Chunk, extent *acs.CodeExtentInputs, runID uuid.UUID) ([]acs.Diagnostic, error) {
	var diags []acs.Diagnostic

	switch c.Tag {
	case acs.TagARAY:
		entries, err := acs.DecodeARAY(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "number=%d size=%d\n", e.Number, e.Size)
		}

	case acs.TagAINI:
		d, err := acs.DecodeAINI(f.Buf, c)
		if err != nil {
			return diags, err
		}
		fmt.Fprintf(b, "index=%d values=%s\n", d.Index, joinInts(d.Values))

	case acs.TagAIMP:
		entries, err := acs.DecodeAIMP(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d size=%d name=%s\n", e.Index, e.Size, e.Name)
		}

	case acs.TagASTR, acs.TagMSTR:
		indices, err := acs.DecodeASTRLike(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, idx := range indices {
			fmt.Fprintf(b, "string-index=%d\n", idx)
		}

	case acs.TagATAG:
		d, err := acs.DecodeATAG(f.Buf, c)
		if err != nil {
			return diags, err
		}
		if !d.Supported {
			diags = append(diags, acs.Diagnostic{Offset: c.DataOffset, Kind: "unsupported_chunk_version", Msg: fmt.Sprintf("ATAG version %d not supported", d.Version), Func: c.Name})
			fmt.Fprintf(b, "version=%d (unsupported)\n", d.Version)
			break
		}
		fmt.Fprintf(b, "version=%d array-index=%d tags=%s\n", d.Version, d.ArrayIndex, joinTags(d.ElementTags))

	case acs.TagLOAD:
		names, err := acs.DecodeLOAD(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, n := range names {
			fmt.Fprintf(b, "imported-module=%s\n", n)
		}

	case acs.TagFUNC:
		entries, err := acs.DecodeFUNC(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for i, e := range entries {
			fmt.Fprintf(b, "index=%d params=%d size=%d has-return=%d offset=%d\n", i, e.NumParam, e.Size, e.HasReturn, e.Offset)
			if e.Imported() {
				b.WriteString("(imported)\n")
				continue
			}
			d, err := disassembleAt(f, int(e.Offset), extent)
			diags = append(diags, d.Diags...)
			if err != nil {
				diags = append(diags, acs.Diagnostic{Offset: int(e.Offset), Kind: "warning", Msg: err.Error(), Func: c.Name})
				continue
			}
			b.WriteString(d.Value)
		}

	case acs.TagFNAM:
		entries, err := acs.DecodeFNAM(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d name=%s\n", e.Index, e.Name)
		}

	case acs.TagMINI:
		d, err := acs.DecodeMINI(f.Buf, c)
		if err != nil {
			return diags, err
		}
		fmt.Fprintf(b, "first-var=%d values=%s\n", d.FirstVar, joinInts(d.Values))

	case acs.TagMIMP:
		entries, err := acs.DecodeMIMP(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d name=%s\n", e.Index, e.Name)
		}

	case acs.TagMEXP:
		entries, err := acs.DecodeMEXP(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d name=%s\n", e.Index, e.Name)
		}

	case acs.TagSPTR:
		entries, err := acs.DecodeSPTR(f.Buf, c, f.Layout)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "script=%d ", e.Number)
			if name, ok := scriptTypeName(e.Type); ok {
				fmt.Fprintf(b, "type=%s ", name)
			} else {
				fmt.Fprintf(b, "type=unknown:%d ", e.Type)
			}
			fmt.Fprintf(b, "params=%d offset=%d\n", e.NumParam, e.Offset)
			d, err := disassembleAt(f, e.Offset, extent)
			diags = append(diags, d.Diags...)
			if err != nil {
				diags = append(diags, acs.Diagnostic{Offset: e.Offset, Kind: "warning", Msg: err.Error(), Func: c.Name})
				continue
			}
			b.WriteString(d.Value)
		}

	case acs.TagSFLG:
		entries, err := acs.DecodeSFLG(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "script=%d flags=%s\n", e.Number, e.FlagString())
		}

	case acs.TagSVCT:
		entries, err := acs.DecodeSVCT(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "script=%d new-size=%d\n", e.Number, e.NewSize)
		}

	case acs.TagSNAM:
		entries, err := acs.DecodeSNAM(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "number=%d name=%s\n", acs.NumberFor(e.Index), e.Name)
		}

	case acs.TagSTRL:
		entries, err := acs.DecodeSTRL(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d value=%q\n", e.Index, e.Value)
		}

	case acs.TagSTRE:
		entries, err := acs.DecodeSTRE(f.Buf, c)
		if err != nil {
			return diags, err
		}
		for _, e := range entries {
			fmt.Fprintf(b, "index=%d value=%q\n", e.Index, e.Value)
		}

	case acs.TagSARY:
		d, err := acs.DecodeSARY(f.Buf, c)
		if err != nil {
			return diags, err
		}
		fmt.Fprintf(b, "owner=%d sizes=%s\n", d.OwnerIndex, joinInts(d.Sizes))

	case acs.TagFARY:
		d, err := acs.DecodeFARY(f.Buf, c)
		if err != nil {
			return diags, err
		}
		fmt.Fprintf(b, "owner=%d sizes=%s\n", d.OwnerIndex, joinInts(d.Sizes))

	case acs.TagALIB:
		b.WriteString("(library marker)\n")

	default:
		glog.V(1).Infof("run=%s chunk=%s tag unrecognized", runID, c.Name)
		diags = append(diags, acs.Diagnostic{Offset: c.DataOffset, Kind: "unsupported_chunk", Msg: "chunk not supported", Func: c.Name})
		b.WriteString("(chunk not supported)\n")
	}

	return diags, nil
}

// renderDirectories dumps the ACS0-style script and string directories,
// disassembling every script body found in the script directory.
func renderDirectories(b *strings.Builder, f *acs.File, extent *acs.CodeExtentInputs, runID uuid.UUID) ([]acs.Diagnostic, error) {
	var diags []acs.Diagnostic

	scripts, err := acs.DecodeScriptDirectory(f.Buf, f.Layout)
	if err != nil {
		return diags, err
	}
	strs, err := acs.DecodeStringDirectory(f.Buf, f.Layout)
	if err != nil {
		return diags, err
	}

	fmt.Fprintf(b, "== script directory (offset=%d)\n", f.Layout.DirectoryOffset)
	fmt.Fprintf(b, "total-scripts=%d\n", len(scripts))
	for _, e := range scripts {
		fmt.Fprintf(b, "script=%d ", e.Number)
		if name, ok := scriptTypeName(e.Type); ok {
			fmt.Fprintf(b, "type=%s ", name)
		} else {
			fmt.Fprintf(b, "type=unknown:%d ", e.Type)
		}
		fmt.Fprintf(b, "params=%d offset=%d\n", e.NumParam, e.Offset)
		d, err := disassembleAt(f, e.Offset, extent)
		diags = append(diags, d.Diags...)
		if err != nil {
			glog.V(1).Infof("run=%s script=%d offset=%d out of range: %v", runID, e.Number, e.Offset, err)
			diags = append(diags, acs.Diagnostic{Offset: e.Offset, Kind: "warning", Msg: err.Error()})
			continue
		}
		b.WriteString(d.Value)
	}

	fmt.Fprintf(b, "== string directory (offset=%d)\n", f.Layout.StringOffset)
	fmt.Fprintf(b, "total-strings=%d\n", len(strs))
	for _, e := range strs {
		fmt.Fprintf(b, "index=%d value=%q\n", e.Index, e.Value)
	}

	return diags, nil
}

// disassembleAt isolates the bytecode segment starting at offset via
// extent inference, then disassembles it. A script/function offset
// that lands outside the file is reported as a Warning (§7): the
// caller records the diagnostic and skips the body, but continues
// processing remaining entries.
func disassembleAt(f *acs.File, offset int, extent *acs.CodeExtentInputs) (acs.Result[string], error) {
	if !f.Buf.OffsetInFile(offset) {
		return acs.Result[string]{}, fmt.Errorf("%w: code offset %d outside file", acs.ErrIllFormed, offset)
	}
	size := extent.CodeSize(offset)
	data, err := f.Buf.Slice(offset, size)
	if err != nil {
		return acs.Result[string]{}, err
	}
	seg := disasm.Segment{Data: data, Base: offset, SmallCode: f.Layout.SmallCode}
	return disasm.Disassemble(seg, f.Opt)
}

func joinInts(vs []int32) string {
	var b strings.Builder
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}

func joinTags(ts []uint8) string {
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", t)
	}
	return b.String()
}
