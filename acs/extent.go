package acs

// CodeExtentInputs collects the candidate "later offset" sets used by
// extent inference (§4.5). Constructing this once per file avoids
// re-walking chunks for every script/function whose extent is needed.
type CodeExtentInputs struct {
	n                int
	scriptOffsets    []int // ACSE only: SPTR entry offsets
	funcOffsets      []int // ACSE only: FUNC entry offsets
	directoryOffset  int
	stringOffset     int
	hasDirectory     bool
	dirEntryOffsets  []int // ACS0/indirect: individual script-directory entry offsets
	strEntryOffsets  []int // ACS0/indirect: individual string-directory offsets
	chunkOffset      int
	hasChunkOffset   bool
}

// NewCodeExtentInputs gathers the candidate offset sets from a resolved
// layout and its decoded SPTR/FUNC chunks and (when present) ACS0-style
// script/string directories.
func NewCodeExtentInputs(n int, layout *Layout, sptr []ScriptEntry, funcs []FuncEntry, dirEntries []ScriptEntry, stringDirOffsets []int32) *CodeExtentInputs {
	in := &CodeExtentInputs{
		n:              n,
		hasDirectory:   layout.HasScriptDirectory,
		hasChunkOffset: layout.HasChunkOffset && layout.Format != FormatZero,
	}
	if in.hasDirectory {
		in.directoryOffset = layout.DirectoryOffset
		in.stringOffset = layout.StringOffset
		for _, e := range dirEntries {
			in.dirEntryOffsets = append(in.dirEntryOffsets, e.Offset)
		}
		for _, o := range stringDirOffsets {
			in.strEntryOffsets = append(in.strEntryOffsets, int(o))
		}
	}
	if in.hasChunkOffset {
		in.chunkOffset = layout.ChunkOffset
	}
	if layout.Format == FormatBigE || layout.Format == FormatLittleE {
		for _, e := range sptr {
			in.scriptOffsets = append(in.scriptOffsets, e.Offset)
		}
		for _, f := range funcs {
			if !f.Imported() {
				in.funcOffsets = append(in.funcOffsets, int(f.Offset))
			}
		}
	}
	return in
}

// CodeSize returns a conservative upper bound on the byte length of code
// starting at offset: the minimum of N and every candidate offset from
// §4.5's five sets that is strictly greater than offset.
func (in *CodeExtentInputs) CodeSize(offset int) int {
	end := in.n
	tighten := func(cand int) {
		if cand > offset && cand < end {
			end = cand
		}
	}
	for _, o := range in.scriptOffsets {
		tighten(o)
	}
	for _, o := range in.funcOffsets {
		tighten(o)
	}
	for _, o := range in.dirEntryOffsets {
		tighten(o)
	}
	for _, o := range in.strEntryOffsets {
		tighten(o)
	}
	if in.hasDirectory {
		tighten(in.directoryOffset)
		tighten(in.stringOffset)
	}
	if in.hasChunkOffset {
		tighten(in.chunkOffset)
	}
	if end < offset {
		end = offset
	}
	return end - offset
}
