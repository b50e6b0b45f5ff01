package acs

import "fmt"

// ScriptEntry is the common projection of both ACSE script-table shapes
// (direct and indirect) and of an ACS0 directory entry.
type ScriptEntry struct {
	Number         int
	Type           int
	NumParam       int
	Offset         int
	BytesConsumed  int
}

const acsEDirectEntrySize = 12
const acsEIndirectEntrySize = 8

// DecodeACS0DirectoryEntry decodes one 12-byte ACS0 script-directory
// record at p: (number, offset, num_param), each little-endian i32.
// number encodes (type*1000 + user_number).
func DecodeACS0DirectoryEntry(buf *Buffer, p int) (ScriptEntry, error) {
	if err := buf.RequireBytes(p, acs0EntrySize); err != nil {
		return ScriptEntry{}, err
	}
	number, err := buf.I32(p)
	if err != nil {
		return ScriptEntry{}, err
	}
	offset, err := buf.I32(p + 4)
	if err != nil {
		return ScriptEntry{}, err
	}
	numParam, err := buf.I32(p + 8)
	if err != nil {
		return ScriptEntry{}, err
	}
	return ScriptEntry{
		Number:        int(number) % 1000,
		Type:          int(number) / 1000,
		Offset:        int(offset),
		NumParam:      int(numParam),
		BytesConsumed: acs0EntrySize,
	}, nil
}

// DecodeSPTREntry decodes one script-table entry from an SPTR chunk at
// file offset p, which must lie inside the chunk scope s. The record shape depends on layout.Indirect, not
// on the format name (§3, ACSE script-table entry).
func DecodeSPTREntry(s *ChunkScope, p int, layout *Layout) (ScriptEntry, error) {
	if layout.Indirect {
		if err := s.RequireInScope(p, acsEIndirectEntrySize); err != nil {
			return ScriptEntry{}, err
		}
		number, err := s.I16(p)
		if err != nil {
			return ScriptEntry{}, err
		}
		typ, err := s.U8(p + 2)
		if err != nil {
			return ScriptEntry{}, err
		}
		numParam, err := s.U8(p + 3)
		if err != nil {
			return ScriptEntry{}, err
		}
		offset, err := s.I32(p + 4)
		if err != nil {
			return ScriptEntry{}, err
		}
		return ScriptEntry{
			Number:        int(number),
			Type:          int(typ),
			NumParam:      int(numParam),
			Offset:        int(offset),
			BytesConsumed: acsEIndirectEntrySize,
		}, nil
	}

	if err := s.RequireInScope(p, acsEDirectEntrySize); err != nil {
		return ScriptEntry{}, err
	}
	number, err := s.I16(p)
	if err != nil {
		return ScriptEntry{}, err
	}
	typ, err := s.I16(p + 2)
	if err != nil {
		return ScriptEntry{}, err
	}
	offset, err := s.I32(p + 4)
	if err != nil {
		return ScriptEntry{}, err
	}
	numParam, err := s.I32(p + 8)
	if err != nil {
		return ScriptEntry{}, err
	}
	return ScriptEntry{
		Number:        int(number),
		Type:          int(typ),
		NumParam:      int(numParam),
		Offset:        int(offset),
		BytesConsumed: acsEDirectEntrySize,
	}, nil
}

// DecodeSPTR decodes every script-table entry in an SPTR chunk.
func DecodeSPTR(buf *Buffer, c Chunk, layout *Layout) ([]ScriptEntry, error) {
	s := c.Scope(buf)
	entrySize := acsEDirectEntrySize
	if layout.Indirect {
		entrySize = acsEIndirectEntrySize
	}
	var entries []ScriptEntry
	for p := c.DataOffset; p+entrySize <= c.DataOffset+c.Size; p += entrySize {
		e, err := DecodeSPTREntry(s, p, layout)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SFLGEntry is one (script number, flag bits) record from an SFLG chunk.
type SFLGEntry struct {
	Number int16
	Flags  uint16
}

const (
	sflgNet         uint16 = 0x1
	sflgClientside  uint16 = 0x2
	sflgKnownBits          = sflgNet | sflgClientside
)

// FlagString renders an SFLG entry's flags the way the dispatcher's
// dump renders them: recognized names joined by '|', followed by an
// "unknown(0x...)" annotation for any bits outside {net, clientside}.
// See SPEC_FULL.md §9 for why the hex-unknown annotation is emitted
// even though it was not observed in the excerpt of the source read
// during grounding.
func (e SFLGEntry) FlagString() string {
	var parts []string
	if e.Flags&sflgNet != 0 {
		parts = append(parts, "net")
	}
	if e.Flags&sflgClientside != 0 {
		parts = append(parts, "clientside")
	}
	if unknown := e.Flags &^ sflgKnownBits; unknown != 0 {
		parts = append(parts, fmt.Sprintf("unknown(0x%x)", unknown))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

// DecodeSFLG decodes every (number, flags) record in an SFLG chunk.
func DecodeSFLG(buf *Buffer, c Chunk) ([]SFLGEntry, error) {
	s := c.Scope(buf)
	var entries []SFLGEntry
	for p := c.DataOffset; p+4 <= c.DataOffset+c.Size; p += 4 {
		number, err := s.I16(p)
		if err != nil {
			return entries, err
		}
		flags, err := s.U16(p + 2)
		if err != nil {
			return entries, err
		}
		entries = append(entries, SFLGEntry{Number: number, Flags: flags})
	}
	return entries, nil
}

// SVCTEntry is one script local-variable-count override record.
type SVCTEntry struct {
	Number  int16
	NewSize int16
}

// DecodeSVCT decodes every (number, new_size) record in an SVCT chunk.
// Uses the intended 4-byte record layout (§4.4 SVCT layout resolution),
// not the reference implementation's apparent oversized memcpy.
func DecodeSVCT(buf *Buffer, c Chunk) ([]SVCTEntry, error) {
	s := c.Scope(buf)
	var entries []SVCTEntry
	for p := c.DataOffset; p+4 <= c.DataOffset+c.Size; p += 4 {
		number, err := s.I16(p)
		if err != nil {
			return entries, err
		}
		newSize, err := s.I16(p + 2)
		if err != nil {
			return entries, err
		}
		entries = append(entries, SVCTEntry{Number: number, NewSize: newSize})
	}
	return entries, nil
}

// ArayEntry is one map-array declaration.
type ArayEntry struct {
	Number int32
	Size   int32
}

// DecodeARAY decodes every (number, size) declaration in an ARAY chunk.
func DecodeARAY(buf *Buffer, c Chunk) ([]ArayEntry, error) {
	s := c.Scope(buf)
	var entries []ArayEntry
	for p := c.DataOffset; p+8 <= c.DataOffset+c.Size; p += 8 {
		number, err := s.I32(p)
		if err != nil {
			return entries, err
		}
		size, err := s.I32(p + 4)
		if err != nil {
			return entries, err
		}
		entries = append(entries, ArayEntry{Number: number, Size: size})
	}
	return entries, nil
}

// AiniData holds the initializer values for one map array.
type AiniData struct {
	Index  int32
	Values []int32
}

// DecodeAINI decodes an AINI chunk: index, then (size-4)/4 i32 values.
func DecodeAINI(buf *Buffer, c Chunk) (AiniData, error) {
	s := c.Scope(buf)
	index, err := s.I32(c.DataOffset)
	if err != nil {
		return AiniData{}, err
	}
	n := (c.Size - 4) / 4
	values := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		p := c.DataOffset + 4 + i*4
		v, err := s.I32(p)
		if err != nil {
			return AiniData{Index: index, Values: values}, err
		}
		values = append(values, v)
	}
	return AiniData{Index: index, Values: values}, nil
}

// AtagData is the decoded body of an ATAG chunk (element tagging for one
// map array), or the report of an unsupported version.
type AtagData struct {
	Version     uint8
	Supported   bool
	ArrayIndex  int32
	ElementTags []uint8 // 0=integer, 1=string, 2=function
}

// DecodeATAG decodes an ATAG chunk. Only version 0 is understood; other
// versions are reported via Supported=false (§7 UnsupportedChunkVersion).
func DecodeATAG(buf *Buffer, c Chunk) (AtagData, error) {
	s := c.Scope(buf)
	version, err := s.U8(c.DataOffset)
	if err != nil {
		return AtagData{}, err
	}
	if version != 0 {
		return AtagData{Version: version, Supported: false}, nil
	}
	arrayIndex, err := s.I32(c.DataOffset + 1)
	if err != nil {
		return AtagData{Version: version, Supported: true}, err
	}
	var tags []uint8
	for p := c.DataOffset + 5; p < c.DataOffset+c.Size; p++ {
		t, err := s.U8(p)
		if err != nil {
			return AtagData{Version: version, Supported: true, ArrayIndex: arrayIndex, ElementTags: tags}, err
		}
		tags = append(tags, t)
	}
	return AtagData{Version: version, Supported: true, ArrayIndex: arrayIndex, ElementTags: tags}, nil
}
