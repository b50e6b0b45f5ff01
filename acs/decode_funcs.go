package acs

import "fmt"

// FuncEntry is one 8-byte function-table record. Offset == 0 means
// "imported, no body."
type FuncEntry struct {
	NumParam  uint8
	Size      uint8
	HasReturn uint8
	Offset    int32
}

// Imported reports whether the entry has no local body.
func (e FuncEntry) Imported() bool { return e.Offset == 0 }

// DecodeFUNC decodes every 8-byte function-table record in a FUNC chunk.
func DecodeFUNC(buf *Buffer, c Chunk) ([]FuncEntry, error) {
	s := c.Scope(buf)
	var entries []FuncEntry
	for p := c.DataOffset; p+8 <= c.DataOffset+c.Size; p += 8 {
		numParam, err := s.U8(p)
		if err != nil {
			return entries, err
		}
		size, err := s.U8(p + 1)
		if err != nil {
			return entries, err
		}
		hasReturn, err := s.U8(p + 2)
		if err != nil {
			return entries, err
		}
		// byte at p+3 is padding, discarded.
		offset, err := s.I32(p + 4)
		if err != nil {
			return entries, err
		}
		entries = append(entries, FuncEntry{
			NumParam:  numParam,
			Size:      size,
			HasReturn: hasReturn,
			Offset:    offset,
		})
	}
	return entries, nil
}

// NamedOffsetEntry pairs an index with a string read from a
// chunk-local offset; used by FNAM, MEXP, and SNAM, which all share the
// "count, then count x offset-in-chunk, then strings at those offsets"
// shape.
type NamedOffsetEntry struct {
	Index int
	Name  string
}

// decodeOffsetTable decodes the "count: i32, then count x
// offset_in_chunk: i32, strings at those offsets" shape shared by
// FNAM, MEXP, and SNAM.
func decodeOffsetTable(buf *Buffer, c Chunk) ([]NamedOffsetEntry, error) {
	s := c.Scope(buf)
	count, err := s.I32(c.DataOffset)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative entry count %d", ErrIllFormed, count)
	}
	remaining := c.DataOffset + c.Size - (c.DataOffset + 4)
	if int64(count)*4 > int64(remaining) {
		return nil, fmt.Errorf("%w: entry count %d exceeds remaining chunk bytes %d", ErrIllFormed, count, remaining)
	}
	entries := make([]NamedOffsetEntry, 0, count)
	for i := int32(0); i < count; i++ {
		p := c.DataOffset + 4 + int(i)*4
		off, err := s.I32(p)
		if err != nil {
			return entries, err
		}
		strOff := c.DataOffset + int(off)
		name, _, err := s.CString(strOff)
		if err != nil {
			return entries, err
		}
		entries = append(entries, NamedOffsetEntry{Index: int(i), Name: name})
	}
	return entries, nil
}

// DecodeFNAM decodes a FNAM (function names) chunk.
func DecodeFNAM(buf *Buffer, c Chunk) ([]NamedOffsetEntry, error) { return decodeOffsetTable(buf, c) }

// DecodeMEXP decodes an MEXP (exported map-vars) chunk.
func DecodeMEXP(buf *Buffer, c Chunk) ([]NamedOffsetEntry, error) { return decodeOffsetTable(buf, c) }

// MiniData holds map-var initializer values starting at variable FirstVar.
type MiniData struct {
	FirstVar int32
	Values   []int32
}

// DecodeMINI decodes an MINI chunk: first_var, then a stream of i32 values.
func DecodeMINI(buf *Buffer, c Chunk) (MiniData, error) {
	s := c.Scope(buf)
	firstVar, err := s.I32(c.DataOffset)
	if err != nil {
		return MiniData{}, err
	}
	var values []int32
	for p := c.DataOffset + 4; p+4 <= c.DataOffset+c.Size; p += 4 {
		v, err := s.I32(p)
		if err != nil {
			return MiniData{FirstVar: firstVar, Values: values}, err
		}
		values = append(values, v)
	}
	return MiniData{FirstVar: firstVar, Values: values}, nil
}

// MimpEntry is one imported map-var record.
type MimpEntry struct {
	Index int32
	Name  string
}

// DecodeMIMP decodes an MIMP chunk: a stream of (index, NUL-string).
func DecodeMIMP(buf *Buffer, c Chunk) ([]MimpEntry, error) {
	s := c.Scope(buf)
	var entries []MimpEntry
	p := c.DataOffset
	end := c.DataOffset + c.Size
	for p+4 <= end {
		index, err := s.I32(p)
		if err != nil {
			return entries, err
		}
		p += 4
		name, n, err := s.CString(p)
		if err != nil {
			return entries, err
		}
		p += n
		entries = append(entries, MimpEntry{Index: index, Name: name})
	}
	return entries, nil
}

// AimpEntry is one imported map-array record.
type AimpEntry struct {
	Index int32
	Size  uint32
	Name  string
}

// DecodeAIMP decodes an AIMP chunk: count, then count x (index, size,
// NUL-string).
func DecodeAIMP(buf *Buffer, c Chunk) ([]AimpEntry, error) {
	s := c.Scope(buf)
	count, err := s.I32(c.DataOffset)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative entry count %d", ErrIllFormed, count)
	}
	remaining := c.DataOffset + c.Size - (c.DataOffset + 4)
	if int64(count)*8 > int64(remaining) {
		return nil, fmt.Errorf("%w: entry count %d exceeds remaining chunk bytes %d", ErrIllFormed, count, remaining)
	}
	entries := make([]AimpEntry, 0, count)
	p := c.DataOffset + 4
	end := c.DataOffset + c.Size
	for i := int32(0); i < count && p+8 <= end; i++ {
		index, err := s.I32(p)
		if err != nil {
			return entries, err
		}
		size, err := s.U32(p + 4)
		if err != nil {
			return entries, err
		}
		p += 8
		name, n, err := s.CString(p)
		if err != nil {
			return entries, err
		}
		p += n
		entries = append(entries, AimpEntry{Index: index, Size: size, Name: name})
	}
	return entries, nil
}

// DecodeLOAD decodes a LOAD chunk: NUL-separated module names, with
// empty entries suppressed.
func DecodeLOAD(buf *Buffer, c Chunk) ([]string, error) {
	s := c.Scope(buf)
	var names []string
	p := c.DataOffset
	end := c.DataOffset + c.Size
	for p < end {
		name, n, err := s.CString(p)
		if err != nil {
			return names, err
		}
		p += n
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// DecodeASTRLike decodes the ASTR/MSTR shape: a stream of
// tagged_string_index: u32.
func DecodeASTRLike(buf *Buffer, c Chunk) ([]uint32, error) {
	s := c.Scope(buf)
	var indices []uint32
	for p := c.DataOffset; p+4 <= c.DataOffset+c.Size; p += 4 {
		v, err := s.U32(p)
		if err != nil {
			return indices, err
		}
		indices = append(indices, v)
	}
	return indices, nil
}
