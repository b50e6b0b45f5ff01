package acs

import "fmt"

// stringObfuscationMultiplier is the multiplier in the STRE decode
// formula: decoded = byte XOR ((offset*multiplier + k/2) mod 256).
const stringObfuscationMultiplier = 157135

// DeobfuscateByte reverses the STRE cipher for character k of a string
// stored at chunk-local offset s.
func DeobfuscateByte(raw byte, s, k int) byte {
	key := byte((s*stringObfuscationMultiplier + k/2) & 0xff)
	return raw ^ key
}

// StringEntry is one string read from a STRL/STRE chunk's offset table.
type StringEntry struct {
	Index int
	Value string
}

// decodeStringTable decodes the shared STRL/STRE header shape: an opaque
// 4-byte padding field, a count, a second opaque 4-byte padding field,
// then count x offset_in_chunk,
// then strings at those offsets — either plain (obfuscated=false) or
// STRE-obfuscated (obfuscated=true).
func decodeStringTable(buf *Buffer, c Chunk, obfuscated bool) ([]StringEntry, error) {
	s := c.Scope(buf)
	// Two 4-byte fields the reference implementation treats as opaque
	// padding (§9 open question); read and discard without interpretation.
	if _, err := s.I32(c.DataOffset); err != nil {
		return nil, err
	}
	count, err := s.I32(c.DataOffset + 4)
	if err != nil {
		return nil, err
	}
	if _, err := s.I32(c.DataOffset + 8); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative string count %d", ErrIllFormed, count)
	}
	remaining := c.DataOffset + c.Size - (c.DataOffset + 12)
	if int64(count)*4 > int64(remaining) {
		return nil, fmt.Errorf("%w: string count %d exceeds remaining chunk bytes %d", ErrIllFormed, count, remaining)
	}

	entries := make([]StringEntry, 0, count)
	for i := int32(0); i < count; i++ {
		p := c.DataOffset + 12 + int(i)*4
		off, err := s.I32(p)
		if err != nil {
			return entries, err
		}
		strOff := c.DataOffset + int(off)
		var value string
		if obfuscated {
			value, err = readObfuscatedString(s, strOff)
		} else {
			value, _, err = s.CString(strOff)
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, StringEntry{Index: int(i), Value: value})
	}
	return entries, nil
}

// readObfuscatedString decodes a STRE-obfuscated string starting at
// file offset strOff; the key uses strOff relative to the chunk's own
// data offset. The terminator is the decoded NUL byte, which must occur before the
// chunk ends (§4.4 string safety).
func readObfuscatedString(s *ChunkScope, strOff int) (string, error) {
	localBase := strOff - s.start
	var out []byte
	for p := strOff; p < s.End(); p++ {
		raw, err := s.U8(p)
		if err != nil {
			return "", err
		}
		k := p - strOff
		decoded := DeobfuscateByte(raw, localBase, k)
		if decoded == 0 {
			return string(out), nil
		}
		out = append(out, decoded)
	}
	return "", &illFormedError{"unterminated obfuscated string"}
}

type illFormedError struct{ reason string }

func (e *illFormedError) Error() string { return "ill-formed file: " + e.reason }
func (e *illFormedError) Unwrap() error { return ErrIllFormed }

// DecodeSTRL decodes an STRL chunk (unencoded strings).
func DecodeSTRL(buf *Buffer, c Chunk) ([]StringEntry, error) {
	return decodeStringTable(buf, c, false)
}

// DecodeSTRE decodes an STRE chunk (obfuscated strings).
func DecodeSTRE(buf *Buffer, c Chunk) ([]StringEntry, error) {
	return decodeStringTable(buf, c, true)
}

// DecodeSNAM decodes an SNAM chunk. Named scripts are conventionally
// assigned numbers -1, -2, ... in declaration order; NumberFor exposes
// that convention without baking it into the decoded entry itself.
func DecodeSNAM(buf *Buffer, c Chunk) ([]NamedOffsetEntry, error) {
	return decodeOffsetTable(buf, c)
}

// NumberFor returns the script number conventionally assigned to the
// i'th SNAM entry (declaration order, 0-based).
func NumberFor(i int) int { return -(i + 1) }

// OwnedArrayEntry is one per-script/per-function array declared in a
// SARY or FARY chunk.
type OwnedArrayEntry struct {
	OwnerIndex int16
	Sizes      []int32
}

// decodeOwnedArray decodes the shared SARY/FARY shape: owner_index: i16,
// then N x array_size: i32, N = (size-2)/4.
func decodeOwnedArray(buf *Buffer, c Chunk) (OwnedArrayEntry, error) {
	s := c.Scope(buf)
	owner, err := s.I16(c.DataOffset)
	if err != nil {
		return OwnedArrayEntry{}, err
	}
	n := (c.Size - 2) / 4
	sizes := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		p := c.DataOffset + 2 + i*4
		v, err := s.I32(p)
		if err != nil {
			return OwnedArrayEntry{OwnerIndex: owner, Sizes: sizes}, err
		}
		sizes = append(sizes, v)
	}
	return OwnedArrayEntry{OwnerIndex: owner, Sizes: sizes}, nil
}

// DecodeSARY decodes a SARY chunk.
func DecodeSARY(buf *Buffer, c Chunk) (OwnedArrayEntry, error) { return decodeOwnedArray(buf, c) }

// DecodeFARY decodes a FARY chunk.
func DecodeFARY(buf *Buffer, c Chunk) (OwnedArrayEntry, error) { return decodeOwnedArray(buf, c) }
