package acs

import (
	"encoding/binary"
	"fmt"
)

// Buffer owns the file bytes and provides bounds-checked reads. All
// offsets handed to Buffer methods originate from the file itself and
// are therefore untrusted; every read validates bounds before touching
// the underlying slice.
type Buffer struct {
	data []byte
	opt  Options
}

// NewBuffer wraps data for bounds-checked access. Fails if data exceeds
// the addressable offset range.
func NewBuffer(data []byte, opt Options) (*Buffer, error) {
	if len(data) >= MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return &Buffer{data: data, opt: opt}, nil
}

// Len returns the number of bytes in the buffer (N in the spec).
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the full underlying slice. Callers must not mutate it.
func (b *Buffer) Bytes() []byte { return b.data }

// OffsetInFile reports whether o is a valid index into the buffer.
func (b *Buffer) OffsetInFile(o int) bool {
	return o >= 0 && o < len(b.data)
}

// BytesAvailableFrom returns N-p, which is negative if p > N.
func (b *Buffer) BytesAvailableFrom(p int) int {
	return len(b.data) - p
}

// RequireBytes fails unless k bytes are available starting at p.
func (b *Buffer) RequireBytes(p, k int) error {
	if p < 0 || b.BytesAvailableFrom(p) < k {
		return fmt.Errorf("%w: short read at offset %d, need %d bytes", ErrIllFormed, p, k)
	}
	return nil
}

// RequireOffset fails unless o is a valid index into the buffer.
func (b *Buffer) RequireOffset(o int) error {
	if !b.OffsetInFile(o) {
		return fmt.Errorf("%w: offset %d out of range [0,%d)", ErrIllFormed, o, len(b.data))
	}
	return nil
}

// Slice returns data[p:p+k] after a bounds check, additionally capped
// by the effective MaxReadBytes safety limit.
func (b *Buffer) Slice(p, k int) ([]byte, error) {
	if k > b.opt.EffectiveMaxReadBytes() {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d exceeds max-read-bytes", ErrIllFormed, k, p)
	}
	if err := b.RequireBytes(p, k); err != nil {
		return nil, err
	}
	return b.data[p : p+k], nil
}

// U8 reads one byte at p.
func (b *Buffer) U8(p int) (uint8, error) {
	if err := b.RequireBytes(p, 1); err != nil {
		return 0, err
	}
	return b.data[p], nil
}

// I8 reads one signed byte at p.
func (b *Buffer) I8(p int) (int8, error) {
	v, err := b.U8(p)
	return int8(v), err
}

// U16 reads a little-endian uint16 at p.
func (b *Buffer) U16(p int) (uint16, error) {
	if err := b.RequireBytes(p, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data[p:]), nil
}

// I16 reads a little-endian int16 at p.
func (b *Buffer) I16(p int) (int16, error) {
	v, err := b.U16(p)
	return int16(v), err
}

// U32 reads a little-endian uint32 at p.
func (b *Buffer) U32(p int) (uint32, error) {
	if err := b.RequireBytes(p, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[p:]), nil
}

// I32 reads a little-endian int32 at p.
func (b *Buffer) I32(p int) (int32, error) {
	v, err := b.U32(p)
	return int32(v), err
}

// CString reads a NUL-terminated string starting at p, requiring the
// terminator to occur before limit (exclusive). Fails with ErrIllFormed
// if no NUL is found within [p, limit) or within the effective
// MaxReadBytes safety limit.
func (b *Buffer) CString(p, limit int) (string, int, error) {
	if p < 0 || limit > len(b.data) || p > limit {
		return "", 0, fmt.Errorf("%w: string bounds [%d,%d) invalid", ErrIllFormed, p, limit)
	}
	maxRead := b.opt.EffectiveMaxReadBytes()
	for i := p; i < limit; i++ {
		if b.data[i] == 0 {
			return string(b.data[p:i]), i + 1 - p, nil
		}
		if i+1-p >= maxRead {
			return "", 0, fmt.Errorf("%w: string at offset %d exceeds max-read-bytes", ErrIllFormed, p)
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated string at offset %d", ErrIllFormed, p)
}

// ChunkScope clamps bounds checks to [start, start+size).
type ChunkScope struct {
	buf   *Buffer
	start int
	size  int
}

// Scope returns a ChunkScope for the given chunk-local region of the file.
func (b *Buffer) Scope(start, size int) *ChunkScope {
	return &ChunkScope{buf: b, start: start, size: size}
}

// End returns the exclusive end offset of the scope.
func (s *ChunkScope) End() int { return s.start + s.size }

// InScope reports whether o lies within [start, start+size) AND within the file.
func (s *ChunkScope) InScope(o int) bool {
	return o >= s.start && o < s.start+s.size && s.buf.OffsetInFile(o)
}

// RequireInScope fails unless k bytes starting at p lie within the chunk
// region and within the file.
func (s *ChunkScope) RequireInScope(p, k int) error {
	if p < s.start || p+k > s.start+s.size {
		return fmt.Errorf("%w: offset %d..%d outside chunk [%d,%d)", ErrIllFormed, p, p+k, s.start, s.start+s.size)
	}
	return s.buf.RequireBytes(p, k)
}

func (s *ChunkScope) U8(p int) (uint8, error) {
	if err := s.RequireInScope(p, 1); err != nil {
		return 0, err
	}
	return s.buf.U8(p)
}

func (s *ChunkScope) U16(p int) (uint16, error) {
	if err := s.RequireInScope(p, 2); err != nil {
		return 0, err
	}
	return s.buf.U16(p)
}

func (s *ChunkScope) I16(p int) (int16, error) {
	if err := s.RequireInScope(p, 2); err != nil {
		return 0, err
	}
	return s.buf.I16(p)
}

func (s *ChunkScope) U32(p int) (uint32, error) {
	if err := s.RequireInScope(p, 4); err != nil {
		return 0, err
	}
	return s.buf.U32(p)
}

func (s *ChunkScope) I32(p int) (int32, error) {
	if err := s.RequireInScope(p, 4); err != nil {
		return 0, err
	}
	return s.buf.I32(p)
}

// CString reads a NUL-terminated string starting at p, requiring the
// terminator to occur before the scope's end.
func (s *ChunkScope) CString(p int) (string, int, error) {
	if p < s.start || p > s.End() {
		return "", 0, fmt.Errorf("%w: string offset %d outside chunk [%d,%d)", ErrIllFormed, p, s.start, s.End())
	}
	return s.buf.CString(p, s.End())
}
