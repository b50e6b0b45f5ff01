package acs

import (
	"fmt"
	"strings"
)

// Tag classifies a chunk by its four-character name, case-insensitively.
type Tag int

const (
	TagUnknown Tag = iota
	TagARAY
	TagAINI
	TagAIMP
	TagASTR
	TagMSTR
	TagATAG
	TagLOAD
	TagFUNC
	TagFNAM
	TagMINI
	TagMIMP
	TagMEXP
	TagSPTR
	TagSFLG
	TagSVCT
	TagSNAM
	TagSTRL
	TagSTRE
	TagSARY
	TagFARY
	TagALIB
)

var tagByName = map[string]Tag{
	"ARAY": TagARAY,
	"AINI": TagAINI,
	"AIMP": TagAIMP,
	"ASTR": TagASTR,
	"MSTR": TagMSTR,
	"ATAG": TagATAG,
	"LOAD": TagLOAD,
	"FUNC": TagFUNC,
	"FNAM": TagFNAM,
	"MINI": TagMINI,
	"MIMP": TagMIMP,
	"MEXP": TagMEXP,
	"SPTR": TagSPTR,
	"SFLG": TagSFLG,
	"SVCT": TagSVCT,
	"SNAM": TagSNAM,
	"STRL": TagSTRL,
	"STRE": TagSTRE,
	"SARY": TagSARY,
	"FARY": TagFARY,
	"ALIB": TagALIB,
}

// LookupTag resolves a four-character chunk name to its Tag, case-insensitively.
func LookupTag(name string) Tag {
	if t, ok := tagByName[strings.ToUpper(name)]; ok {
		return t
	}
	return TagUnknown
}

// Chunk is a typed, named slice of the file buffer.
type Chunk struct {
	Name       string
	DataOffset int
	Size       int
	Tag        Tag
}

// Scope returns a chunk-scoped bounds-checking view over c's body.
func (c Chunk) Scope(buf *Buffer) *ChunkScope {
	return buf.Scope(c.DataOffset, c.Size)
}

// Walker iterates the chunk region [chunk_offset, end) of a resolved
// file. It is restartable: constructing a new Walker begins again at
// chunk_offset.
type Walker struct {
	buf    *Buffer
	cursor int
	end    int
	opt    Options
	steps  int
}

// NewWalker returns a Walker positioned at the start of the chunk region.
func NewWalker(buf *Buffer, layout *Layout, opt Options) (*Walker, error) {
	if !layout.HasChunkOffset {
		return nil, fmt.Errorf("%w: format %s has no chunk region", ErrUnsupportedOperation, layout.Format)
	}
	return &Walker{
		buf:    buf,
		cursor: layout.ChunkOffset,
		end:    layout.ChunkRegionEnd(buf.Len()),
		opt:    opt,
	}, nil
}

// Next returns the next chunk, or (Chunk{}, false, nil) when the walk is
// exhausted. It fails only on malformed chunk headers or the step-count
// safety cap.
func (w *Walker) Next() (Chunk, bool, error) {
	if w.cursor+8 > w.end {
		return Chunk{}, false, nil
	}
	w.steps++
	if w.steps > w.opt.EffectiveMaxSteps() {
		return Chunk{}, false, fmt.Errorf("%w: chunk walk exceeded step limit at offset %d", ErrIllFormed, w.cursor)
	}
	if err := w.buf.RequireBytes(w.cursor, 8); err != nil {
		return Chunk{}, false, err
	}
	nameBytes, err := w.buf.Slice(w.cursor, 4)
	if err != nil {
		return Chunk{}, false, err
	}
	size32, err := w.buf.I32(w.cursor + 4)
	if err != nil {
		return Chunk{}, false, err
	}
	if size32 < 0 {
		return Chunk{}, false, fmt.Errorf("%w: negative chunk size %d at offset %d", ErrIllFormed, size32, w.cursor)
	}
	size := int(size32)
	dataOffset := w.cursor + 8
	// The chunk body must fit within the file, though it may extend past
	// the chunk-region end cursor; the walker still advances past it.
	if err := w.buf.RequireBytes(dataOffset, size); err != nil {
		return Chunk{}, false, err
	}
	name := string(nameBytes)
	chunk := Chunk{
		Name:       name,
		DataOffset: dataOffset,
		Size:       size,
		Tag:        LookupTag(name),
	}
	w.cursor = dataOffset + size
	return chunk, true, nil
}

// WalkChunks materializes every chunk in the region as a slice, stopping
// at the first error.
func WalkChunks(buf *Buffer, layout *Layout, opt Options) ([]Chunk, error) {
	w, err := NewWalker(buf, layout, opt)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for {
		c, ok, err := w.Next()
		if err != nil {
			return chunks, err
		}
		if !ok {
			return chunks, nil
		}
		chunks = append(chunks, c)
	}
}

// FindChunk returns the first chunk (in walk order) whose Tag matches
// the tag of name, or false if none matched.
func FindChunk(buf *Buffer, layout *Layout, opt Options, name string) (Chunk, bool, error) {
	want := LookupTag(name)
	w, err := NewWalker(buf, layout, opt)
	if err != nil {
		return Chunk{}, false, err
	}
	for {
		c, ok, err := w.Next()
		if err != nil {
			return Chunk{}, false, err
		}
		if !ok {
			return Chunk{}, false, nil
		}
		if c.Tag == want && want != TagUnknown {
			return c, true, nil
		}
	}
}

// ViewChunks returns every chunk (in walk order) whose Tag matches the
// tag of name.
func ViewChunks(buf *Buffer, layout *Layout, opt Options, name string) ([]Chunk, error) {
	want := LookupTag(name)
	w, err := NewWalker(buf, layout, opt)
	if err != nil {
		return nil, err
	}
	var out []Chunk
	for {
		c, ok, err := w.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		if c.Tag == want && want != TagUnknown {
			out = append(out, c)
		}
	}
}
