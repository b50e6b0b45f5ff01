package acs

import "fmt"

// Format identifies the container variant a file declares.
type Format int

const (
	FormatUnknown Format = iota
	FormatZero           // ACS0
	FormatBigE           // ACSE
	FormatLittleE        // ACSe
)

func (f Format) String() string {
	switch f {
	case FormatZero:
		return "ACS0"
	case FormatBigE:
		return "ACSE"
	case FormatLittleE:
		return "ACSe"
	default:
		return "unknown"
	}
}

const acs0EntrySize = 12

// Layout is the populated format descriptor produced by Resolve. Every
// offset field it carries has already been range-checked against the
// buffer it was resolved from.
type Layout struct {
	Format Format

	Indirect  bool
	SmallCode bool

	HasScriptDirectory bool
	DirectoryOffset    int // valid iff HasScriptDirectory
	StringOffset       int // valid iff HasScriptDirectory

	HasChunkOffset    bool
	ChunkOffset       int // valid iff HasChunkOffset
	RealHeaderOffset  int // valid iff Indirect
	HasRealHeaderOffs bool
}

// Resolve classifies buf's container format and computes the offsets of
// every top-level region. It is total: it returns a fully populated,
// range-checked Layout, or an error.
func Resolve(buf *Buffer) (*Layout, error) {
	if err := buf.RequireBytes(0, 8); err != nil {
		return nil, err
	}
	directoryOffset32, err := buf.I32(4)
	if err != nil {
		return nil, err
	}
	directoryOffset := int(directoryOffset32)
	if err := buf.RequireOffset(directoryOffset); err != nil {
		return nil, err
	}

	magic, err := buf.Slice(0, 4)
	if err != nil {
		return nil, err
	}

	l := &Layout{}

	switch {
	case string(magic) == "ACSE":
		l.Format = FormatBigE
		l.HasChunkOffset = true
		l.ChunkOffset = directoryOffset
	case string(magic) == "ACSe":
		l.Format = FormatLittleE
		l.HasChunkOffset = true
		l.ChunkOffset = directoryOffset
		l.SmallCode = true
	case magic[0] == 'A' && magic[1] == 'C' && magic[2] == 'S' && magic[3] == 0:
		if err := resolveIndirect(buf, directoryOffset, l); err != nil {
			return nil, err
		}
		if l.Format == FormatUnknown {
			l.Format = FormatZero
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized magic %q", ErrUnsupportedFormat, magic)
	}

	l.HasScriptDirectory = l.Format == FormatZero || l.Indirect
	if l.HasScriptDirectory {
		l.DirectoryOffset = directoryOffset
		totalScripts, err := buf.I32(directoryOffset)
		if err != nil {
			return nil, fmt.Errorf("total-scripts: %w", err)
		}
		if totalScripts < 0 {
			return nil, fmt.Errorf("%w: negative total-scripts %d", ErrIllFormed, totalScripts)
		}
		stringOffset := directoryOffset + 4 + int(totalScripts)*acs0EntrySize
		if err := buf.RequireOffset(stringOffset); err != nil {
			return nil, fmt.Errorf("string-directory offset: %w", err)
		}
		l.StringOffset = stringOffset
	}

	return l, nil
}

// resolveIndirect probes for a disguised ACSE/ACSe header hidden behind
// an ACS0-shaped primary header, per the format resolver's probing rule.
func resolveIndirect(buf *Buffer, directoryOffset int, l *Layout) error {
	probe := directoryOffset - 4
	if !buf.OffsetInFile(probe) {
		return nil
	}
	if err := buf.RequireBytes(probe, 4); err != nil {
		return nil
	}
	realMagic, err := buf.Slice(probe, 4)
	if err != nil {
		return nil
	}
	var format Format
	switch string(realMagic) {
	case "ACSE":
		format = FormatBigE
	case "ACSe":
		format = FormatLittleE
	default:
		return nil
	}

	chunkOffsetSlot := probe - 4
	if err := buf.RequireOffset(chunkOffsetSlot); err != nil {
		return fmt.Errorf("indirect chunk-offset slot: %w", err)
	}
	chunkOffset32, err := buf.I32(chunkOffsetSlot)
	if err != nil {
		return err
	}
	chunkOffset := int(chunkOffset32)
	if err := buf.RequireOffset(chunkOffset); err != nil {
		return fmt.Errorf("indirect chunk offset: %w", err)
	}

	l.Format = format
	l.SmallCode = format == FormatLittleE
	l.Indirect = true
	l.HasChunkOffset = true
	l.ChunkOffset = chunkOffset
	l.HasRealHeaderOffs = true
	l.RealHeaderOffset = chunkOffsetSlot
	return nil
}

// ChunkRegionEnd returns the exclusive end of the chunk region: the real
// header offset for indirect files, or N otherwise.
func (l *Layout) ChunkRegionEnd(n int) int {
	if l.Indirect {
		return l.RealHeaderOffset
	}
	return n
}
