package acs

import "fmt"

// StringDirectoryEntry is one entry of an ACS0-style string directory:
// an offset into the file where a NUL-terminated string lives.
type StringDirectoryEntry struct {
	Index  int
	Offset int32
	Value  string
}

// DecodeScriptDirectory reads the ACS0-style script directory at
// layout.DirectoryOffset: total_scripts: i32, then that many 12-byte
// entries (§3 Script-directory entry).
func DecodeScriptDirectory(buf *Buffer, layout *Layout) ([]ScriptEntry, error) {
	if !layout.HasScriptDirectory {
		return nil, nil
	}
	total, err := buf.I32(layout.DirectoryOffset)
	if err != nil {
		return nil, err
	}
	entries := make([]ScriptEntry, 0, total)
	for i := int32(0); i < total; i++ {
		p := layout.DirectoryOffset + 4 + int(i)*acs0EntrySize
		e, err := DecodeACS0DirectoryEntry(buf, p)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DecodeStringDirectory reads the ACS0-style string directory at
// layout.StringOffset: total_strings: i32, then that many i32 offsets,
// each pointing at a NUL-terminated string elsewhere in the file.
func DecodeStringDirectory(buf *Buffer, layout *Layout) ([]StringDirectoryEntry, error) {
	if !layout.HasScriptDirectory {
		return nil, nil
	}
	total, err := buf.I32(layout.StringOffset)
	if err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative total-strings %d", ErrIllFormed, total)
	}
	remaining := buf.Len() - (layout.StringOffset + 4)
	if int64(total)*4 > int64(remaining) {
		return nil, fmt.Errorf("%w: total-strings %d exceeds remaining file bytes %d", ErrIllFormed, total, remaining)
	}
	entries := make([]StringDirectoryEntry, 0, total)
	for i := int32(0); i < total; i++ {
		p := layout.StringOffset + 4 + int(i)*4
		off, err := buf.I32(p)
		if err != nil {
			return entries, err
		}
		value, _, err := buf.CString(int(off), buf.Len())
		if err != nil {
			return append(entries, StringDirectoryEntry{Index: int(i), Offset: off}), err
		}
		entries = append(entries, StringDirectoryEntry{Index: int(i), Offset: off, Value: value})
	}
	return entries, nil
}

// StringDirectoryOffsets extracts the raw offset column, for use by
// extent inference (§4.5 rule 3).
func StringDirectoryOffsets(entries []StringDirectoryEntry) []int32 {
	out := make([]int32, len(entries))
	for i, e := range entries {
		out[i] = e.Offset
	}
	return out
}
