package acs

import (
	"fmt"
	"os"
)

// File is a resolved object file: the owning buffer plus its format
// descriptor. It is the entry point for every L3-L7 operation.
type File struct {
	Buf    *Buffer
	Layout *Layout
	Opt    Options
}

// Load reads path into memory and resolves its format. Corresponds to
// the IOFailure/TooLarge/UnsupportedFormat/IllFormed terminal errors of
// the error-handling design (§7).
func Load(path string, opt Options) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return LoadBytes(data, opt)
}

// LoadBytes resolves the format of an in-memory object file. Exposed
// separately from Load so tests can exercise the decoding pipeline
// without touching the filesystem.
func LoadBytes(data []byte, opt Options) (*File, error) {
	buf, err := NewBuffer(data, opt)
	if err != nil {
		return nil, err
	}
	layout, err := Resolve(buf)
	if err != nil {
		return nil, err
	}
	return &File{Buf: buf, Layout: layout, Opt: opt}, nil
}
