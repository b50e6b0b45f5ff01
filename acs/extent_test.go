package acs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCodeExtentInputs_S6 is the S6 scenario: an ACSE file with an SPTR
// chunk declaring two scripts at offsets 12 and 80, chunk_offset at 200,
// and a total file size of 300. Script 1's code extent is bounded by
// script 2's offset; script 2's is bounded by the chunk region start.
func TestCodeExtentInputs_S6(t *testing.T) {
	layout := &Layout{
		Format:         FormatBigE,
		HasChunkOffset: true,
		ChunkOffset:    200,
	}
	sptr := []ScriptEntry{
		{Number: 0, Offset: 12},
		{Number: 1, Offset: 80},
	}
	in := NewCodeExtentInputs(300, layout, sptr, nil, nil, nil)

	assert.Equal(t, 68, in.CodeSize(12))  // 80 - 12
	assert.Equal(t, 120, in.CodeSize(80)) // 200 - 80
}

func TestCodeExtentInputs_FallsBackToFileEnd(t *testing.T) {
	layout := &Layout{Format: FormatBigE, HasChunkOffset: true, ChunkOffset: 0}
	in := NewCodeExtentInputs(300, layout, nil, nil, nil, nil)
	assert.Equal(t, 300, in.CodeSize(0))
}

func TestCodeExtentInputs_FuncOffsetTightens(t *testing.T) {
	layout := &Layout{Format: FormatBigE, HasChunkOffset: true, ChunkOffset: 500}
	funcs := []FuncEntry{{Offset: 50}, {Offset: 0}} // second is imported, excluded
	in := NewCodeExtentInputs(1000, layout, nil, funcs, nil, nil)
	assert.Equal(t, 450, in.CodeSize(50))
}

func TestCodeExtentInputs_DirectoryAndStringEntriesTighten(t *testing.T) {
	layout := &Layout{
		Format:             FormatZero,
		HasScriptDirectory: true,
		DirectoryOffset:    8,
		StringOffset:       200,
	}
	dirEntries := []ScriptEntry{{Offset: 20}, {Offset: 60}}
	strOffsets := []int32{40}
	in := NewCodeExtentInputs(500, layout, nil, nil, dirEntries, strOffsets)

	// Script at 20 is bounded by the string entry at 40, not the later
	// directory entry at 60.
	assert.Equal(t, 20, in.CodeSize(20))
}

func TestCodeExtentInputs_ClampsToZeroPastFileEnd(t *testing.T) {
	layout := &Layout{Format: FormatBigE, HasChunkOffset: true, ChunkOffset: 10}
	in := NewCodeExtentInputs(40, layout, nil, nil, nil, nil)
	assert.Equal(t, 0, in.CodeSize(50))
}
