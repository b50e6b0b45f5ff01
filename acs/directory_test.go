package acs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScriptDirectory(t *testing.T) {
	var built []byte
	built = append(built, "ACS\x00"...)
	built = append(built, le32(8)...) // directory_offset
	built = append(built, le32(1)...) // total_scripts
	built = append(built, le32(1000)...) // number encodes type=1,user=0
	built = append(built, le32(64)...)
	built = append(built, le32(2)...)
	built = append(built, le32(0)...) // total_strings

	buf, err := NewBuffer(built, DefaultOptions())
	require.NoError(t, err)
	l, err := Resolve(buf)
	require.NoError(t, err)

	entries, err := DecodeScriptDirectory(buf, l)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Number)
	assert.Equal(t, 1, entries[0].Type)
	assert.Equal(t, 64, entries[0].Offset)
}

func TestDecodeStringDirectory(t *testing.T) {
	var built []byte
	built = append(built, "ACS\x00"...)
	built = append(built, le32(8)...) // directory_offset
	built = append(built, le32(0)...) // total_scripts
	// string directory starts right after: offset 12
	built = append(built, le32(1)...) // total_strings
	built = append(built, le32(20)...) // offset of the one string
	built = append(built, []byte("hi\x00")...)

	buf, err := NewBuffer(built, DefaultOptions())
	require.NoError(t, err)
	l, err := Resolve(buf)
	require.NoError(t, err)

	entries, err := DecodeStringDirectory(buf, l)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].Value)
	assert.Equal(t, int32(20), entries[0].Offset)
}

func TestDecodeStringDirectory_NegativeCountIsIllFormed(t *testing.T) {
	var built []byte
	built = append(built, "ACS\x00"...)
	built = append(built, le32(8)...)  // directory_offset
	built = append(built, le32(0)...)  // total_scripts
	built = append(built, le32(-1)...) // total_strings

	buf, err := NewBuffer(built, DefaultOptions())
	require.NoError(t, err)
	l, err := Resolve(buf)
	require.NoError(t, err)

	_, err = DecodeStringDirectory(buf, l)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllFormed))
}

func TestDecodeStringDirectory_OversizedCountIsIllFormed(t *testing.T) {
	var built []byte
	built = append(built, "ACS\x00"...)
	built = append(built, le32(8)...)      // directory_offset
	built = append(built, le32(0)...)      // total_scripts
	built = append(built, le32(1<<28)...) // total_strings wildly exceeds the file

	buf, err := NewBuffer(built, DefaultOptions())
	require.NoError(t, err)
	l, err := Resolve(buf)
	require.NoError(t, err)

	_, err = DecodeStringDirectory(buf, l)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllFormed))
}

func TestStringDirectoryOffsets(t *testing.T) {
	entries := []StringDirectoryEntry{{Offset: 4}, {Offset: 8}}
	assert.Equal(t, []int32{4, 8}, StringDirectoryOffsets(entries))
}

func TestDecodeScriptDirectory_NotPresent(t *testing.T) {
	l := &Layout{HasScriptDirectory: false}
	entries, err := DecodeScriptDirectory(nil, l)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
