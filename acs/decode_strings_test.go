package acs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeobfuscateByte_RoundTrip(t *testing.T) {
	s, k := 20, 1
	want := byte('A')
	key := byte((s*stringObfuscationMultiplier + k/2) & 0xff)
	encoded := want ^ key
	assert.Equal(t, want, DeobfuscateByte(encoded, s, k))
}

func TestDecodeSTRL(t *testing.T) {
	var data []byte
	data = append(data, le32(0)...)  // padding
	data = append(data, le32(1)...) // count
	data = append(data, le32(0)...)  // padding
	data = append(data, le32(16)...) // offset of the one string (12-byte header + 4-byte offset table)
	data = append(data, []byte("hi\x00")...)
	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSTRL}

	entries, err := DecodeSTRL(buf, c)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].Value)
}

func TestDecodeSTRL_NegativeCountIsIllFormed(t *testing.T) {
	var data []byte
	data = append(data, le32(0)...)
	data = append(data, le32(-1)...) // count
	data = append(data, le32(0)...)
	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSTRL}

	_, err = DecodeSTRL(buf, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllFormed))
}

func TestDecodeSTRL_OversizedCountIsIllFormed(t *testing.T) {
	var data []byte
	data = append(data, le32(0)...)
	data = append(data, le32(1<<28)...) // count wildly exceeds the empty offset table
	data = append(data, le32(0)...)
	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSTRL}

	_, err = DecodeSTRL(buf, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllFormed))
}

// TestDecodeSTRE_RoundTrip follows the S4 scenario, with the one string
// stored at chunk-offset s=16 (right after the 12-byte header and the
// 4-byte offset table) rather than at 20; it decodes to "ABC" once each byte is
// XORed against DeobfuscateByte's key stream.
func TestDecodeSTRE_RoundTrip(t *testing.T) {
	const strOffsetInChunk = 16
	plain := []byte("ABC")

	var data []byte
	data = append(data, le32(0)...)  // padding
	data = append(data, le32(1)...) // count
	data = append(data, le32(0)...)  // padding
	data = append(data, le32(strOffsetInChunk)...)

	encoded := make([]byte, len(plain)+1) // + terminator
	localBase := strOffsetInChunk         // chunk data offset is 0
	for k := 0; k < len(plain); k++ {
		encoded[k] = DeobfuscateByte(plain[k], localBase, k)
	}
	encoded[len(plain)] = DeobfuscateByte(0, localBase, len(plain))
	data = append(data, encoded...)

	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSTRE}

	entries, err := DecodeSTRE(buf, c)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ABC", entries[0].Value)
}

func TestDecodeSTRE_UnterminatedIsIllFormed(t *testing.T) {
	var data []byte
	data = append(data, le32(0)...)
	data = append(data, le32(1)...)
	data = append(data, le32(0)...)
	data = append(data, le32(16)...)
	data = append(data, DeobfuscateByte('X', 16, 0)) // no terminator follows
	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSTRE}

	_, err = DecodeSTRE(buf, c)
	require.Error(t, err)
}

func TestNumberFor(t *testing.T) {
	assert.Equal(t, -1, NumberFor(0))
	assert.Equal(t, -2, NumberFor(1))
}

func TestDecodeOwnedArray(t *testing.T) {
	var data []byte
	data = append(data, int16le(4)...)
	data = append(data, le32(8)...)
	data = append(data, le32(16)...)
	buf, err := NewBuffer(data, DefaultOptions())
	require.NoError(t, err)
	c := Chunk{DataOffset: 0, Size: len(data), Tag: TagSARY}

	got, err := DecodeSARY(buf, c)
	require.NoError(t, err)
	assert.Equal(t, int16(4), got.OwnerIndex)
	assert.Equal(t, []int32{8, 16}, got.Sizes)
}
