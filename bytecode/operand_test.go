package bytecode

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func TestDecodeAt_WideOpcodeNoArgs(t *testing.T) {
	data := le32(0) // nop, wide encoding
	d := &Decoder{Data: data, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, "nop", instr.Name)
	assert.Equal(t, 4, next)
	assert.Empty(t, instr.Ints)
}

func TestDecodeAt_IntArgs(t *testing.T) {
	var data []byte
	data = append(data, le32(3)...)   // pushnumber
	data = append(data, le32(42)...)
	d := &Decoder{Data: data, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, "pushnumber", instr.Name)
	assert.Equal(t, []int32{42}, instr.Ints)
	assert.Equal(t, 8, next)
}

func TestDecodeAt_SmallInt_ScalesBySmallCode(t *testing.T) {
	var wide []byte
	wide = append(wide, le32(4)...) // lspec1
	wide = append(wide, le32(7)...)
	d := &Decoder{Data: wide, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{7}, instr.Ints)
	assert.Equal(t, 8, next)

	small := []byte{4, 7} // lspec1 as small_code opcode byte + one byte arg
	ds := &Decoder{Data: small, SmallCode: true}
	instr2, next2, err := ds.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{7}, instr2.Ints)
	assert.Equal(t, 2, next2)
}

func TestDecodeAt_SmallInt_SignExtendsHighByte(t *testing.T) {
	small := []byte{4, 200} // lspec1, arg byte 200 == int8(-56)
	d := &Decoder{Data: small, SmallCode: true}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{-56}, instr.Ints)
	assert.Equal(t, 2, next)
}

func TestDecodeAt_SmallCodeOpcodeByte_TwoByteFetch(t *testing.T) {
	// §8.3 boundary: an opcode byte of 240 or above triggers a second
	// byte fetch, with the id becoming 240+second_byte.
	data := []byte{240, 5} // 240 + 5 = 245 ("setactorproperty", class none)
	d := &Decoder{Data: data, SmallCode: true}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, 245, instr.Opcode)
	assert.Equal(t, 2, next)

	// 239 stays one byte, no second fetch ("mulglobalarray" takes one
	// small_int argument, so a further argument byte follows).
	data2 := []byte{239, 4}
	d2 := &Decoder{Data: data2, SmallCode: true}
	instr2, next2, err2 := d2.DecodeAt(0)
	require.NoError(t, err2)
	assert.Equal(t, 239, instr2.Opcode)
	assert.Equal(t, 2, next2)
}

func TestDecodeAt_LspecDirect(t *testing.T) {
	var data []byte
	data = append(data, le32(9)...) // lspec1direct, wide
	data = append(data, le32(3)...) // special id
	data = append(data, le32(11)...) // arg 1
	d := &Decoder{Data: data, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, "lspec1direct", instr.Name)
	assert.Equal(t, []int32{3, 11}, instr.Ints)
	assert.Equal(t, 12, next)
}

func TestDecodeAt_LspecDirect_SmallCodeIDShrinksArgsStayWide(t *testing.T) {
	var data []byte
	data = append(data, 9)          // opcode byte, small_code
	data = append(data, 3)          // id, 1 byte
	data = append(data, le32(11)...) // arg, still 4 bytes
	d := &Decoder{Data: data, SmallCode: true}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 11}, instr.Ints)
	assert.Equal(t, 6, next)
}

func TestDecodeAt_ByteArgs(t *testing.T) {
	var data []byte
	data = append(data, le32(167)...) // pushbyte, n=1
	data = append(data, 200)          // treated as signed byte
	d := &Decoder{Data: data, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	var wantByte byte = 200
	assert.Equal(t, []int32{int32(int8(wantByte))}, instr.Ints)
	assert.Equal(t, 5, next)
}

func TestDecodeAt_ByteCounted(t *testing.T) {
	var data []byte
	data = append(data, le32(175)...) // pushbytes
	data = append(data, 3, 10, 20, 30)
	d := &Decoder{Data: data, SmallCode: false}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 20, 30}, instr.Ints)
	assert.Equal(t, 4+1+3, next)
}

func TestDecodeAt_CaseTable_AlignedNoPadding(t *testing.T) {
	var data []byte
	data = append(data, le32(256)...) // casegotosorted, opcode ends at file offset 4 (aligned)
	data = append(data, le32(1)...)   // count
	data = append(data, le32(9)...)   // value
	data = append(data, le32(100)...) // target
	d := &Decoder{Data: data, SmallCode: false, Base: 0}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	require.Len(t, instr.Cases, 1)
	assert.Equal(t, int32(9), instr.Cases[0].Value)
	assert.Equal(t, int32(100), instr.Cases[0].Target)
	assert.Equal(t, 16, next)
}

func TestDecodeAt_CaseTable_ConsumesAlignmentPadding(t *testing.T) {
	// Base+next lands on offset 5 (not 4-aligned); the decoder must skip
	// 3 padding bytes before the count field.
	var data []byte
	data = append(data, 0)            // one byte of padding before the opcode itself
	data = append(data, le32(256)...) // casegotosorted at data offset 1
	data = append(data, 0, 0, 0)      // 3 bytes of alignment padding
	data = append(data, le32(0)...)   // count = 0
	d := &Decoder{Data: data, SmallCode: false, Base: 0}
	instr, next, err := d.DecodeAt(1)
	require.NoError(t, err)
	assert.Empty(t, instr.Cases)
	assert.Equal(t, len(data), next)
}

func TestDecodeAt_CaseTable_NegativeCountIsTruncated(t *testing.T) {
	var data []byte
	data = append(data, le32(256)...) // casegotosorted, aligned at base 0
	data = append(data, le32(-1)...)  // count
	d := &Decoder{Data: data, SmallCode: false, Base: 0}
	_, _, err := d.DecodeAt(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestDecodeAt_CaseTable_OversizedCountIsTruncated(t *testing.T) {
	var data []byte
	data = append(data, le32(256)...)     // casegotosorted, aligned at base 0
	data = append(data, le32(1<<28)...)   // count wildly exceeds the remaining segment
	d := &Decoder{Data: data, SmallCode: false, Base: 0}
	_, _, err := d.DecodeAt(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestDecodeAt_CallFunc_SmallCode(t *testing.T) {
	// opcode 351 in small_code form: byte 240 triggers a 2-byte fetch: 240+111=351.
	var data []byte
	data = append(data, 240, 111)
	data = append(data, 2)                  // num_args
	data = append(data, byteLE16(int16(7))...) // index
	d := &Decoder{Data: data, SmallCode: true}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, "callfunc", instr.Name)
	assert.Equal(t, []int32{2, 7}, instr.Ints)
	assert.Equal(t, len(data), next)
}

func TestDecodeAt_CallFunc_SmallCode_SignExtendsNumArgs(t *testing.T) {
	var data []byte
	data = append(data, 240, 111)                 // callfunc, opcode 351
	data = append(data, 200)                       // num_args byte 200 == int8(-56)
	data = append(data, byteLE16(int16(3))...)     // index
	d := &Decoder{Data: data, SmallCode: true}
	instr, next, err := d.DecodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, []int32{-56, 3}, instr.Ints)
	assert.Equal(t, len(data), next)
}

func byteLE16(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

func TestDecodeAt_UnknownOpcode(t *testing.T) {
	data := le32(999999)
	d := &Decoder{Data: data, SmallCode: false}
	_, _, err := d.DecodeAt(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOpcode))
}

func TestDecodeAt_TruncatedField(t *testing.T) {
	data := le32(3) // pushnumber, but no argument bytes follow
	d := &Decoder{Data: data, SmallCode: false}
	_, _, err := d.DecodeAt(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
}
