package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_HasExactly385Entries(t *testing.T) {
	assert.Equal(t, 385, Total())
}

func TestTable_IndexMatchesID(t *testing.T) {
	for id, op := range Table {
		assert.Equal(t, id, op.ID, "table entry at index %d carries id %d", id, op.ID)
	}
}

func TestLookup_KnownQuirks(t *testing.T) {
	// The reference opcode table carries a real typo and a duplicated
	// mnemonic that this table preserves rather than "fixing".
	op, ok := Lookup(130)
	require.True(t, ok)
	assert.Equal(t, "getinvastionstate", op.Name)

	a, ok := Lookup(95)
	require.True(t, ok)
	b, ok := Lookup(103)
	require.True(t, ok)
	assert.Equal(t, "ambientsound", a.Name)
	assert.Equal(t, "ambientsound", b.Name)
}

func TestLookup_OutOfRange(t *testing.T) {
	_, ok := Lookup(-1)
	assert.False(t, ok)
	_, ok = Lookup(385)
	assert.False(t, ok)
}
