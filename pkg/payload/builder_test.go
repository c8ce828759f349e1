/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder_test.go
Description: Unit tests for the payload builder. Covers chaining, integer
encoding, padding helpers, and error latching.
*/

package payload_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kleascm/smashlab/pkg/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilderChaining verifies a chain of writes lands in order
func TestBuilderChaining(t *testing.T) {
	p, err := payload.NewBuilder().
		String("AB").
		Byte('C').
		Bytes([]byte{'D', 'E'}).
		Build()

	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDE"), p)
}

// TestBuilderUint64LittleEndian verifies the default integer encoding
func TestBuilderUint64LittleEndian(t *testing.T) {
	p, err := payload.NewBuilder().
		Uint64(0x1122334455667788).
		Build()

	require.NoError(t, err)
	assert.Equal(t, []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, p)
}

// TestBuilderUint32BigEndian verifies SetByteOrder overrides the encoding
func TestBuilderUint32BigEndian(t *testing.T) {
	p, err := payload.NewBuilder().
		SetByteOrder(binary.BigEndian).
		Uint32(0x11223344).
		Build()

	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, p)
}

// TestBuilderRepeatByte verifies padding generation
func TestBuilderRepeatByte(t *testing.T) {
	p, err := payload.NewBuilder().
		RepeatByte('A', 64).
		Build()

	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{'A'}, 64), p)
	assert.Len(t, p, 64)
}

// TestBuilderPointer verifies an encoded pointer is appended verbatim
func TestBuilderPointer(t *testing.T) {
	pm := payload.NewPointerMaker()

	p, err := payload.NewBuilder().
		RepeatByte('A', 4).
		Pointer(pm.FromUint(0xdeadbeef)).
		Build()

	require.NoError(t, err)
	assert.Equal(t, append([]byte("AAAA"), 0xef, 0xbe, 0xad, 0xde, 0, 0, 0, 0), p)
}

// TestBuilderErrorLatching verifies the first error sticks and later
// writes are dropped
func TestBuilderErrorLatching(t *testing.T) {
	b := payload.NewBuilder().
		RepeatByte('A', -1).
		String("never lands")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeat count")
}

// TestBuilderLen verifies Len tracks assembled bytes
func TestBuilderLen(t *testing.T) {
	b := payload.NewBuilder().String("ABC")
	assert.Equal(t, 3, b.Len())
}

// TestBuilderMustBuildPanics verifies MustBuild panics on a latched error
func TestBuilderMustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		payload.NewBuilder().RepeatBytes([]byte("x"), -1).MustBuild()
	})
}
