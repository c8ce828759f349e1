/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder.go
Description: Fluent payload builder for the Smashlab exploit tooling. Builds
the byte sequences an exploit feeds a vulnerable program - padding, cyclic
patterns, integers, and encoded pointers - with error latching so a chain of
calls can be checked once at the end.
*/

package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Builder assembles exploit payloads step by step. The first error that
// occurs is latched and returned by Build; later calls become no-ops.
type Builder struct {
	buf   bytes.Buffer
	order binary.ByteOrder
	err   error
}

// NewBuilder creates an empty payload builder. Integers are encoded
// little-endian unless SetByteOrder says otherwise.
func NewBuilder() *Builder {
	return &Builder{order: binary.LittleEndian}
}

// SetByteOrder overrides the byte order used for integer encoding.
func (b *Builder) SetByteOrder(order binary.ByteOrder) *Builder {
	b.order = order
	return b
}

// Bytes appends raw bytes to the payload.
func (b *Builder) Bytes(p []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.buf.Write(p)
	return b
}

// Byte appends a single byte to the payload.
func (b *Builder) Byte(c byte) *Builder {
	if b.err != nil {
		return b
	}
	b.buf.WriteByte(c)
	return b
}

// String appends a string to the payload.
func (b *Builder) String(s string) *Builder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(s)
	return b
}

// RepeatByte appends count copies of a byte, the usual way overflow
// padding is written.
func (b *Builder) RepeatByte(c byte, count int) *Builder {
	if b.err != nil {
		return b
	}
	if count < 0 {
		b.err = fmt.Errorf("repeat count must not be negative: %d", count)
		return b
	}
	b.buf.Write(bytes.Repeat([]byte{c}, count))
	return b
}

// RepeatBytes appends count copies of a byte sequence.
func (b *Builder) RepeatBytes(p []byte, count int) *Builder {
	if b.err != nil {
		return b
	}
	if count < 0 {
		b.err = fmt.Errorf("repeat count must not be negative: %d", count)
		return b
	}
	b.buf.Write(bytes.Repeat(p, count))
	return b
}

// Uint32 appends an unsigned 32-bit integer in the builder's byte order.
func (b *Builder) Uint32(u uint32) *Builder {
	if b.err != nil {
		return b
	}
	out := make([]byte, 4)
	b.order.PutUint32(out, u)
	b.buf.Write(out)
	return b
}

// Uint64 appends an unsigned 64-bit integer in the builder's byte order.
func (b *Builder) Uint64(u uint64) *Builder {
	if b.err != nil {
		return b
	}
	out := make([]byte, 8)
	b.order.PutUint64(out, u)
	b.buf.Write(out)
	return b
}

// Pointer appends an encoded pointer to the payload. This is the byte
// sequence that lands in the return slot.
func (b *Builder) Pointer(p Pointer) *Builder {
	return b.Bytes(p.Bytes())
}

// Len reports the number of bytes assembled so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Build returns the assembled payload, or the first error latched along
// the way.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", b.err)
	}
	return b.buf.Bytes(), nil
}

// MustBuild returns the assembled payload and panics on a latched error.
// Meant for payloads built from constants.
func (b *Builder) MustBuild() []byte {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
