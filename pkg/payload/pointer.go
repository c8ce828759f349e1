/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pointer.go
Description: Pointer encoding for exploit payloads. Converts between the
numeric addresses a challenge leaks and the raw little-endian bytes a payload
must carry to land in a pointer-sized slot on the target's stack.
*/

package payload

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a target-address value together with the encoding it will be
// written to the wire with.
type Pointer struct {
	value uint64
	order binary.ByteOrder
	size  int
}

// Bytes returns the pointer encoded at its configured width and byte order,
// ready to be appended to a payload.
func (p Pointer) Bytes() []byte {
	full := make([]byte, 8)
	p.order.PutUint64(full, p.value)
	if p.size >= 8 {
		return full
	}
	// Narrow pointers keep the significant end of the encoding.
	if p.order == binary.BigEndian {
		return full[8-p.size:]
	}
	return full[:p.size]
}

// Uint64 returns the pointer's numeric value.
func (p Pointer) Uint64() uint64 {
	return p.value
}

// Uintptr returns the pointer's numeric value as a uintptr.
func (p Pointer) Uintptr() uintptr {
	return uintptr(p.value)
}

// HexString returns the pointer in the 0x-prefixed form a challenge
// prints it in.
func (p Pointer) HexString() string {
	return fmt.Sprintf("%#x", p.value)
}

// PointerMaker builds Pointers for a particular target platform.
type PointerMaker struct {
	order binary.ByteOrder
	size  int
}

// NewPointerMaker returns a PointerMaker for the common 64-bit
// little-endian target.
func NewPointerMaker() PointerMaker {
	return PointerMaker{
		order: binary.LittleEndian,
		size:  8,
	}
}

// NewPointerMakerFor returns a PointerMaker with an explicit byte order and
// pointer width in bytes.
func NewPointerMakerFor(order binary.ByteOrder, size int) (PointerMaker, error) {
	if order == nil {
		return PointerMaker{}, fmt.Errorf("byte order must not be nil")
	}
	if size <= 0 || size > 8 {
		return PointerMaker{}, fmt.Errorf("unsupported pointer size: %d", size)
	}
	return PointerMaker{order: order, size: size}, nil
}

// Size returns the pointer width in bytes.
func (m PointerMaker) Size() int {
	return m.size
}

// FromUint builds a Pointer from a numeric address.
func (m PointerMaker) FromUint(addr uint64) Pointer {
	return Pointer{value: addr, order: m.order, size: m.size}
}

// FromHexString parses an address in the textual form a challenge leaks it
// in, with or without the 0x prefix.
func (m PointerMaker) FromHexString(s string) (Pointer, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" {
		return Pointer{}, fmt.Errorf("empty address string")
	}

	value, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return Pointer{}, fmt.Errorf("failed to parse address %q: %w", s, err)
	}

	return m.FromUint(value), nil
}
