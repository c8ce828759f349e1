/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: frame.go
Description: Simulated call frame for the Smashlab teaching challenge. Models a
fixed-size stack buffer sitting directly below a saved return address, together
with the unchecked copy that makes the classic overflow possible and the
bounds-checked copy a hardened program would use instead.
*/

package stack

import (
	"bytes"
	"errors"
	"fmt"
	"unsafe"
)

const (
	// BufferCapacity is the size of the frame's local buffer in bytes.
	// Small on purpose - easy to overflow.
	BufferCapacity = 64

	// PointerSize is the width of the saved return slot in bytes.
	PointerSize = int(unsafe.Sizeof(uintptr(0)))
)

// ErrInputTooLong is returned by BoundedCopy when the input exceeds
// the buffer capacity. The hardened copy rejects such input outright
// rather than truncating it silently.
var ErrInputTooLong = errors.New("input too long")

// Frame models a single call frame the way the stack lays one out: a
// fixed-capacity local buffer immediately followed in memory by the saved
// return address, then the caller's locals above it. The adjacency of buf
// and ret is the entire premise of the exercise.
//
// Field order matters here. The Go compiler does not reorder struct fields,
// so ret really does live at byte offset BufferCapacity from the start of
// buf, exactly like a saved return address on a real stack.
type Frame struct {
	buf    [BufferCapacity]byte
	ret    uintptr
	caller [192]byte // the caller's frame; overflow past ret lands here
}

// NewFrame creates a frame whose return slot points at the given address.
// On a real stack the call instruction does this push.
func NewFrame(ret uintptr) *Frame {
	return &Frame{ret: ret}
}

// OverflowCopy is the teaching copy: it writes the entire input into frame
// memory starting at the base of the buffer with no length check, the way
// gets() would. Input longer than BufferCapacity runs past the buffer and
// overwrites the saved return address; longer still, and it keeps going
// into the caller's frame.
//
// The write is bounded only by the size of the simulated stack itself, not
// by the buffer. Input that would run off the end of the frame entirely is
// dropped at that edge - on a real stack those bytes would keep corrupting
// memory the program does not own, which is undefined behavior rather than
// anything worth modeling.
func OverflowCopy(f *Frame, input []byte) {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(f)), unsafe.Sizeof(*f))
	copy(raw, input)
}

// BoundedCopy is the hardened copy: input longer than the buffer capacity
// is rejected with ErrInputTooLong and nothing is written. The return slot
// can never be reached through this path.
func BoundedCopy(f *Frame, input []byte) error {
	if len(input) > BufferCapacity {
		return fmt.Errorf("%w: got %d bytes, buffer holds %d",
			ErrInputTooLong, len(input), BufferCapacity)
	}
	copy(f.buf[:], input)
	return nil
}

// Text returns the bytes captured in the buffer up to the first NUL,
// mirroring how a C program would read the buffer back for display.
func (f *Frame) Text() []byte {
	if i := bytes.IndexByte(f.buf[:], 0); i >= 0 {
		return f.buf[:i]
	}
	return f.buf[:]
}

// Return reports the current value of the saved return slot.
func (f *Frame) Return() uintptr {
	return f.ret
}

// RetOffset reports the distance in bytes from the start of the buffer to
// the return slot. Useful for asserting the layout the exercise depends on.
func RetOffset() uintptr {
	return unsafe.Offsetof(Frame{}.ret)
}
