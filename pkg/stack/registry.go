/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: registry.go
Description: Routine registry for the Smashlab teaching challenge. Maps real
function entry addresses to callable routines so that a frame's saved return
slot can be "returned through" the way a ret instruction would, including the
hijacked case where the slot was overwritten with a leaked address.
*/

package stack

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrBadReturn is returned by Dispatch when the return slot holds an
// address no routine was registered at. This is the lab's segmentation
// fault: execution "resumed" somewhere that is not code.
var ErrBadReturn = errors.New("invalid return address")

// Routine is a unit of code a frame can return into.
type Routine func()

// Registry maps function entry addresses to routines. Addresses are the
// genuine entry points reported by the runtime, so the address the
// challenge leaks is real and distinct per routine.
type Registry struct {
	mu       sync.RWMutex
	routines map[uintptr]Routine
}

// NewRegistry creates an empty routine registry.
func NewRegistry() *Registry {
	return &Registry{
		routines: make(map[uintptr]Routine),
	}
}

// Register records a routine under its entry address and returns that
// address. Registering the same function twice is harmless.
func (r *Registry) Register(fn Routine) uintptr {
	addr := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	r.routines[addr] = fn
	r.mu.Unlock()

	return addr
}

// Dispatch transfers control to the routine registered at addr, modeling
// the ret instruction consuming the saved return slot. An address with no
// routine behind it yields ErrBadReturn.
func (r *Registry) Dispatch(addr uintptr) error {
	r.mu.RLock()
	fn, ok := r.routines[addr]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %#x", ErrBadReturn, addr)
	}

	fn()
	return nil
}

// Contains reports whether a routine is registered at addr.
func (r *Registry) Contains(addr uintptr) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routines[addr]
	return ok
}

// Size returns the number of registered routines.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routines)
}
