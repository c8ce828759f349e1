/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: registry_test.go
Description: Unit tests for the routine registry, including the full
stack-level exploit: overflow a frame with padding plus a registered
routine's address and return straight into it.
*/

package stack_test

import (
	"errors"
	"testing"

	"github.com/kleascm/smashlab/pkg/payload"
	"github.com/kleascm/smashlab/pkg/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryFixtureA() {}
func registryFixtureB() {}

// TestRegistryRegisterAndDispatch verifies a registered routine is
// reachable through its own address
func TestRegistryRegisterAndDispatch(t *testing.T) {
	registry := stack.NewRegistry()

	called := false
	target := func() { called = true }

	addr := registry.Register(target)
	require.NotZero(t, addr)
	assert.True(t, registry.Contains(addr))

	err := registry.Dispatch(addr)
	require.NoError(t, err)
	assert.True(t, called)
}

// TestRegistryDistinctAddresses verifies distinct functions register at
// distinct addresses
func TestRegistryDistinctAddresses(t *testing.T) {
	registry := stack.NewRegistry()

	addrA := registry.Register(registryFixtureA)
	addrB := registry.Register(registryFixtureB)

	assert.NotEqual(t, addrA, addrB)
	assert.Equal(t, 2, registry.Size())
}

// TestRegistryDispatchBadReturn verifies an unregistered address yields
// ErrBadReturn
func TestRegistryDispatchBadReturn(t *testing.T) {
	registry := stack.NewRegistry()

	err := registry.Dispatch(0x4141414141414141)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stack.ErrBadReturn))
}

// TestStackLevelExploit walks the whole exercise at the frame level: a
// frame set to return into the normal path, overflowed with padding plus
// the secret routine's leaked address, returns into the secret routine.
func TestStackLevelExploit(t *testing.T) {
	registry := stack.NewRegistry()

	var reached string
	secretAddr := registry.Register(func() { reached = "secret" })
	farewellAddr := registry.Register(func() { reached = "farewell" })

	frame := stack.NewFrame(farewellAddr)

	pm := payload.NewPointerMaker()
	crafted, err := payload.NewBuilder().
		RepeatByte('A', stack.BufferCapacity).
		Pointer(pm.FromUint(uint64(secretAddr))).
		Build()
	require.NoError(t, err)

	stack.OverflowCopy(frame, crafted)
	assert.Equal(t, secretAddr, frame.Return())

	err = registry.Dispatch(frame.Return())
	require.NoError(t, err)
	assert.Equal(t, "secret", reached)
}

// TestStackLevelExploitBlockedWhenHardened verifies the same payload does
// nothing against the bounds-checked copy
func TestStackLevelExploitBlockedWhenHardened(t *testing.T) {
	registry := stack.NewRegistry()

	var reached string
	secretAddr := registry.Register(func() { reached = "secret" })
	farewellAddr := registry.Register(func() { reached = "farewell" })

	frame := stack.NewFrame(farewellAddr)

	pm := payload.NewPointerMaker()
	crafted, err := payload.NewBuilder().
		RepeatByte('A', stack.BufferCapacity).
		Pointer(pm.FromUint(uint64(secretAddr))).
		Build()
	require.NoError(t, err)

	copyErr := stack.BoundedCopy(frame, crafted)
	require.Error(t, copyErr)
	assert.True(t, errors.Is(copyErr, stack.ErrInputTooLong))

	err = registry.Dispatch(frame.Return())
	require.NoError(t, err)
	assert.Equal(t, "farewell", reached)
}
