// SPDX-License-Identifier: Apache-2.0

// Package allocx provides specialized region-based memory allocators:
// a linear (stack) allocator with rollback markers, a fixed-size pool
// allocator, and a variable-size free-list allocator. Each allocator
// manages a single contiguous byte region obtained once at construction
// (or borrowed from the caller) and never grown.
package allocx

import (
	"unsafe"
)

// Allocator is the capability shared by every allocator in this package.
//
// Allocators are not safe for concurrent use; wrap one in a Locked
// allocator when multiple goroutines need to share it.
type Allocator interface {
	// Alloc returns a pointer to size bytes aligned to alignment, or nil
	// when the region cannot satisfy the request. A size of zero returns
	// nil, except from Pool, which ignores both arguments and serves a
	// whole chunk. The alignment must be a power of two.
	// The returned memory is not zeroed.
	Alloc(size, alignment uintptr) unsafe.Pointer

	// Free returns previously allocated memory to the allocator. Passing
	// nil is a no-op. Some allocators (Stack) do not support individual
	// frees and ignore the call.
	Free(ptr unsafe.Pointer)

	// Reset returns the allocator to its just-constructed state without
	// releasing the underlying region. Any pointer previously returned by
	// Alloc becomes immediately invalid.
	Reset()

	// Release detaches the allocator from its region, dropping its
	// reference to owned memory so the GC can reclaim it. Every
	// subsequent Alloc returns nil.
	Release()

	// Owns reports whether ptr lies inside the allocator's region. Pool
	// additionally requires ptr to be the start of a chunk.
	Owns(ptr unsafe.Pointer) bool

	// Len returns the number of bytes currently allocated.
	Len() int

	// Cap returns the total number of bytes the region can hold.
	Cap() int
}

// Allocate allocates memory for a value of type T using the provided
// Allocator and returns a pointer to a zeroed T. If a is nil or cannot
// serve the request, it falls back to Go's built-in new function.
//
// Values stored through the returned pointer must not be the only
// reference to a garbage-collected object: the region's bytes are not
// scanned by the GC.
func Allocate[T any](a Allocator) *T {
	if a != nil {
		var x T
		if ptr := a.Alloc(unsafe.Sizeof(x), unsafe.Alignof(x)); ptr != nil {
			memclr(ptr, unsafe.Sizeof(x))
			return (*T)(ptr)
		}
	}
	return new(T)
}

// memclr zeroes size bytes at ptr. The loop is recognized by the
// compiler and lowered to runtime.memclrNoHeapPointers.
func memclr(ptr unsafe.Pointer, size uintptr) {
	b := unsafe.Slice((*byte)(ptr), size)
	for i := range b {
		b[i] = 0
	}
}
