// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"errors"
	"unsafe"
)

// ErrOutOfMemory is the panic value raised by Typed when the underlying
// allocator cannot serve a request. It is the only place exhaustion
// escapes as control flow instead of a nil return: container code built
// on Typed expects allocation to either succeed or unwind.
var ErrOutOfMemory = errors.New("allocx: out of memory")

// Typed adapts an Allocator to element-wise allocation of values of
// type T. It is a trivially copyable value holding only the allocator
// reference; copies and rebinds of one shim are interchangeable.
type Typed[T any] struct {
	a Allocator
}

// NewTyped returns a shim allocating values of type T from a.
func NewTyped[T any](a Allocator) Typed[T] {
	if a == nil {
		panic("allocx: nil allocator")
	}
	return Typed[T]{a: a}
}

// AllocN allocates a zeroed []T of length n from the underlying
// allocator. n of zero returns nil; exhaustion panics with
// ErrOutOfMemory.
//
// Elements must not be the only reference to a garbage-collected
// object: the region's bytes are not scanned by the GC.
func (t Typed[T]) AllocN(n int) []T {
	if n == 0 {
		return nil
	}
	if n < 0 {
		panic("allocx: negative element count")
	}
	var x T
	size := uintptr(n) * unsafe.Sizeof(x)
	ptr := t.a.Alloc(size, unsafe.Alignof(x))
	if ptr == nil {
		panic(ErrOutOfMemory)
	}
	memclr(ptr, size)
	return unsafe.Slice((*T)(ptr), n)
}

// FreeN returns a slice obtained from AllocN to the underlying
// allocator. Passing nil or an empty slice is a no-op.
func (t Typed[T]) FreeN(s []T) {
	if len(s) == 0 {
		return
	}
	t.a.Free(unsafe.Pointer(unsafe.SliceData(s)))
}

// Underlying returns the allocator the shim draws from.
func (t Typed[T]) Underlying() Allocator {
	return t.a
}

// Equal reports whether both shims draw from the same underlying
// allocator, regardless of their element types.
func (t Typed[T]) Equal(other interface{ Underlying() Allocator }) bool {
	return t.a == other.Underlying()
}

// RebindTyped converts a shim for one element type into a shim for
// another, sharing the underlying allocator.
func RebindTyped[T, U any](t Typed[T]) Typed[U] {
	return Typed[U]{a: t.a}
}
