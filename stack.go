// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"unsafe"
)

// Marker is an opaque snapshot of a Stack's allocation cursor, obtained
// from Stack.Marker and consumed by Stack.Rollback. Markers nest: take
// one per scope and roll back in LIFO order.
type Marker uintptr

// Stack is a linear (bump-pointer) allocator. Allocation advances a
// single cursor; individual frees are unsupported. Deallocation happens
// in bulk via Reset, or partially via Marker/Rollback.
//
// All bookkeeping is a single offset, which makes Stack the cheapest
// allocator here and the right choice for per-frame or per-request
// scratch memory.
type Stack struct {
	region region
	offset uintptr
	peak   uintptr
}

// NewStack creates a stack allocator over an owned region of size bytes.
func NewStack(size int) *Stack {
	if size < 0 {
		size = 0
	}
	return &Stack{region: newOwnedRegion(uintptr(size), DefaultAlign)}
}

// NewStackBuffer creates a stack allocator over a caller-supplied
// buffer. The buffer is borrowed: Release detaches from it without
// freeing, and the caller must keep it alive while the allocator is in
// use.
func NewStackBuffer(buf []byte) *Stack {
	return &Stack{region: newBorrowedRegion(buf, DefaultAlign)}
}

// Alloc returns a pointer to size bytes aligned to alignment, or nil
// when the remaining region cannot hold the request. The cursor is
// unchanged on failure.
func (s *Stack) Alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 || s.region.buf == nil {
		return nil
	}
	pad := Padding(s.region.base+s.offset, alignment)
	if s.offset+pad+size > s.region.size {
		return nil
	}
	addr := s.region.base + s.offset + pad
	s.offset += pad + size
	if s.offset > s.peak {
		s.peak = s.offset
	}
	return unsafe.Pointer(addr)
}

// Free is a no-op: a stack allocator does not support individual frees.
// Use Rollback or Reset.
func (s *Stack) Free(ptr unsafe.Pointer) {}

// Reset invalidates every outstanding allocation and returns the whole
// region to the free state. Peak is preserved.
func (s *Stack) Reset() {
	s.offset = 0
}

// Release detaches the allocator from its region. Subsequent Allocs
// return nil.
func (s *Stack) Release() {
	s.region.release()
	s.offset = 0
}

// Marker returns a snapshot of the current cursor for a later Rollback.
func (s *Stack) Marker() Marker {
	return Marker(s.offset)
}

// Rollback returns the cursor to a previously obtained marker, freeing
// everything allocated since. Rolling back to a marker ahead of the
// cursor is a programming error and panics.
func (s *Stack) Rollback(m Marker) {
	if uintptr(m) > s.offset {
		panic("allocx: rollback to a marker ahead of the cursor")
	}
	s.offset = uintptr(m)
}

// Owns reports whether ptr lies inside the allocator's region.
func (s *Stack) Owns(ptr unsafe.Pointer) bool {
	return s.region.contains(uintptr(ptr))
}

// Len returns the number of bytes currently allocated.
func (s *Stack) Len() int {
	return int(s.offset)
}

// Cap returns the size of the region.
func (s *Stack) Cap() int {
	return int(s.region.size)
}

// Available returns the number of bytes left in the region.
func (s *Stack) Available() uintptr {
	return s.region.size - s.offset
}

// Peak returns the high-water mark of allocated bytes. It survives
// Reset and Rollback, allowing right-sizing of future regions.
func (s *Stack) Peak() int {
	return int(s.peak)
}
