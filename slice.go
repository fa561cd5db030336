// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a zeroed slice of type T with a given length
// and capacity, using the provided Allocator for memory. If a is nil or
// cannot serve the request, it falls back to Go's built-in make.
func AllocateSlice[T any](a Allocator, len, cap int) []T {
	if a != nil && cap > 0 {
		var x T
		bufSize := unsafe.Sizeof(x) * uintptr(cap)
		if ptr := a.Alloc(bufSize, unsafe.Alignof(x)); ptr != nil {
			memclr(ptr, bufSize)
			s := unsafe.Slice((*T)(ptr), cap)
			return s[:len]
		}
	}
	return make([]T, len, cap)
}

// SliceAppend appends elements to a slice of type T, growing it through
// the provided Allocator when needed. Outgrown backing arrays are
// abandoned to the allocator, so pair this with bulk-freeing allocators
// (Stack) or free them explicitly.
func SliceAppend[T any](a Allocator, s []T, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

func growSlice[T any](a Allocator, s []T, dataLen int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s
	}
	s2 := AllocateSlice[T](a, len(s), newCap)
	copy(s2, s)
	return s2
}
