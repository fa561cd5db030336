// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"unsafe"
)

// pointerSize is the minimum usable allocation unit: free chunks and
// free blocks store an intrusive next-pointer in their first bytes.
const pointerSize = unsafe.Sizeof(uintptr(0))

// region is the contiguous byte span an allocator manages. The buf
// reference keeps the backing memory alive under the GC; base and size
// describe the aligned usable window inside it. An owned region was
// allocated by the constructor, a borrowed one was supplied by the
// caller and is never released here.
type region struct {
	buf   []byte
	base  uintptr
	size  uintptr
	owned bool
}

// newOwnedRegion obtains size bytes from the Go heap with the base
// aligned to align. The over-allocation by align bytes guarantees an
// aligned window of the full requested size.
func newOwnedRegion(size, align uintptr) region {
	if size == 0 {
		return region{}
	}
	buf := make([]byte, size+align)
	raw := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	return region{
		buf:   buf,
		base:  AlignUp(raw, align),
		size:  size,
		owned: true,
	}
}

// newBorrowedRegion wraps a caller-supplied buffer. Bytes before the
// first align boundary are unusable and excluded from the window.
func newBorrowedRegion(buf []byte, align uintptr) region {
	if len(buf) == 0 {
		return region{}
	}
	raw := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	base := AlignUp(raw, align)
	waste := base - raw
	if waste >= uintptr(len(buf)) {
		return region{}
	}
	return region{
		buf:  buf,
		base: base,
		size: uintptr(len(buf)) - waste,
	}
}

func (r *region) contains(p uintptr) bool {
	return r.buf != nil && p >= r.base && p < r.base+r.size
}

// release detaches the region. Owned memory is handed back to the GC by
// dropping the reference; borrowed memory stays with its owner either way.
func (r *region) release() {
	*r = region{}
}
