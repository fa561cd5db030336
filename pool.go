// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"unsafe"
)

// Pool is a fixed-size chunk allocator. The region is divided into
// chunkCount chunks of chunkSize bytes; free chunks form an intrusive
// singly-linked list threaded through their own first pointer-sized
// bytes, so no per-chunk metadata exists outside the region and the
// usable-byte ratio is 100%.
//
// Alloc and Free are O(1) and fragmentation-free: every chunk is
// interchangeable.
type Pool struct {
	region     region
	chunkSize  uintptr
	chunkCount int
	freeCount  int
	freeHead   uintptr // address of first free chunk, 0 when exhausted
	align      uintptr
}

// PoolOption configures a Pool at construction.
type PoolOption func(*Pool)

// WithPoolAlignment sets the chunk alignment. It must be a power of
// two. The default is DefaultAlign.
func WithPoolAlignment(align uintptr) PoolOption {
	return func(p *Pool) {
		p.align = align
	}
}

// NewPool creates a pool of chunkCount chunks over an owned region.
// The effective chunk size is chunkSize rounded up to the alignment and
// to the intrusive pointer minimum.
func NewPool(chunkSize, chunkCount int, opts ...PoolOption) *Pool {
	p := &Pool{align: DefaultAlign}
	for _, opt := range opts {
		opt(p)
	}
	assertPow2(p.align)
	p.chunkSize = effectiveChunkSize(chunkSize, p.align)
	if chunkCount > 0 {
		p.chunkCount = chunkCount
		p.region = newOwnedRegion(p.chunkSize*uintptr(chunkCount), p.align)
		p.threadFreeList()
	}
	return p
}

// NewPoolBuffer creates a pool over a caller-supplied buffer. The chunk
// count is however many aligned chunks fit in the buffer.
func NewPoolBuffer(buf []byte, chunkSize int, opts ...PoolOption) *Pool {
	p := &Pool{align: DefaultAlign}
	for _, opt := range opts {
		opt(p)
	}
	assertPow2(p.align)
	p.chunkSize = effectiveChunkSize(chunkSize, p.align)
	p.region = newBorrowedRegion(buf, p.align)
	p.chunkCount = int(p.region.size / p.chunkSize)
	if p.chunkCount > 0 {
		p.threadFreeList()
	} else {
		p.region.release()
	}
	return p
}

func effectiveChunkSize(requested int, align uintptr) uintptr {
	if requested < 0 {
		requested = 0
	}
	size := uintptr(requested)
	if size < pointerSize {
		size = pointerSize
	}
	return AlignUp(size, align)
}

// threadFreeList links every chunk into the free list in address order,
// the last chunk pointing at nothing.
func (p *Pool) threadFreeList() {
	addr := p.region.base
	p.freeHead = addr
	for i := 0; i < p.chunkCount-1; i++ {
		next := addr + p.chunkSize
		*(*uintptr)(unsafe.Pointer(addr)) = next
		addr = next
	}
	*(*uintptr)(unsafe.Pointer(addr)) = 0
	p.freeCount = p.chunkCount
}

// Alloc pops a chunk off the free list, or returns nil when the pool is
// exhausted. Both arguments are ignored: chunk size and alignment are
// fixed at construction.
func (p *Pool) Alloc(size, alignment uintptr) unsafe.Pointer {
	if p.freeHead == 0 {
		return nil
	}
	addr := p.freeHead
	p.freeHead = *(*uintptr)(unsafe.Pointer(addr))
	p.freeCount--
	return unsafe.Pointer(addr)
}

// Free pushes a chunk back onto the free list. Passing nil is a no-op.
// Freeing a pointer that did not come from this pool, or freeing a
// chunk twice, corrupts the free list. The allocxdebug build tag turns
// a free of a pointer that is not a chunk of this pool into a panic; a
// double free is not detected.
func (p *Pool) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	if debugChecks && !p.Owns(ptr) {
		panic("allocx: free of pointer not owned by this pool")
	}
	addr := uintptr(ptr)
	*(*uintptr)(unsafe.Pointer(addr)) = p.freeHead
	p.freeHead = addr
	p.freeCount++
}

// Reset returns every chunk to the free list.
func (p *Pool) Reset() {
	if p.chunkCount > 0 && p.region.buf != nil {
		p.threadFreeList()
	}
}

// Release detaches the pool from its region. Subsequent Allocs return
// nil.
func (p *Pool) Release() {
	p.region.release()
	p.freeHead = 0
	p.freeCount = 0
	p.chunkCount = 0
}

// Owns reports whether ptr is a chunk address of this pool. Addresses
// interior to a chunk do not qualify.
func (p *Pool) Owns(ptr unsafe.Pointer) bool {
	addr := uintptr(ptr)
	if p.region.buf == nil || addr < p.region.base {
		return false
	}
	off := addr - p.region.base
	if off >= p.chunkSize*uintptr(p.chunkCount) {
		return false
	}
	return off%p.chunkSize == 0
}

// Len returns the number of bytes held by allocated chunks.
func (p *Pool) Len() int {
	return (p.chunkCount - p.freeCount) * int(p.chunkSize)
}

// Cap returns the total number of bytes across all chunks.
func (p *Pool) Cap() int {
	return p.chunkCount * int(p.chunkSize)
}

// ChunkSize returns the effective (aligned) chunk size.
func (p *Pool) ChunkSize() int {
	return int(p.chunkSize)
}

// ChunkCount returns the number of chunks in the pool.
func (p *Pool) ChunkCount() int {
	return p.chunkCount
}

// FreeCount returns the number of chunks available for allocation.
func (p *Pool) FreeCount() int {
	return p.freeCount
}
