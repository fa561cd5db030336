// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"unsafe"
)

// Fit selects which free block serves an allocation.
type Fit uint8

const (
	// FirstFit uses the lowest-addressed block that fits. Fast.
	FirstFit Fit = iota
	// BestFit uses the smallest block that fits. Less waste; scans the
	// whole list unless an exact fit turns up first.
	BestFit
	// WorstFit uses the largest block that fits, keeping big blocks big.
	WorstFit
)

// MaxAlign is the largest alignment the free-list allocator serves.
// The per-block padding is stored in a single byte, so padding values
// must stay below 256; requests above MaxAlign return nil.
const MaxAlign = 128

// blockHeader prefixes every block in a FreeList region, free or
// allocated. The same bytes that hold next while the block is free
// belong to nothing once allocated: next is only meaningful on free
// blocks, padding only on allocated ones.
type blockHeader struct {
	size    uintptr // payload bytes after the header
	next    uintptr // address of the next free block, 0 at list end
	free    bool
	padding uint8 // alignment padding used by the current allocation
}

const headerSize = unsafe.Sizeof(blockHeader{})

// minPayload keeps every block large enough to hold the intrusive next
// pointer once freed.
const minPayload = pointerSize

// FreeList is a variable-size allocator over a single region. Every
// block carries a header; free blocks form a singly-linked list kept
// sorted by address, which lets Free merge a block with its physical
// neighbors immediately and keeps the "no two adjacent free blocks"
// invariant at every quiescent point.
type FreeList struct {
	region region
	used   uintptr
	fit    Fit
	head   uintptr // address of first free block, 0 when none
}

// FreeListOption configures a FreeList at construction.
type FreeListOption func(*FreeList)

// WithFit sets the placement strategy. The default is FirstFit.
func WithFit(fit Fit) FreeListOption {
	return func(f *FreeList) {
		f.fit = fit
	}
}

// NewFreeList creates a free-list allocator over an owned region of
// size bytes. Regions too small to hold a header plus a minimum payload
// are unusable and every Alloc returns nil.
func NewFreeList(size int, opts ...FreeListOption) *FreeList {
	f := &FreeList{}
	for _, opt := range opts {
		opt(f)
	}
	if size > 0 && uintptr(size) > headerSize+minPayload {
		f.region = newOwnedRegion(uintptr(size), DefaultAlign)
		f.init()
	}
	return f
}

// NewFreeListBuffer creates a free-list allocator over a
// caller-supplied buffer. The buffer is borrowed and never freed here.
func NewFreeListBuffer(buf []byte, opts ...FreeListOption) *FreeList {
	f := &FreeList{}
	for _, opt := range opts {
		opt(f)
	}
	r := newBorrowedRegion(buf, DefaultAlign)
	if r.size > headerSize+minPayload {
		f.region = r
		f.init()
	}
	return f
}

// init lays down the single free block spanning the whole region.
func (f *FreeList) init() {
	h := f.hdr(f.region.base)
	h.size = f.region.size - headerSize
	h.next = 0
	h.free = true
	h.padding = 0
	f.head = f.region.base
	f.used = 0
}

func (f *FreeList) hdr(addr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(addr))
}

// Alloc returns a pointer to size bytes aligned to alignment, or nil
// when no free block can hold the request. Alignments above MaxAlign
// are never satisfiable.
func (f *FreeList) Alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 || f.region.buf == nil {
		return nil
	}
	assertPow2(alignment)
	if alignment > MaxAlign {
		return nil
	}
	if size < minPayload {
		size = minPayload
	}

	var block, prev uintptr
	switch f.fit {
	case BestFit:
		block, prev = f.findBest(size, alignment)
	case WorstFit:
		block, prev = f.findWorst(size, alignment)
	default:
		block, prev = f.findFirst(size, alignment)
	}
	if block == 0 {
		return nil
	}

	h := f.hdr(block)
	pad := Padding(block+headerSize, alignment)
	required := pad + size

	// Carve the tail into a new free block when it can hold one.
	if h.size >= required+headerSize+minPayload {
		f.split(block, required)
	}

	// Unlink and mark allocated.
	if prev == 0 {
		f.head = h.next
	} else {
		f.hdr(prev).next = h.next
	}
	h.next = 0
	h.free = false
	h.padding = uint8(pad)
	f.used += headerSize + h.size

	return unsafe.Pointer(block + headerSize + pad)
}

// split carves a new free block out of the tail of block, leaving
// required payload bytes behind. The new block lands between block and
// its list successor in both address and list order, so the sorted
// invariant holds without re-linking.
func (f *FreeList) split(block, required uintptr) {
	h := f.hdr(block)
	tail := block + headerSize + required
	th := f.hdr(tail)
	th.size = h.size - required - headerSize
	th.next = h.next
	th.free = true
	th.padding = 0
	h.next = tail
	h.size = required
}

// findFirst returns the first eligible block and its list predecessor.
func (f *FreeList) findFirst(size, alignment uintptr) (block, prev uintptr) {
	for cur := f.head; cur != 0; cur = f.hdr(cur).next {
		pad := Padding(cur+headerSize, alignment)
		if f.hdr(cur).size >= pad+size {
			return cur, prev
		}
		prev = cur
	}
	return 0, 0
}

// findBest returns the smallest eligible block, first encountered on
// ties, short-circuiting on an exact fit.
func (f *FreeList) findBest(size, alignment uintptr) (block, prev uintptr) {
	var bestPrev, p uintptr
	best := uintptr(0)
	bestSize := ^uintptr(0)
	for cur := f.head; cur != 0; cur = f.hdr(cur).next {
		h := f.hdr(cur)
		pad := Padding(cur+headerSize, alignment)
		required := pad + size
		if h.size >= required && h.size < bestSize {
			best, bestPrev, bestSize = cur, p, h.size
			if h.size == required {
				break
			}
		}
		p = cur
	}
	return best, bestPrev
}

// findWorst returns the largest eligible block.
func (f *FreeList) findWorst(size, alignment uintptr) (block, prev uintptr) {
	var worstPrev, p uintptr
	worst := uintptr(0)
	worstSize := uintptr(0)
	for cur := f.head; cur != 0; cur = f.hdr(cur).next {
		h := f.hdr(cur)
		pad := Padding(cur+headerSize, alignment)
		if h.size >= pad+size && h.size > worstSize {
			worst, worstPrev, worstSize = cur, p, h.size
		}
		p = cur
	}
	return worst, worstPrev
}

// Free returns ptr's block to the free list and merges it with any
// physically adjacent free neighbor. Passing nil is a no-op. Freeing a
// foreign pointer or freeing twice is undefined; the allocxdebug build
// tag turns both into panics.
func (f *FreeList) Free(ptr unsafe.Pointer) {
	if ptr == nil || f.region.buf == nil {
		return
	}
	if debugChecks && !f.Owns(ptr) {
		panic("allocx: free of pointer not owned by this allocator")
	}
	block := f.recoverBlock(uintptr(ptr))
	h := f.hdr(block)
	if debugChecks && h.free {
		panic("allocx: double free")
	}
	f.used -= headerSize + h.size
	h.free = true
	h.padding = 0
	f.insertSorted(block)
}

// recoverBlock finds the header of the block whose payload contains p.
// The header sits at p-headerSize-pad with pad unknown. Blocks tile the
// region exactly, so headers are walked in address order from the
// region base to the block spanning p; that block is valid when it is
// marked allocated and its stored padding places its payload at p.
// The walk is linear in the number of blocks.
func (f *FreeList) recoverBlock(p uintptr) uintptr {
	end := f.region.base + f.region.size
	for cand := f.region.base; cand < end; {
		h := f.hdr(cand)
		next := cand + headerSize + h.size
		if p < next {
			if !h.free && cand+headerSize+uintptr(h.padding) == p {
				return cand
			}
			break
		}
		cand = next
	}
	if debugChecks {
		panic("allocx: no recoverable block header before freed pointer")
	}
	return p - headerSize
}

// insertSorted links block into the address-ordered free list and
// coalesces with the physical right and left neighbors when adjacent.
func (f *FreeList) insertSorted(block uintptr) {
	var prev uintptr
	cur := f.head
	for cur != 0 && cur < block {
		prev = cur
		cur = f.hdr(cur).next
	}

	h := f.hdr(block)
	h.next = cur
	if prev == 0 {
		f.head = block
	} else {
		f.hdr(prev).next = block
	}

	// Absorb the right neighbor.
	if cur != 0 && block+headerSize+h.size == cur {
		rh := f.hdr(cur)
		h.size += headerSize + rh.size
		h.next = rh.next
	}

	// Collapse into the left neighbor.
	if prev != 0 {
		ph := f.hdr(prev)
		if prev+headerSize+ph.size == block {
			ph.size += headerSize + h.size
			ph.next = h.next
		}
	}
}

// Reset reinitializes the region as one spanning free block.
func (f *FreeList) Reset() {
	if f.region.buf != nil {
		f.init()
	}
}

// Release detaches the allocator from its region. Subsequent Allocs
// return nil.
func (f *FreeList) Release() {
	f.region.release()
	f.head = 0
	f.used = 0
}

// Owns reports whether ptr lies inside the allocator's region.
func (f *FreeList) Owns(ptr unsafe.Pointer) bool {
	return f.region.contains(uintptr(ptr))
}

// Len returns the bytes consumed by allocated blocks, headers included.
func (f *FreeList) Len() int {
	return int(f.used)
}

// Cap returns the size of the region.
func (f *FreeList) Cap() int {
	return int(f.region.size)
}

// FreeBlocks returns the number of blocks on the free list.
func (f *FreeList) FreeBlocks() int {
	n := 0
	for cur := f.head; cur != 0; cur = f.hdr(cur).next {
		n++
	}
	return n
}

// LargestFreeBlock returns the payload size of the largest free block.
func (f *FreeList) LargestFreeBlock() uintptr {
	largest := uintptr(0)
	for cur := f.head; cur != 0; cur = f.hdr(cur).next {
		if h := f.hdr(cur); h.size > largest {
			largest = h.size
		}
	}
	return largest
}
