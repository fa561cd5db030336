// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"sync"
	"weak"
)

// ScratchPool keeps a set of reusable Stack scratch allocators.
//
// Pooled stacks are held through weak pointers, so the GC may reclaim
// an idle stack (and its region) at any time; Acquire transparently
// creates a fresh one when that happens. The pool thereby sizes itself
// to memory pressure instead of a fixed bound.
//
// Each acquire site passes a key; the pool tracks the peak usage of the
// last stacks released under that key and sizes new regions to the
// rolling average, so hot call sites converge on regions that fit their
// workload without rollback churn.
type ScratchPool struct {
	pool  []weak.Pointer[ScratchItem]
	sizes map[uint64]*scratchSizeStats
	mu    sync.Mutex
}

// scratchSizeStats accumulates peak bytes over a rolling window of
// releases for one key.
type scratchSizeStats struct {
	count      int
	totalBytes int
}

// sizeWindow bounds the rolling average; after this many samples the
// accumulator collapses to its mean and starts over.
const sizeWindow = 50

// defaultScratchSize is used for keys with no recorded history.
const defaultScratchSize = 64 * 1024

// ScratchItem wraps a pooled Stack together with the key it was
// acquired under.
type ScratchItem struct {
	Stack *Stack
	Key   uint64
}

// NewScratchPool creates an empty ScratchPool.
func NewScratchPool() *ScratchPool {
	return &ScratchPool{
		sizes: make(map[uint64]*scratchSizeStats),
	}
}

// Acquire returns a reset scratch stack from the pool, or a newly
// sized one when the pool is empty or the GC reclaimed every pooled
// stack. The key identifies the acquire site for size tracking.
func (p *ScratchPool) Acquire(key uint64) *ScratchItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pool) > 0 {
		last := len(p.pool) - 1
		wp := p.pool[last]
		p.pool = p.pool[:last]

		if item := wp.Value(); item != nil {
			item.Key = key
			return item
		}
		// Reclaimed by the GC; try the next entry.
	}

	return &ScratchItem{
		Stack: NewStack(p.scratchSize(key)),
		Key:   key,
	}
}

// Release resets the item's stack and returns it to the pool. The
// stack's peak usage is recorded against the item's key to size future
// stacks for that call site.
func (p *ScratchPool) Release(item *ScratchItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release(item)
}

// ReleaseMany returns several items under one lock acquisition.
func (p *ScratchPool) ReleaseMany(items []*ScratchItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		p.release(item)
	}
}

func (p *ScratchPool) release(item *ScratchItem) {
	peak := item.Stack.Peak()
	item.Stack.Reset()

	if stats, ok := p.sizes[item.Key]; ok {
		if stats.count == sizeWindow {
			stats.count = 1
			stats.totalBytes /= sizeWindow
		}
		stats.count++
		stats.totalBytes += peak
	} else {
		p.sizes[item.Key] = &scratchSizeStats{
			count:      1,
			totalBytes: peak,
		}
	}

	item.Key = 0
	p.pool = append(p.pool, weak.Make(item))
}

// scratchSize returns the region size for a new stack acquired under
// key: the rolling average of recorded peaks, or the default when the
// key has no history yet.
func (p *ScratchPool) scratchSize(key uint64) int {
	if stats, ok := p.sizes[key]; ok && stats.count > 0 {
		if size := stats.totalBytes / stats.count; size > 0 {
			return size
		}
	}
	return defaultScratchSize
}
