// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"sync"
	"unsafe"
)

// Locked wraps an Allocator behind a single mutex, making it safe for
// concurrent use. Operations from distinct goroutines are serialized in
// arbitrary order. The wrapper performs no allocation of its own.
type Locked struct {
	mtx sync.Mutex
	a   Allocator
}

// NewLocked returns an allocator that serializes every operation on a.
func NewLocked(a Allocator) *Locked {
	return &Locked{a: a}
}

// Alloc satisfies the Allocator interface.
func (l *Locked) Alloc(size, alignment uintptr) unsafe.Pointer {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return nil
	}
	return l.a.Alloc(size, alignment)
}

// Free satisfies the Allocator interface.
func (l *Locked) Free(ptr unsafe.Pointer) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return
	}
	l.a.Free(ptr)
}

// Reset satisfies the Allocator interface.
func (l *Locked) Reset() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return
	}
	l.a.Reset()
}

// Release satisfies the Allocator interface.
func (l *Locked) Release() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return
	}
	l.a.Release()
}

// Owns satisfies the Allocator interface.
func (l *Locked) Owns(ptr unsafe.Pointer) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return false
	}
	return l.a.Owns(ptr)
}

// Len returns the number of bytes currently allocated.
func (l *Locked) Len() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return 0
	}
	return l.a.Len()
}

// Cap returns the total number of bytes the region can hold.
func (l *Locked) Cap() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return 0
	}
	return l.a.Cap()
}

// Underlying returns the wrapped allocator without synchronization, for
// callers that serialize access themselves. Using it concurrently with
// the wrapped methods is undefined.
func (l *Locked) Underlying() Allocator {
	return l.a
}
