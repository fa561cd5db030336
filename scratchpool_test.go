// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScratchPoolAcquire(t *testing.T) {
	p := NewScratchPool()

	item := p.Acquire(1)
	require.NotNil(t, item)
	require.NotNil(t, item.Stack)
	require.Equal(t, uint64(1), item.Key)
	require.Equal(t, defaultScratchSize, item.Stack.Cap())

	require.NotNil(t, item.Stack.Alloc(128, 8))
}

func TestScratchPoolReuse(t *testing.T) {
	p := NewScratchPool()

	item := p.Acquire(1)
	require.NotNil(t, item.Stack.Alloc(256, 8))
	p.Release(item)

	// The item is still strongly referenced here, so the weak pointer
	// is live and Acquire must hand the same stack back, reset.
	again := p.Acquire(2)
	require.Same(t, item, again)
	require.Equal(t, uint64(2), again.Key)
	require.Equal(t, 0, again.Stack.Len())
}

func TestScratchPoolKeyClearedOnRelease(t *testing.T) {
	p := NewScratchPool()

	item := p.Acquire(7)
	p.Release(item)
	require.Equal(t, uint64(0), item.Key)
}

func TestScratchPoolSizing(t *testing.T) {
	p := NewScratchPool()

	// Unknown keys get the default region size.
	require.Equal(t, defaultScratchSize, p.scratchSize(9))

	item := p.Acquire(9)
	require.NotNil(t, item.Stack.Alloc(1000, 1))
	p.Release(item)

	// The recorded peak drives the size of the next fresh stack.
	require.Equal(t, 1000, p.scratchSize(9))
}

func TestScratchPoolSizingAverages(t *testing.T) {
	p := NewScratchPool()

	peaks := []int{1000, 3000}
	items := make([]*ScratchItem, 0, len(peaks))
	for _, peak := range peaks {
		item := p.Acquire(4)
		require.NotNil(t, item.Stack.Alloc(uintptr(peak), 1))
		items = append(items, item)
	}
	p.ReleaseMany(items)

	require.Equal(t, 2000, p.scratchSize(4))
}

func TestScratchPoolReleaseMany(t *testing.T) {
	p := NewScratchPool()

	a := p.Acquire(1)
	b := p.Acquire(1)
	require.NotSame(t, a, b)
	p.ReleaseMany([]*ScratchItem{a, b})

	// Both come back out of the pool while strongly referenced.
	first := p.Acquire(1)
	second := p.Acquire(1)
	require.NotSame(t, first, second)
	require.Equal(t, 0, first.Stack.Len())
	require.Equal(t, 0, second.Stack.Len())
}
