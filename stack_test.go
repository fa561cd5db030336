// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestStackBasicAllocation(t *testing.T) {
	s := NewStack(1024)
	require.Equal(t, 1024, s.Cap())
	require.Equal(t, 0, s.Len())

	p1 := s.Alloc(100, 1)
	require.NotNil(t, p1)
	require.True(t, s.Owns(p1))
	require.Equal(t, 100, s.Len())

	p2 := s.Alloc(200, 1)
	require.NotNil(t, p2)
	require.True(t, s.Owns(p2))
	require.Equal(t, 300, s.Len())

	// Sequential allocation: addresses strictly increase.
	require.Greater(t, uintptr(p2), uintptr(p1))
}

func TestStackAlignment(t *testing.T) {
	s := NewStack(1024)

	p1 := s.Alloc(1, 16)
	require.NotNil(t, p1)
	require.Zero(t, uintptr(p1)%16)

	p2 := s.Alloc(1, 32)
	require.NotNil(t, p2)
	require.Zero(t, uintptr(p2)%32)

	p3 := s.Alloc(1, 64)
	require.NotNil(t, p3)
	require.Zero(t, uintptr(p3)%64)

	require.Greater(t, uintptr(p2), uintptr(p1))
	require.Greater(t, uintptr(p3), uintptr(p2))
}

func TestStackZeroSize(t *testing.T) {
	s := NewStack(1024)
	require.Nil(t, s.Alloc(0, 8))
	require.Equal(t, 0, s.Len())
}

func TestStackExhaustion(t *testing.T) {
	s := NewStack(128)

	p := s.Alloc(100, 1)
	require.NotNil(t, p)

	// Out-of-region requests fail without disturbing the cursor.
	require.Nil(t, s.Alloc(100, 1))
	require.Equal(t, 100, s.Len())

	// The allocator stays usable for smaller requests.
	require.NotNil(t, s.Alloc(20, 1))
}

func TestStackReset(t *testing.T) {
	s := NewStack(1024)

	for i := 0; i < 10; i++ {
		require.NotNil(t, s.Alloc(50, 1))
	}
	require.Equal(t, 500, s.Len())

	s.Reset()
	require.Equal(t, 0, s.Len())
	require.Equal(t, uintptr(1024), s.Available())

	// Post-reset behavior equals post-construction behavior.
	p := s.Alloc(50, 1)
	require.NotNil(t, p)
	require.Equal(t, 50, s.Len())
}

func TestStackMarkerRollback(t *testing.T) {
	s := NewStack(1024)

	p1 := s.Alloc(100, 1)
	require.NotNil(t, p1)

	m := s.Marker()
	p2 := s.Alloc(200, 1)
	require.NotNil(t, p2)
	p3 := s.Alloc(300, 1)
	require.NotNil(t, p3)
	require.Equal(t, 600, s.Len())

	s.Rollback(m)
	require.Equal(t, 100, s.Len())

	// The next allocation replays the first one past the marker.
	p4 := s.Alloc(200, 1)
	require.Equal(t, p2, p4)
	require.Equal(t, 300, s.Len())
}

func TestStackNestedMarkers(t *testing.T) {
	s := NewStack(1024)

	s.Alloc(64, 1)
	outer := s.Marker()
	s.Alloc(64, 1)
	inner := s.Marker()
	s.Alloc(64, 1)

	s.Rollback(inner)
	require.Equal(t, 128, s.Len())
	s.Rollback(outer)
	require.Equal(t, 64, s.Len())
}

func TestStackRollbackToFutureMarkerPanics(t *testing.T) {
	s := NewStack(1024)

	s.Alloc(100, 1)
	m := s.Marker()
	s.Reset()

	require.Panics(t, func() { s.Rollback(m) })
}

func TestStackFreeIsNoOp(t *testing.T) {
	s := NewStack(1024)
	p := s.Alloc(100, 1)
	s.Free(p)
	require.Equal(t, 100, s.Len())
}

func TestStackOwns(t *testing.T) {
	s := NewStack(1024)
	p := s.Alloc(100, 1)
	require.True(t, s.Owns(p))
	require.False(t, s.Owns(nil))

	var outside int
	require.False(t, s.Owns(unsafe.Pointer(&outside)))
}

func TestStackPeak(t *testing.T) {
	s := NewStack(1024)

	s.Alloc(300, 1)
	require.Equal(t, 300, s.Peak())

	// Peak survives reset and tracks the high-water mark only.
	s.Reset()
	require.Equal(t, 300, s.Peak())

	s.Alloc(100, 1)
	require.Equal(t, 300, s.Peak())

	s.Alloc(400, 1)
	require.Equal(t, 500, s.Peak())
}

func TestStackBuffer(t *testing.T) {
	buf := make([]byte, 1024)
	s := NewStackBuffer(buf)
	require.Positive(t, s.Cap())

	p := s.Alloc(100, 8)
	require.NotNil(t, p)
	require.True(t, s.Owns(p))

	// Writes land in the borrowed buffer.
	*(*byte)(p) = 0xCD
	found := false
	for _, b := range buf {
		if b == 0xCD {
			found = true
			break
		}
	}
	require.True(t, found)
}

func TestStackRelease(t *testing.T) {
	s := NewStack(1024)
	p := s.Alloc(100, 1)
	require.NotNil(t, p)

	s.Release()
	require.Nil(t, s.Alloc(1, 1))
	require.Equal(t, 0, s.Len())
	require.Equal(t, 0, s.Cap())
	require.False(t, s.Owns(p))
}

func TestStackMemoryUsability(t *testing.T) {
	s := NewStack(1024)

	const n = 256
	p := s.Alloc(n, 8)
	require.NotNil(t, p)

	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0xAB
	}
	for i := range b {
		require.Equal(t, byte(0xAB), b[i])
	}
}
