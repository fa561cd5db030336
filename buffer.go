// SPDX-License-Identifier: Apache-2.0

package allocx

import (
	"io"
	"unsafe"
)

// readChunk is the minimum spare capacity ReadFrom keeps ahead of the
// write position between reads.
const readChunk = 4 * 1024

// Buffer is a bytes.Buffer-like byte queue whose storage lives in an
// Allocator. It implements io.Writer, io.ReaderFrom and provides
// similar methods to bytes.Buffer.
//
// Unread bytes are buf[r:]; reads advance the cursor instead of
// shifting data, and fully drained storage is rewound in place. When
// the buffer outgrows its storage, or on Reset, the old array goes back
// to the allocator, so a free-list allocator reclaims it immediately
// rather than holding it until a bulk reset.
type Buffer struct {
	alloc Allocator
	buf   []byte // storage; len is the write position
	r     int    // read cursor into buf
}

// NewBuffer creates a new Buffer backed by the given allocator.
// If alloc is nil, it will fall back to standard Go allocation.
func NewBuffer(alloc Allocator) *Buffer {
	return &Buffer{alloc: alloc}
}

// grow ensures storage for n more bytes, moving to a larger array from
// the allocator and returning the outgrown one to it.
func (b *Buffer) grow(n int) {
	need := len(b.buf) + n
	if need <= cap(b.buf) {
		return
	}
	newCap := cap(b.buf)
	if newCap == 0 {
		newCap = n
	}
	for need > newCap {
		if newCap < growThreshold {
			newCap *= 2
		} else {
			newCap += newCap / 4
		}
	}
	grown := AllocateSlice[byte](b.alloc, len(b.buf), newCap)
	copy(grown, b.buf)
	b.reclaim(b.buf)
	b.buf = grown
}

// reclaim hands storage back to the allocator. Arrays that came from
// the Go heap via the fallback path are left to the GC.
func (b *Buffer) reclaim(s []byte) {
	if b.alloc == nil || cap(s) == 0 {
		return
	}
	p := unsafe.Pointer(unsafe.SliceData(s[:cap(s)]))
	if b.alloc.Owns(p) {
		b.alloc.Free(p)
	}
}

// rewind resets the cursor once every buffered byte has been consumed,
// reusing the storage for the next writes.
func (b *Buffer) rewind() {
	if b.r >= len(b.buf) {
		b.buf = b.buf[:0]
		b.r = 0
	}
}

// Write implements io.Writer interface.
// It writes len(p) bytes from p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.grow(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf = append(b.buf, c)
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	b.grow(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteTo drains the unread bytes into w.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.Len() == 0 {
		return 0, nil
	}

	m, err := w.Write(b.buf[b.r:])
	if m > 0 {
		b.r += m
		n = int64(m)
	}
	b.rewind()

	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
// It returns the number of bytes read and any error encountered.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}

	n = copy(p, b.buf[b.r:])
	b.r += n
	if n < len(p) {
		err = io.EOF
	}
	b.rewind()

	return n, err
}

// ReadByte reads and returns the next byte from the buffer.
// If no byte is available, it returns an error.
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}

	c := b.buf[b.r]
	b.r++
	b.rewind()

	return c, nil
}

// Bytes returns a slice of length b.Len() holding the unread portion of
// the buffer. The slice is valid for use only until the next buffer
// modification.
func (b *Buffer) Bytes() []byte {
	if b.Len() == 0 {
		return []byte{}
	}
	return b.buf[b.r:]
}

// String returns the contents of the unread portion of the buffer as a
// string.
func (b *Buffer) String() string {
	return string(b.buf[b.r:])
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return len(b.buf) - b.r
}

// Cap returns the capacity of the buffer's underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset empties the buffer and returns its storage to the allocator.
func (b *Buffer) Reset() {
	b.reclaim(b.buf)
	b.buf = nil
	b.r = 0
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.Len() {
		panic("allocx: truncation out of range")
	}
	b.buf = b.buf[:b.r+n]
	b.rewind()
}

// Next returns a slice containing the next n bytes from the buffer,
// advancing the buffer as if the bytes had been returned by Read. The
// returned slice is drawn from the allocator, not from the buffer's
// storage, so it stays valid across later writes.
func (b *Buffer) Next(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	if n > b.Len() {
		n = b.Len()
	}
	if n == 0 {
		return []byte{}
	}

	result := AllocateSlice[byte](b.alloc, n, n)
	copy(result, b.buf[b.r:])
	b.r += n
	b.rewind()

	return result
}

// Grow ensures the buffer has capacity for n more bytes, allocating
// through the allocator when it does not. It panics if n is negative.
func (b *Buffer) Grow(n int) {
	if n < 0 {
		panic("allocx: negative grow count")
	}
	b.grow(n)
}

// ReadFrom implements io.ReaderFrom interface.
// It reads data from r until EOF or error, reading straight into the
// buffer's spare capacity so no intermediate copy is made.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	for {
		b.grow(readChunk)
		spare := b.buf[len(b.buf):cap(b.buf)]
		nr, er := r.Read(spare)
		if nr > 0 {
			b.buf = b.buf[:len(b.buf)+nr]
			n += int64(nr)
		}
		if er != nil {
			if er == io.EOF {
				return n, nil
			}
			return n, er
		}
	}
}
