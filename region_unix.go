//go:build unix

package allocx

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MapRegion reserves size bytes of page-aligned anonymous memory from
// the OS, bypassing the Go heap. The returned cleanup unmaps the
// region; the caller owns it and must not use the slice afterwards.
//
// The slice is suitable for the buffer-taking constructors
// (NewStackBuffer, NewPoolBuffer, NewFreeListBuffer).
func MapRegion(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("allocx: cannot map region of %d bytes", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("allocx: mmap of %d bytes: %w", size, err)
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		return err
	}
	return data, cleanup, nil
}
