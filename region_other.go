//go:build !unix

package allocx

import (
	"fmt"
)

// MapRegion reserves size bytes for use as an allocator region. On
// platforms without anonymous mmap support the bytes come from the Go
// heap and the cleanup only drops the reference.
func MapRegion(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("allocx: cannot map region of %d bytes", size)
	}
	data := make([]byte, size)
	cleanup := func() error {
		data = nil
		return nil
	}
	return data, cleanup, nil
}
