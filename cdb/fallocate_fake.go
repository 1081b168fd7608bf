package cdb

import (
	"fmt"
	"os"
)

// fakeFallocate emulates fallocate by writing zeroes. It is the
// fallback used when the OS syscall is unavailable, or when the
// underlying filesystem rejects it with EOPNOTSUPP.
func fakeFallocate(f *os.File, offset int64, size int64) error {
	const blockSize = 4096
	var zero [blockSize]byte

	if _, err := f.Seek(offset, 0); err != nil {
		return fmt.Errorf("seeking to %d for fake fallocate: %w", offset, err)
	}

	for size > 0 {
		step := int64(blockSize)
		if step > size {
			step = size
		}
		if _, err := f.Write(zero[:step]); err != nil {
			return fmt.Errorf("fake fallocate: %w", err)
		}
		size -= step
	}
	return nil
}
