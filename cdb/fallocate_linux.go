//go:build linux

package cdb

import (
	"fmt"
	"os"
	"syscall"
)

func fallocate(f *os.File, offset int64, size int64) error {
	if err := syscall.Fallocate(int(f.Fd()), 0, offset, size); err != nil {
		return fmt.Errorf("linux fallocate: %w", err)
	}
	return nil
}
