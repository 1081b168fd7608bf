//go:build !linux

package cdb

import "os"

func fallocate(f *os.File, offset int64, size int64) error {
	return fakeFallocate(f, offset, size)
}
