package cdb

import "io"

// ByteView is a uniform read-only view over the bytes of a finalised
// CDB file. It is backed by either a heap-resident buffer or a
// memory-mapped file; callers never need to know which.
//
// A ByteView is small (a pointer, a length, and an optional closer)
// and is meant to be passed by value, the way compactindexsized.DB
// carries its io.ReaderAt directly rather than behind an interface
// with a dynamic dispatch table — there are exactly two backings, so
// a closed struct is enough.
//
// The backing (the *os.File and/or mmap region a loader opened) must
// stay alive for as long as any ByteView or Reader built from it is in
// use; Close releases it.
type ByteView struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
}

// Len returns the total length of the view in bytes.
func (v ByteView) Len() int64 {
	return v.size
}

// Close releases the backing resource, if any (an open file handle or
// a memory mapping). It is safe to call on a zero-valued ByteView.
func (v ByteView) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer.Close()
}

// slice reads the sub-range [a, b) into a freshly allocated buffer.
// It fails with ErrCorrupt if the range falls outside the view — the
// only way this is reachable is a malformed on-disk offset, since
// every caller inside this package derives a, b from trusted
// constants or from a previously validated read.
func (v ByteView) slice(a, b int64) ([]byte, error) {
	if a < 0 || b < a || b > v.size {
		return nil, corruptf("range [%d, %d) out of bounds for view of size %d", a, b, v.size)
	}
	buf := make([]byte, b-a)
	n, err := v.r.ReadAt(buf, a)
	if int64(n) < int64(len(buf)) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, corruptf("short read at [%d, %d): %v", a, b, err)
	}
	return buf, nil
}

// readInto reads the sub-range [a, a+n) and returns it as a slice of
// buf's backing array when cap(buf) >= n; otherwise it allocates a new
// n-byte buffer. Callers on the Reader.Get hot path supply a
// bytebufferpool-backed slice and keep the returned one, so repeated
// lookups reuse the same backing array.
func (v ByteView) readInto(buf []byte, a int64, n int) ([]byte, error) {
	b := a + int64(n)
	if a < 0 || b < a || b > v.size {
		return nil, corruptf("range [%d, %d) out of bounds for view of size %d", a, b, v.size)
	}
	if cap(buf) < n {
		buf = make([]byte, n)
	} else {
		buf = buf[:n]
	}
	got, err := v.r.ReadAt(buf, a)
	if got < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, corruptf("short read at [%d, %d): %v", a, b, err)
	}
	return buf, nil
}
