package cdb

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a key that is well-formed but absent from the
// database. It is not a failure: Get returns it as a first-class
// outcome of a successful, uncorrupted lookup.
var ErrNotFound = errors.New("cdb: not found")

// ErrIO wraps a failure from the underlying file, mmap, or seek
// operation. It never originates from Reader.Get once a ByteView is
// resident; it can only come from OpenHeap, OpenMmap, NewWriter,
// Writer.Put, and Writer.Finalize.
var ErrIO = errors.New("cdb: io error")

// ErrCorrupt marks a structural violation discovered while reading an
// index: an offset or length that runs past the end of the file, or a
// record header that cannot be trusted.
var ErrCorrupt = errors.New("cdb: corrupt index")

// ValueTooLargeError is carried by callers that enforce a maximum
// value size of their own; the core itself never produces it on the
// read path.
type ValueTooLargeError struct {
	Max int
	Got int
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("cdb: value size %d exceeds max %d", e.Got, e.Max)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCorrupt reports whether err is or wraps ErrCorrupt.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}

func ioErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIO}, args...)...)
}
