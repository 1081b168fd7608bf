package cdb

import (
	"log/slog"
	"os"

	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"
)

// LoadStrategy selects how Open is asked to acquire a ByteView.
// It exists for callers that pick the strategy dynamically (e.g. a
// CLI flag); code that knows its strategy at compile time should just
// call OpenHeap or OpenMmap directly.
type LoadStrategy int

const (
	// Heap reads the whole file into a process-owned buffer.
	Heap LoadStrategy = iota
	// Mmap memory-maps the file read-only.
	Mmap
)

// Open acquires a ByteView for path using the given strategy.
func Open(path string, strategy LoadStrategy) (ByteView, error) {
	switch strategy {
	case Mmap:
		return OpenMmap(path)
	default:
		return OpenHeap(path)
	}
}

// OpenHeap reads the entire file at path into a heap buffer and
// returns a ByteView over it. This is the right choice for databases
// small enough to fit comfortably in memory, or when the caller wants
// to close the underlying file descriptor immediately.
func OpenHeap(path string) (ByteView, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return ByteView{}, ioErrf("reading %s: %w", path, err)
	}
	return ByteView{r: &byteSliceReaderAt{buf}, size: int64(len(buf))}, nil
}

// OpenMmap memory-maps the file at path read-only and returns a
// ByteView over the mapping. The mapping (and the file descriptor
// backing it) is released when ByteView.Close is called.
//
// As in compactindexsized.Open, the descriptor is hinted with
// fadvise(RANDOM) before mapping: point lookups walk the file in a
// pattern the kernel's default readahead heuristics actively fight. A
// failure to set the hint is logged and otherwise ignored, matching
// compactindexsized's slog.Warn-and-continue handling.
func OpenMmap(path string) (ByteView, error) {
	if f, err := os.Open(path); err == nil {
		if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM); err != nil {
			slog.Warn("cdb: fadvise(RANDOM) failed, continuing without it", "path", path, "error", err)
		}
		f.Close()
	}

	r, err := mmap.Open(path)
	if err != nil {
		return ByteView{}, ioErrf("mmapping %s: %w", path, err)
	}
	slog.Info("cdb: mmapped database", "path", path, "size", r.Len())
	return ByteView{r: r, size: int64(r.Len()), closer: r}, nil
}

// byteSliceReaderAt adapts a plain []byte to io.ReaderAt without the
// extra bookkeeping bytes.Reader carries (and without letting callers
// mutate a shared read position).
type byteSliceReaderAt struct {
	b []byte
}

func (r *byteSliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r.b)) {
		return 0, unix.EINVAL
	}
	n := copy(p, r.b[off:])
	if n < len(p) {
		return n, errShortRead
	}
	return n, nil
}

var errShortRead = ioErrf("short read")
