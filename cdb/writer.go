package cdb

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rpcpool/gocdb/internal/continuity"
)

// WriteSeeker is everything Writer needs from its destination: a
// sequential writer for records and secondary tables, a seeker to
// rewind to the primary table, and a WriterAt to back-patch it
// without disturbing the current write position. *os.File satisfies
// this, and is what every constructor in this package expects in
// practice.
type WriteSeeker interface {
	io.Writer
	io.Seeker
	io.WriterAt
}

// syncer is implemented by *os.File. Writer.Finalize calls Sync when
// its destination supports it, and skips the step otherwise (e.g. for
// an in-memory buffer with no Sync method).
type syncer interface {
	Sync() error
}

// bucketEntry is a pending (hash, record-offset) tuple awaiting
// placement into a bucket's secondary table at Finalize time.
type bucketEntry struct {
	hash hash
	ptr  uint32
}

// Writer streams key/value records into a file and, on Finalize,
// materialises the two-level hash index described in the package
// documentation.
//
// A Writer owns its destination exclusively: concurrent use from
// multiple goroutines, or a second Writer over the same file, will
// corrupt the output. Put after Finalize returns an error.
//
// Because the contract requires finalisation on every exit path
// including abandonment, callers are expected to:
//
//	w, err := cdb.NewWriter(f)
//	if err != nil { ... }
//	defer func() { err = errors.Join(err, w.Finalize()) }()
//
// Finalize is idempotent, so an explicit call before the deferred one
// is always safe.
type Writer struct {
	f         WriteSeeker
	pos       uint32
	buckets   [numBuckets][]bucketEntry
	finalized bool
	cfg       writerConfig
}

// NewWriter prepares f to receive a new CDB: it seeks to the
// beginning and reserves the 2048-byte primary table with zero bytes.
// f must be empty, or positioned such that byte 0 is the intended
// start of the database.
func NewWriter(f WriteSeeker, opts ...Option) (*Writer, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, ioErrf("seeking to start: %w", err)
	}
	var zero [primaryTableSize]byte
	if _, err := f.Write(zero[:]); err != nil {
		return nil, ioErrf("reserving primary table: %w", err)
	}
	cfg := defaultWriterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Writer{f: f, pos: primaryTableSize, cfg: cfg}, nil
}

// Put appends a (key, value) record and schedules it for indexing.
// Duplicate keys are not rejected: both are stored, and the one
// reached first by Reader.Get's probe order wins on lookup.
func (w *Writer) Put(key, value []byte) error {
	if w.finalized {
		return errors.New("cdb: Put called after Finalize")
	}
	if uint64(len(key)) > math.MaxUint32 {
		return &ValueTooLargeError{Max: math.MaxUint32, Got: len(key)}
	}
	if uint64(len(value)) > math.MaxUint32 {
		return &ValueTooLargeError{Max: math.MaxUint32, Got: len(value)}
	}

	buf := make([]byte, recordHeaderSize+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(value)))
	copy(buf[8:], key)
	copy(buf[8+len(key):], value)

	if uint64(w.pos)+uint64(len(buf)) > math.MaxUint32 {
		return ioErrf("database would exceed the 32-bit offset range")
	}

	ptr := w.pos
	n, err := w.f.Write(buf)
	if err != nil {
		return ioErrf("writing record: %w", err)
	}
	if n != len(buf) {
		return ioErrf("short write: wrote %d of %d bytes", n, len(buf))
	}
	w.pos += uint32(n)

	h := hashKey(key)
	b := h.bucket()
	w.buckets[b] = append(w.buckets[b], bucketEntry{hash: h, ptr: ptr})
	return nil
}

// Finalize lays out each bucket's secondary table, back-patches the
// primary table, and flushes the destination. It is idempotent: a
// second call (including one reached via a deferred cleanup after an
// explicit call already succeeded) is a no-op that returns nil.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	var primary [numBuckets]primaryEntry

	nonEmptyBuckets := 0
	secondaryBytes := int64(0)
	for _, entries := range w.buckets {
		if len(entries) > 0 {
			nonEmptyBuckets++
			secondaryBytes += int64(2*len(entries)) * slotSize
		}
	}
	slog.Info("cdb: finalizing database", "buckets", nonEmptyBuckets, "secondary_bytes", secondaryBytes)
	w.preallocateSecondaryTables(secondaryBytes)

	err := continuity.New().
		Thenf("write secondary tables", func() error {
			for b := 0; b < numBuckets; b++ {
				entry, err := w.sealBucket(b)
				if err != nil {
					return err
				}
				primary[b] = entry
			}
			return nil
		}).
		Thenf("back-patch primary table", func() error {
			return w.writePrimaryTable(&primary)
		}).
		Thenf("sync", func() error {
			if s, ok := w.f.(syncer); ok {
				if err := s.Sync(); err != nil {
					return ioErrf("sync: %w", err)
				}
			}
			return nil
		}).
		Err()
	if err != nil {
		return err
	}
	slog.Info("cdb: database finalized")
	return nil
}

// preallocateSecondaryTables is a best-effort performance hint: by
// the time Finalize runs, every bucket's final size is already known,
// so the whole secondary-table region can be reserved in one call
// instead of growing the file bucket by bucket. Failure is logged,
// never fatal — sealBucket still writes every byte through ordinary
// Write calls regardless of whether the space was pre-reserved.
func (w *Writer) preallocateSecondaryTables(size int64) {
	if size <= 0 || !w.cfg.preallocate {
		return
	}
	f, ok := w.f.(*os.File)
	if !ok {
		return
	}
	err := fallocate(f, int64(w.pos), size)
	if errors.Is(err, unix.EOPNOTSUPP) {
		err = fakeFallocate(f, int64(w.pos), size)
	}
	if err != nil {
		slog.Warn("cdb: preallocating secondary tables failed, continuing without it", "error", err)
		return
	}
	// Both the real and the fake fallocate may have moved the file's
	// write position (the fake one always does, via Seek+Write); put
	// it back so the sequential Write calls in sealBucket pick up
	// exactly where Put left off.
	if _, err := f.Seek(int64(w.pos), io.SeekStart); err != nil {
		slog.Warn("cdb: failed to restore write position after preallocation", "error", err)
	}
}

// sealBucket mines no hash function — unlike compactindexsized's
// perfect-hash buckets, a CDB bucket is a fixed-size open-addressed
// table sized at exactly 2x its entry count, filled by linear
// probing from each entry's preferred slot.
func (w *Writer) sealBucket(b int) (primaryEntry, error) {
	entries := w.buckets[b]
	if len(entries) == 0 {
		return primaryEntry{}, nil
	}

	numEnts := uint32(2 * len(entries))
	slots := make([]slotEntry, numEnts)
	for _, e := range entries {
		start := e.hash.slot(numEnts)
		placed := false
		for i := uint32(0); i < numEnts; i++ {
			j := (start + i) % numEnts
			if slots[j].empty() {
				slots[j] = slotEntry{hash: e.hash, ptr: e.ptr}
				placed = true
				break
			}
		}
		if !placed {
			// numEnts is always 2x len(entries), so the load factor
			// never exceeds 0.5 and a free slot always exists.
			panic("cdb: no free slot for bucket entry")
		}
	}

	bucketPtr := w.pos
	buf := make([]byte, int(numEnts)*slotSize)
	for i, s := range slots {
		s.marshalTo(buf[i*slotSize : (i+1)*slotSize])
	}
	n, err := w.f.Write(buf)
	if err != nil {
		return primaryEntry{}, ioErrf("writing secondary table for bucket %d: %w", b, err)
	}
	if n != len(buf) {
		return primaryEntry{}, ioErrf("short write sealing bucket %d: wrote %d of %d bytes", b, n, len(buf))
	}
	w.pos += uint32(n)

	return primaryEntry{ptr: bucketPtr, numEnts: numEnts}, nil
}

func (w *Writer) writePrimaryTable(primary *[numBuckets]primaryEntry) error {
	var buf [primaryTableSize]byte
	for i, e := range primary {
		e.marshalTo(buf[i*primaryEntrySize : (i+1)*primaryEntrySize])
	}
	n, err := w.f.WriteAt(buf[:], 0)
	if err != nil {
		return ioErrf("back-patching primary table: %w", err)
	}
	if n != len(buf) {
		return ioErrf("short write back-patching primary table: wrote %d of %d bytes", n, len(buf))
	}
	return nil
}
