package cdb

import (
	"bytes"

	"github.com/valyala/bytebufferpool"
)

// Reader performs point lookups against a finalised CDB file. It
// borrows a ByteView for its entire lifetime; the caller is
// responsible for keeping the ByteView's backing resource open for at
// least as long as the Reader is in use, and for closing it
// afterwards.
//
// A Reader has no mutable state beyond its ByteView, so concurrent
// lookups from multiple goroutines are safe.
type Reader struct {
	view ByteView
}

// NewReader wraps view for querying. view should be the result of
// OpenHeap or OpenMmap over a file that a Writer has finalised.
func NewReader(view ByteView) *Reader {
	return &Reader{view: view}
}

// Get looks up key and copies its value into dest, truncating to
// len(dest) if the stored value is longer. It returns the number of
// bytes copied.
//
// A well-formed but absent key returns (0, ErrNotFound) — not a
// failure. A structural problem discovered while walking the index
// (an offset or length that runs past the end of the file) returns
// ErrCorrupt.
func (r *Reader) Get(key []byte, dest []byte) (int, error) {
	h := hashKey(key)

	primaryOff := int64(h.bucket()) * primaryEntrySize
	primaryBuf, err := r.view.slice(primaryOff, primaryOff+primaryEntrySize)
	if err != nil {
		return 0, err
	}
	entry := unmarshalPrimaryEntry(primaryBuf)
	if entry.numEnts == 0 {
		return 0, ErrNotFound
	}
	if int64(entry.ptr) < primaryTableSize {
		return 0, corruptf("bucket pointer %d falls inside the primary table", entry.ptr)
	}

	start := h.slot(entry.numEnts)
	for i := uint32(0); i < entry.numEnts; i++ {
		j := (start + i) % entry.numEnts
		slotOff := int64(entry.ptr) + int64(j)*slotSize

		slotBuf, err := r.view.slice(slotOff, slotOff+slotSize)
		if err != nil {
			return 0, err
		}
		s := unmarshalSlotEntry(slotBuf)

		if s.empty() {
			// Sound only because Finalize placed entries contiguously
			// from their preferred slot: an empty slot proves no
			// later entry in this bucket can match either.
			return 0, ErrNotFound
		}
		if s.hash != h {
			continue
		}

		n, matched, err := r.readRecordIfKeyMatches(int64(s.ptr), key, dest)
		if err != nil {
			return 0, err
		}
		if matched {
			return n, nil
		}
	}
	return 0, ErrNotFound
}

// readRecordIfKeyMatches reads the record header at ptr, compares its
// key against key, and on a match copies up to len(dest) bytes of the
// value into dest.
func (r *Reader) readRecordIfKeyMatches(ptr int64, key []byte, dest []byte) (n int, matched bool, err error) {
	headerBuf, err := r.view.slice(ptr, ptr+recordHeaderSize)
	if err != nil {
		return 0, false, err
	}
	hdr := unmarshalRecordHeader(headerBuf)
	if hdr.klen != uint32(len(key)) {
		return 0, false, nil
	}

	keyOff := ptr + recordHeaderSize
	keyBuf := bytebufferpool.Get()
	defer bytebufferpool.Put(keyBuf)

	storedKey, err := r.view.readInto(keyBuf.B, keyOff, int(hdr.klen))
	if err != nil {
		return 0, false, err
	}
	keyBuf.B = storedKey
	if !bytes.Equal(storedKey, key) {
		return 0, false, nil
	}

	valOff := keyOff + int64(hdr.klen)
	toCopy := hdr.vlen
	if uint32(len(dest)) < toCopy {
		toCopy = uint32(len(dest))
	}
	if toCopy == 0 {
		return 0, true, nil
	}
	value, err := r.view.slice(valOff, valOff+int64(toCopy))
	if err != nil {
		return 0, false, err
	}
	return copy(dest, value), true, nil
}
