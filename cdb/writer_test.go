package cdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_ReservesPrimaryTable(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)
	require.EqualValues(t, primaryTableSize, w.pos)
	require.Len(t, f.buf, primaryTableSize)
}

func TestWriter_PutAfterFinalizeFails(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	err = w.Put([]byte("k"), []byte("v"))
	require.Error(t, err)
}

func TestWriter_FinalizeIsIdempotent(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("k"), []byte("v")))
	require.NoError(t, w.Finalize())
	sizeAfterFirst := len(f.buf)

	require.NoError(t, w.Finalize())
	require.Len(t, f.buf, sizeAfterFirst)
}

func TestWriter_EmptyDatabaseHasNoNonEmptyBuckets(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	require.Len(t, f.buf, primaryTableSize)
	for b := 0; b < numBuckets; b++ {
		off := int64(b) * primaryEntrySize
		entry := unmarshalPrimaryEntry(f.buf[off : off+primaryEntrySize])
		require.Zero(t, entry.numEnts)
	}
}

func TestWriter_SecondaryTableIsDoubleTheEntryCount(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)

	key := []byte("only-key")
	require.NoError(t, w.Put(key, []byte("value")))
	require.NoError(t, w.Finalize())

	h := hashKey(key)
	off := int64(h.bucket()) * primaryEntrySize
	entry := unmarshalPrimaryEntry(f.buf[off : off+primaryEntrySize])
	require.EqualValues(t, 2, entry.numEnts)
}

func TestWriter_BucketPointerNeverFallsInPrimaryTable(t *testing.T) {
	f := &memFile{}
	w, err := NewWriter(f)
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("x"), []byte("y")))
	require.NoError(t, w.Finalize())

	for b := 0; b < numBuckets; b++ {
		off := int64(b) * primaryEntrySize
		entry := unmarshalPrimaryEntry(f.buf[off : off+primaryEntrySize])
		if entry.numEnts > 0 {
			require.GreaterOrEqual(t, entry.ptr, uint32(primaryTableSize))
		}
	}
}
