package cdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFakeFallocate_ZerosRegion exercises the write-zeroes fallback
// Writer.preallocateSecondaryTables takes when the real fallocate
// syscall reports EOPNOTSUPP, grounded on
// compactindexsized.Builder.SealAndClose's identical fallback.
func TestFakeFallocate_ZerosRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallocate-test")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("headerbytes"))
	require.NoError(t, err)

	require.NoError(t, fakeFallocate(f, 11, 37))

	info, err := f.Stat()
	require.NoError(t, err)
	require.EqualValues(t, 11+37, info.Size())

	got := make([]byte, 37)
	_, err = f.ReadAt(got, 11)
	require.NoError(t, err)
	for _, b := range got {
		require.Zero(t, b)
	}
}

// TestWriter_FinalizeWithRealFile exercises the real preallocation
// path (Writer.preallocateSecondaryTables against an *os.File, rather
// than the memFile test double used elsewhere) end to end.
func TestWriter_FinalizeWithRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "real.cdb")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		require.NoError(t, w.Put(key, []byte("value")))
	}
	require.NoError(t, w.Finalize())

	view, err := OpenHeap(path)
	require.NoError(t, err)
	defer view.Close()

	r := NewReader(view)
	dest := make([]byte, 5)
	n, err := r.Get([]byte{42, 0}, dest)
	require.NoError(t, err)
	require.Equal(t, "value", string(dest[:n]))
}
