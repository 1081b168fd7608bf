package cdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempCDB(t *testing.T, kv [][2]string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.cdb")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f)
	require.NoError(t, err)
	for _, pair := range kv {
		require.NoError(t, w.Put([]byte(pair[0]), []byte(pair[1])))
	}
	require.NoError(t, w.Finalize())
	return path
}

func TestOpenHeap_MatchesOpenMmap(t *testing.T) {
	kv := [][2]string{
		{"abc", "def"},
		{"pink", "red"},
		{"apple", "grape"},
	}
	path := writeTempCDB(t, kv)

	heapView, err := OpenHeap(path)
	require.NoError(t, err)
	defer heapView.Close()

	mmapView, err := OpenMmap(path)
	require.NoError(t, err)
	defer mmapView.Close()

	require.Equal(t, heapView.Len(), mmapView.Len())

	heapReader := NewReader(heapView)
	mmapReader := NewReader(mmapView)

	for _, pair := range kv {
		hDest := make([]byte, len(pair[1]))
		n, err := heapReader.Get([]byte(pair[0]), hDest)
		require.NoError(t, err)
		require.Equal(t, pair[1], string(hDest[:n]))

		mDest := make([]byte, len(pair[1]))
		n, err = mmapReader.Get([]byte(pair[0]), mDest)
		require.NoError(t, err)
		require.Equal(t, pair[1], string(mDest[:n]))
	}
}

func TestOpen_DefaultsToHeap(t *testing.T) {
	path := writeTempCDB(t, [][2]string{{"k", "v"}})

	view, err := Open(path, Heap)
	require.NoError(t, err)
	defer view.Close()

	r := NewReader(view)
	dest := make([]byte, 1)
	n, err := r.Get([]byte("k"), dest)
	require.NoError(t, err)
	require.Equal(t, "v", string(dest[:n]))
}

func TestOpenHeap_MissingFile(t *testing.T) {
	_, err := OpenHeap(filepath.Join(t.TempDir(), "does-not-exist.cdb"))
	require.ErrorIs(t, err, ErrIO)
}
