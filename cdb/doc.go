// Package cdb implements D.J. Bernstein's constant database (cdb)
// format: an immutable, two-level hashtable over a flat file, built
// for fast point lookups with no in-memory index.
//
// # Design
//
// A cdb file is built once by a Writer and read many times by a
// Reader. Each key/value pair is appended as a record in the order it
// was written; duplicates are allowed. Once Finalize runs, the file
// never changes.
//
// Unlike compactindexsized's FKS perfect-hash buckets, cdb uses a
// simple djb2 hash and plain open addressing:
//
//	func NewWriter(f WriteSeeker, opts ...Option) (*Writer, error)
//	func (*Writer) Put(key, value []byte) error
//	func (*Writer) Finalize() error
//
//	func NewReader(view ByteView) *Reader
//	func (*Reader) Get(key, dest []byte) (int, error)
//
// # Layout
//
// The file opens with a primary table of exactly 256 fixed-size
// entries — one per possible low byte of a key's hash. Each entry is
// a (pointer, count) pair locating that bucket's secondary table,
// which holds 2x as many (hash, record-pointer) slots as it has
// entries, leaving every bucket at most half full.
//
// Records follow the primary table; each is a (key length, value
// length) header followed by the raw key and value bytes. Secondary
// tables follow the records, one per non-empty bucket, written in
// bucket order.
//
// # Hashing
//
// Keys are hashed with the djb2 variant:
//
//	h := uint32(5381)
//	for _, b := range key {
//		h = (h<<5 + h) ^ uint32(b)
//	}
//
// The low byte of h selects one of the 256 primary buckets; the
// remaining bits, modulo the bucket's slot count, select the starting
// slot for linear probing.
//
// # Querying
//
// Get hashes the key, reads the corresponding primary entry, and
// probes the secondary table from the computed starting slot,
// wrapping around the end. An empty slot (pointer zero) ends the
// search: Finalize always places entries starting from their
// preferred slot, so if the key existed its slot would be occupied
// wherever the probe currently stands.
package cdb
