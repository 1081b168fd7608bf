package cdb

import "encoding/binary"

// primaryTableSize is the fixed size, in bytes, of the primary table:
// 256 entries of 8 bytes each.
const primaryTableSize = numBuckets * primaryEntrySize

// primaryEntrySize is the width of one primary-table entry: a 4-byte
// secondary-table offset and a 4-byte entry count.
const primaryEntrySize = 8

// slotSize is the width of one secondary-table slot: a 4-byte hash
// and a 4-byte record offset.
const slotSize = 8

// recordHeaderSize is the width of a record's (klen, vlen) header.
const recordHeaderSize = 8

// primaryEntry is one (ptr, num_ents) pair in the primary table.
type primaryEntry struct {
	ptr     uint32
	numEnts uint32
}

func (e primaryEntry) marshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], e.ptr)
	binary.LittleEndian.PutUint32(buf[4:8], e.numEnts)
}

func unmarshalPrimaryEntry(buf []byte) primaryEntry {
	return primaryEntry{
		ptr:     binary.LittleEndian.Uint32(buf[0:4]),
		numEnts: binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// slotEntry is one (hash, ptr) pair in a secondary table. ptr == 0 is
// the empty-slot sentinel: sound because no record can ever begin in
// the first 2048 bytes of the file.
type slotEntry struct {
	hash hash
	ptr  uint32
}

func (e slotEntry) empty() bool {
	return e.ptr == 0
}

func (e slotEntry) marshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.hash))
	binary.LittleEndian.PutUint32(buf[4:8], e.ptr)
}

func unmarshalSlotEntry(buf []byte) slotEntry {
	return slotEntry{
		hash: hash(binary.LittleEndian.Uint32(buf[0:4])),
		ptr:  binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// recordHeader is the (klen, vlen) pair preceding a record's key and
// value bytes.
type recordHeader struct {
	klen uint32
	vlen uint32
}

func unmarshalRecordHeader(buf []byte) recordHeader {
	return recordHeader{
		klen: binary.LittleEndian.Uint32(buf[0:4]),
		vlen: binary.LittleEndian.Uint32(buf[4:8]),
	}
}
