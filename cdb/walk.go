package cdb

// WalkBuckets reads every primary-table entry in view and invokes fn
// with its index and (ptr, num_ents) pair, in bucket order. It is
// meant for inspection tooling (cmd/cdbtool's dump verb), not for the
// lookup path.
func WalkBuckets(view ByteView, fn func(index int, ptr, numEnts uint32)) error {
	buf, err := view.slice(0, primaryTableSize)
	if err != nil {
		return err
	}
	for i := 0; i < numBuckets; i++ {
		entry := unmarshalPrimaryEntry(buf[i*primaryEntrySize : (i+1)*primaryEntrySize])
		fn(i, entry.ptr, entry.numEnts)
	}
	return nil
}
