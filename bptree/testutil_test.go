package bptree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"bptreedb/buffer"
	"bptreedb/diskio"
)

// intKey encodes n as a 4-byte big-endian key, so lexicographic byte
// comparison matches numeric order for the non-negative ints these
// tests use throughout.
func intKey(n int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(n))
	return buf
}

func keyToInt(k []byte) int {
	return int(binary.BigEndian.Uint32(k))
}

func bytesComparator(a, b []byte) int { return bytes.Compare(a, b) }

// newTestTree builds a fresh, empty tree over an in-memory pager with
// the given max sizes. Pool capacity is generous so tests don't need
// to reason about eviction alongside tree structure.
func newTestTree(t *testing.T, leafMax, internalMax int) *Tree {
	t.Helper()
	pager := diskio.NewMemPager()
	pool := buffer.NewPool(64, pager)
	tr, err := Create("idx", pool, Options{
		KeySize:         4,
		LeafMaxSize:     leafMax,
		InternalMaxSize: internalMax,
		Comparator:      bytesComparator,
	})
	require.NoError(t, err)
	return tr
}

// drain walks an iterator to exhaustion and returns the keys (as ints)
// and record ids it visits.
func drain(t *testing.T, it *Iterator) ([]int, []RecordID) {
	t.Helper()
	var keys []int
	var rids []RecordID
	for !it.IsEnd() {
		k, err := it.Key()
		require.NoError(t, err)
		v, err := it.Value()
		require.NoError(t, err)
		keys = append(keys, keyToInt(k))
		rids = append(rids, v)
		require.NoError(t, it.Next())
	}
	return keys, rids
}

func ridFor(n int) RecordID {
	return RecordID{PageID: diskio.PageID(n), SlotNum: int32(n)}
}
