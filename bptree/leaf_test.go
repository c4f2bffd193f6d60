package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bptreedb/diskio"
)

func newLeafPageForTest() *LeafPage {
	buf := make([]byte, diskio.PageSize)
	opts := Options{KeySize: 4, Comparator: bytesComparator}
	lp := NewLeafPage(buf, opts)
	lp.Init(1, diskio.InvalidPageID, 5)
	return lp
}

func TestLeafInsertKeepsOrder(t *testing.T) {
	lp := newLeafPageForTest()
	lp.Insert(intKey(3), ridFor(3))
	lp.Insert(intKey(1), ridFor(1))
	lp.Insert(intKey(2), ridFor(2))

	require.Equal(t, 3, lp.Size())
	for i, want := range []int{1, 2, 3} {
		require.Equal(t, want, keyToInt(lp.KeyAt(i)))
	}
}

func TestLeafLookup(t *testing.T) {
	lp := newLeafPageForTest()
	lp.Insert(intKey(10), ridFor(10))
	lp.Insert(intKey(20), ridFor(20))

	rid, ok := lp.Lookup(intKey(10))
	require.True(t, ok)
	require.Equal(t, ridFor(10), rid)

	_, ok = lp.Lookup(intKey(15))
	require.False(t, ok)
}

func TestLeafRemoveAndDeleteRecord(t *testing.T) {
	lp := newLeafPageForTest()
	lp.Insert(intKey(1), ridFor(1))
	lp.Insert(intKey(2), ridFor(2))
	lp.Insert(intKey(3), ridFor(3))

	newSize := lp.RemoveAndDeleteRecord(intKey(2))
	require.Equal(t, 2, newSize)
	require.Equal(t, 1, keyToInt(lp.KeyAt(0)))
	require.Equal(t, 3, keyToInt(lp.KeyAt(1)))

	unchanged := lp.RemoveAndDeleteRecord(intKey(99))
	require.Equal(t, 2, unchanged)
}

func TestLeafMoveHalfTo(t *testing.T) {
	lp := newLeafPageForTest()
	for i := 1; i <= 5; i++ {
		lp.Insert(intKey(i), ridFor(i))
	}

	buf2 := make([]byte, diskio.PageSize)
	recipient := NewLeafPage(buf2, lp.opts)
	recipient.Init(2, diskio.InvalidPageID, 5)

	lp.MoveHalfTo(recipient)

	require.Equal(t, 2, lp.Size())
	require.Equal(t, 3, recipient.Size())
	require.Equal(t, 1, keyToInt(lp.KeyAt(0)))
	require.Equal(t, 3, keyToInt(recipient.KeyAt(0)))
}

func TestLeafMoveAllToTransfersSiblingPointer(t *testing.T) {
	lp := newLeafPageForTest()
	lp.Insert(intKey(5), ridFor(5))
	lp.SetNextPageID(99)

	buf2 := make([]byte, diskio.PageSize)
	recipient := NewLeafPage(buf2, lp.opts)
	recipient.Init(2, diskio.InvalidPageID, 5)
	recipient.Insert(intKey(1), ridFor(1))

	lp.MoveAllTo(recipient)

	require.Equal(t, 0, lp.Size())
	require.Equal(t, 2, recipient.Size())
	require.Equal(t, diskio.PageID(99), recipient.NextPageID())
}

func TestLeafRotations(t *testing.T) {
	a := newLeafPageForTest()
	a.Insert(intKey(1), ridFor(1))
	a.Insert(intKey(2), ridFor(2))

	buf2 := make([]byte, diskio.PageSize)
	b := NewLeafPage(buf2, a.opts)
	b.Init(2, diskio.InvalidPageID, 5)
	b.Insert(intKey(10), ridFor(10))

	a.MoveLastToFrontOf(b)
	require.Equal(t, 1, a.Size())
	require.Equal(t, 2, b.Size())
	require.Equal(t, 2, keyToInt(b.KeyAt(0)))

	b.MoveFirstToEndOf(a)
	require.Equal(t, 2, a.Size())
	require.Equal(t, 1, b.Size())
	require.Equal(t, 2, keyToInt(a.KeyAt(1)))
}
