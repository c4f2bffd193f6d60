package bptree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"bptreedb/diskio"
)

func TestRemoveAbsentKeyIsSilentSuccess(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	_, err := tr.Insert(intKey(1), ridFor(1))
	require.NoError(t, err)

	require.NoError(t, tr.Remove(intKey(999)))

	_, found, err := tr.GetValue(intKey(1))
	require.NoError(t, err)
	require.True(t, found)
}

func TestRemoveThenUniquenessIsZero(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	_, err := tr.Insert(intKey(5), ridFor(5))
	require.NoError(t, err)

	require.NoError(t, tr.Remove(intKey(5)))

	_, found, err := tr.GetValue(intKey(5))
	require.NoError(t, err)
	require.False(t, found)
}

// TestDeleteAllEmptiness is spec §8's delete-all-emptiness property:
// inserting S then removing every element of S in any order leaves
// the tree empty with root_page_id == INVALID.
func TestDeleteAllEmptiness(t *testing.T) {
	tr := newTestTree(t, 4, 4)

	n := 80
	insertOrder := rand.New(rand.NewSource(1)).Perm(n)
	for _, i := range insertOrder {
		ok, err := tr.Insert(intKey(i), ridFor(i))
		require.NoError(t, err)
		require.True(t, ok)
	}

	deleteOrder := rand.New(rand.NewSource(2)).Perm(n)
	for _, i := range deleteOrder {
		require.NoError(t, tr.Remove(intKey(i)))
		checkBalance(t, tr)
	}

	empty, err := tr.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
}

// TestPinLeakFreedom is spec §8's pin-leak-freedom property: at the
// return of every public tree operation, no frames remain pinned.
func TestPinLeakFreedom(t *testing.T) {
	tr := newTestTree(t, 4, 4)

	for n := 1; n <= 40; n++ {
		_, err := tr.Insert(intKey(n), ridFor(n))
		require.NoError(t, err)
		require.Equal(t, 0, tr.pool.PinCountOf(), "pin leak after insert %d", n)
	}

	_, _, err := tr.GetValue(intKey(20))
	require.NoError(t, err)
	require.Equal(t, 0, tr.pool.PinCountOf())

	for n := 1; n <= 40; n += 2 {
		require.NoError(t, tr.Remove(intKey(n)))
		require.Equal(t, 0, tr.pool.PinCountOf(), "pin leak after remove %d", n)
	}
}

// TestRoundTripThroughFlush is spec §8's round-trip property.
func TestRoundTripThroughFlush(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	_, err := tr.Insert(intKey(1), ridFor(1))
	require.NoError(t, err)

	require.NoError(t, tr.pool.FlushAll())

	rid, found, err := tr.GetValue(intKey(1))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ridFor(1), rid)
}

// TestSiblingListIntegrity is spec §8's sibling-list-integrity
// property: following next_page_id from the leftmost leaf visits
// every leaf exactly once and ends at INVALID.
func TestSiblingListIntegrity(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	for n := 1; n <= 50; n++ {
		_, err := tr.Insert(intKey(n), ridFor(n))
		require.NoError(t, err)
	}

	seen := map[diskio.PageID]bool{}
	current := leftmostLeaf(t, tr)
	totalKeys := 0
	for current != diskio.InvalidPageID {
		require.False(t, seen[current], "leaf %d visited twice", current)
		seen[current] = true

		fid, err := tr.pool.Fetch(current)
		require.NoError(t, err)
		lp := NewLeafPage(tr.pool.Frame(fid).Data[:], tr.opts)
		totalKeys += lp.Size()
		next := lp.NextPageID()
		tr.pool.Unpin(current, false)
		current = next
	}
	require.Equal(t, 50, totalKeys)
}

func leftmostLeaf(t *testing.T, tr *Tree) diskio.PageID {
	t.Helper()
	root, err := tr.rootPageID()
	require.NoError(t, err)
	pageID := root
	for {
		fid, err := tr.pool.Fetch(pageID)
		require.NoError(t, err)
		data := tr.pool.Frame(fid).Data[:]
		if nodeTypeOf(data) == NodeLeaf {
			tr.pool.Unpin(pageID, false)
			return pageID
		}
		ip := NewInternalPage(data, tr.opts)
		child := ip.ValueAt(0)
		tr.pool.Unpin(pageID, false)
		pageID = child
	}
}
