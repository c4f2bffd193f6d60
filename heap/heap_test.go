package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bptreedb/buffer"
	"bptreedb/diskio"
)

func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	pager := diskio.NewMemPager()
	pool := buffer.NewPool(8, pager)
	return New(pool)
}

func TestHeapInsertAndGetRoundTrip(t *testing.T) {
	h := newTestHeap(t)

	rid, err := h.Insert([]byte("hello heap"))
	require.NoError(t, err)

	got, err := h.Get(rid)
	require.NoError(t, err)
	require.Equal(t, "hello heap", string(got))
}

func TestHeapMultipleRowsSamePage(t *testing.T) {
	h := newTestHeap(t)

	var rids []RecordID
	for i := 0; i < 20; i++ {
		rid, err := h.Insert([]byte{byte(i), byte(i + 1)})
		require.NoError(t, err)
		rids = append(rids, rid)
	}
	require.Equal(t, 1, h.PageCount())

	for i, rid := range rids {
		got, err := h.Get(rid)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i), byte(i + 1)}, got)
	}
}

func TestHeapSpillsToNewPageWhenFull(t *testing.T) {
	h := newTestHeap(t)

	row := make([]byte, 1000)
	var last RecordID
	for i := 0; i < 10; i++ {
		rid, err := h.Insert(row)
		require.NoError(t, err)
		last = rid
	}
	require.Greater(t, h.PageCount(), 1)

	got, err := h.Get(last)
	require.NoError(t, err)
	require.Len(t, got, 1000)
}

func TestHeapDeleteTombstones(t *testing.T) {
	h := newTestHeap(t)

	rid, err := h.Insert([]byte("gone soon"))
	require.NoError(t, err)

	require.NoError(t, h.Delete(rid))

	_, err = h.Get(rid)
	require.Error(t, err)
}

func TestHeapRejectsOversizedRow(t *testing.T) {
	h := newTestHeap(t)

	_, err := h.Insert(make([]byte, diskio.PageSize))
	require.Error(t, err)
}
