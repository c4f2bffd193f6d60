package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bptreedb/diskio"
)

func TestHeaderPageInsertGetUpdateDelete(t *testing.T) {
	buf := make([]byte, diskio.PageSize)
	hp := NewHeaderPage(buf)
	hp.Init()

	_, ok := hp.GetRootID("orders")
	require.False(t, ok)

	require.NoError(t, hp.InsertRecord("orders", 5))
	require.Error(t, hp.InsertRecord("orders", 6), "duplicate name must fail")

	root, ok := hp.GetRootID("orders")
	require.True(t, ok)
	require.Equal(t, diskio.PageID(5), root)

	require.NoError(t, hp.InsertRecord("customers", 9))
	root, ok = hp.GetRootID("customers")
	require.True(t, ok)
	require.Equal(t, diskio.PageID(9), root)

	require.NoError(t, hp.UpdateRecord("orders", 42))
	root, ok = hp.GetRootID("orders")
	require.True(t, ok)
	require.Equal(t, diskio.PageID(42), root)

	require.NoError(t, hp.DeleteRecord("orders"))
	_, ok = hp.GetRootID("orders")
	require.False(t, ok)

	// customers must survive the compaction caused by deleting orders.
	root, ok = hp.GetRootID("customers")
	require.True(t, ok)
	require.Equal(t, diskio.PageID(9), root)
}

func TestHeaderPageUpdateMissingFails(t *testing.T) {
	buf := make([]byte, diskio.PageSize)
	hp := NewHeaderPage(buf)
	hp.Init()
	require.Error(t, hp.UpdateRecord("nope", 1))
}
