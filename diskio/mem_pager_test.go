package diskio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemPagerRoundTrip(t *testing.T) {
	p := NewMemPager()
	id, err := p.AllocatePage()
	require.NoError(t, err)

	page := make([]byte, PageSize)
	page[10] = 7
	require.NoError(t, p.WritePage(id, page))

	got := make([]byte, PageSize)
	require.NoError(t, p.ReadPage(id, got))
	require.Equal(t, byte(7), got[10])
}

func TestMemPagerReadMissingPage(t *testing.T) {
	p := NewMemPager()
	buf := make([]byte, PageSize)
	err := p.ReadPage(PageID(999), buf)
	require.ErrorIs(t, err, ErrNoSuchPage)
}

func TestMemPagerDeallocateThenRealloc(t *testing.T) {
	p := NewMemPager()
	id, err := p.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, p.DeallocatePage(id))

	buf := make([]byte, PageSize)
	err = p.ReadPage(id, buf)
	require.ErrorIs(t, err, ErrNoSuchPage)

	id2, err := p.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, id, id2)
}
