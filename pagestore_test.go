package chonk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageStoreGrowToIsIdempotent(t *testing.T) {
	ps, err := NewPageStore(1<<20, 2, 4096)
	require.NoError(t, err)
	defer ps.Close()

	require.Equal(t, 2, ps.Extent())
	require.NoError(t, ps.GrowTo(2))
	require.Equal(t, 2, ps.Extent())

	require.NoError(t, ps.GrowTo(5))
	require.Equal(t, 5, ps.Extent())
}

func TestPageStoreGrowToBeyondMaxFails(t *testing.T) {
	ps, err := NewPageStore(4096*3, 2, 4096)
	require.NoError(t, err)
	defer ps.Close()

	require.ErrorIs(t, ps.GrowTo(ps.MaxPages()+1), ErrOutOfCapacity)
}

func TestEntryPoolAllocPageAligns(t *testing.T) {
	ps, err := NewPageStore(1<<20, 2, 4096)
	require.NoError(t, err)
	defer ps.Close()

	pool := NewEntryPool(ps)
	perPage := uint32(4096 / EntrySize)

	start1, err := pool.Alloc(1)
	require.NoError(t, err)
	require.EqualValues(t, 0, start1)

	start2, err := pool.Alloc(1)
	require.NoError(t, err)
	require.EqualValues(t, perPage, start2, "second alloc must start a fresh page even though the first left room")
}

func TestEntryPoolAllocZeroPanics(t *testing.T) {
	ps, err := NewPageStore(1<<20, 2, 4096)
	require.NoError(t, err)
	defer ps.Close()

	pool := NewEntryPool(ps)
	require.Panics(t, func() { pool.Alloc(0) })
}

func TestEntryPoolExhaustion(t *testing.T) {
	perPage := 4096 / EntrySize
	// Reserve exactly header + one page's worth of entries.
	ps, err := NewPageStore(4096*3, 2, 4096)
	require.NoError(t, err)
	defer ps.Close()

	pool := NewEntryPool(ps)
	_, err = pool.Alloc(uint32(perPage))
	require.NoError(t, err)

	_, err = pool.Alloc(1)
	require.ErrorIs(t, err, ErrOutOfCapacity)
}
