package chonk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TreeStore {
	t.Helper()
	ts, err := NewTreeStore("/test/root", Config{
		ReservedAddressBytes: 16 << 20,
		HeaderPages:          2,
		PageSize:             4096,
	})
	require.NoError(t, err)
	t.Cleanup(func() { ts.Close() })
	return ts
}

// walkFlat drives three leaf children directly into root: sizes 100, 200, 300.
func walkFlat(t *testing.T, ts *TreeStore) *Cursor {
	t.Helper()
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(3))
	sizes := []uint64{100, 200, 300}
	for i, sz := range sizes {
		w := cur.ChildInit()
		w.SetKind(KindFile)
		require.NoError(t, w.SetName(string(rune('a'+i))))
		w.SetByteCount(sz)
		w.SetBlockCount((sz + 511) / 512)
		cur.ChildFinish()
	}
	require.NoError(t, cur.ChildrenEnd())
	return cur
}

func TestFlatTreeByteCount(t *testing.T) {
	ts := newTestStore(t)
	walkFlat(t, ts)

	root := ts.entryAt(ts.Root())
	require.EqualValues(t, 600, root.ByteCount())
}

func TestNestedTreeAggregation(t *testing.T) {
	ts := newTestStore(t)
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(2))

	wa := cur.ChildInit()
	wa.SetKind(KindDir)
	require.NoError(t, wa.SetName("a"))
	cur.ChildFinish()

	wb := cur.ChildInit()
	wb.SetKind(KindDir)
	require.NoError(t, wb.SetName("b"))
	cur.ChildFinish()

	require.NoError(t, cur.ChildrenEnd())

	require.NoError(t, cur.RecurseInto("a"))
	require.NoError(t, cur.ChildrenBegin(2))
	for _, nv := range []struct {
		name string
		size uint64
	}{{"x", 10}, {"y", 20}} {
		w := cur.ChildInit()
		w.SetKind(KindFile)
		require.NoError(t, w.SetName(nv.name))
		w.SetByteCount(nv.size)
		cur.ChildFinish()
	}
	require.NoError(t, cur.ChildrenEnd())
	require.NoError(t, cur.Backtrack(""))

	require.NoError(t, cur.RecurseInto("b"))
	require.NoError(t, cur.ChildrenBegin(1))
	wz := cur.ChildInit()
	wz.SetKind(KindFile)
	require.NoError(t, wz.SetName("z"))
	wz.SetByteCount(70)
	cur.ChildFinish()
	require.NoError(t, cur.ChildrenEnd())
	require.NoError(t, cur.Backtrack(""))

	require.EqualValues(t, 0, cur.Depth())

	root := ts.entryAt(ts.Root())
	require.EqualValues(t, 100, root.ByteCount())
}

func TestEmptyDirectoryPublishesZero(t *testing.T) {
	ts := newTestStore(t)
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(0))
	require.NoError(t, cur.ChildrenEnd())

	root := ts.entryAt(ts.Root())
	require.EqualValues(t, 0, root.ByteCount())
	require.EqualValues(t, 0, root.ChildrenCount())
	require.EqualValues(t, uint8(0), root.LockThis())
}

func TestNameLengthBoundary(t *testing.T) {
	ts := newTestStore(t)
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(1))
	w := cur.ChildInit()
	w.SetKind(KindFile)

	ok := make([]byte, MaxNameLen)
	for i := range ok {
		ok[i] = 'a'
	}
	require.NoError(t, w.SetName(string(ok)))

	tooLong := make([]byte, MaxNameLen+1)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	require.ErrorIs(t, w.SetName(string(tooLong)), ErrNameTooLong)
}

func TestRecurseIntoErrors(t *testing.T) {
	ts := newTestStore(t)
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(1))
	w := cur.ChildInit()
	w.SetKind(KindFile)
	require.NoError(t, w.SetName("leaf"))
	cur.ChildFinish()
	require.NoError(t, cur.ChildrenEnd())

	require.ErrorIs(t, cur.RecurseInto("missing"), ErrChildNotFound)
	require.ErrorIs(t, cur.RecurseInto("leaf"), ErrNotDirectory)
}

func TestPageAlignmentOfChildSlab(t *testing.T) {
	ts := newTestStore(t)
	cur, err := ts.NewCursorAt("/test/root")
	require.NoError(t, err)

	require.NoError(t, cur.ChildrenBegin(10))
	root := ts.entryAt(ts.Root())
	require.EqualValues(t, 0, (root.ChildrenStart()*EntrySize)%uint32(ts.ps.PageSize()))
}

func TestNewCursorAtWrongPathFails(t *testing.T) {
	ts := newTestStore(t)
	_, err := ts.NewCursorAt("/something/else")
	require.ErrorIs(t, err, ErrNotSupported)
}
