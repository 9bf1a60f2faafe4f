package chonk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEntry() rawEntry {
	buf := make([]byte, EntrySize)
	return newRawEntry(buf)
}

func TestEntryFieldRoundTrip(t *testing.T) {
	e := newTestEntry()

	e.setParent(42)
	require.EqualValues(t, 42, e.Parent())

	e.setChildren(7, 3)
	require.EqualValues(t, 7, e.ChildrenStart())
	require.EqualValues(t, 3, e.ChildrenCount())

	e.setInode(99)
	require.EqualValues(t, 99, e.Inode())

	e.setByteCount(123456)
	require.EqualValues(t, 123456, e.ByteCount())

	e.setBlockCount(241)
	require.EqualValues(t, 241, e.BlockCount())

	e.setMtime(1700000000)
	require.EqualValues(t, 1700000000, e.Mtime())

	e.setKind(KindLinkSoft)
	require.Equal(t, KindLinkSoft, e.KindField())

	require.NoError(t, e.setName("hello.txt"))
	require.Equal(t, "hello.txt", e.Name())
	require.EqualValues(t, len("hello.txt"), e.NameLen())
}

func TestEntryAddByteAndBlockCount(t *testing.T) {
	e := newTestEntry()
	e.addByteCount(10)
	e.addByteCount(20)
	require.EqualValues(t, 30, e.ByteCount())

	e.addBlockCount(1)
	e.addBlockCount(1)
	require.EqualValues(t, 2, e.BlockCount())
}

func TestEntryLockThisTransitions(t *testing.T) {
	e := newTestEntry()
	e.setLockThis(1)
	require.EqualValues(t, 1, e.LockThis())

	e.publish()
	require.EqualValues(t, 0, e.LockThis())

	// Publishing again must be idempotent (backtrack republishes a node
	// ChildrenEnd already published).
	e.publish()
	require.EqualValues(t, 0, e.LockThis())
}

func TestEntryNameDoesNotLeakAdjacentBytes(t *testing.T) {
	e := newTestEntry()
	require.NoError(t, e.setName("first-name-that-is-long"))
	require.NoError(t, e.setName("ab"))
	require.Equal(t, "ab", e.Name())
}

func TestEntrySetNameRejectsOverLong(t *testing.T) {
	e := newTestEntry()
	name := make([]byte, MaxNameLen+1)
	for i := range name {
		name[i] = 'x'
	}
	require.ErrorIs(t, e.setName(string(name)), ErrNameTooLong)
}
