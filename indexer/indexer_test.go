package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/probably-neb/chonk"
	"github.com/probably-neb/chonk/indexer"
	"github.com/probably-neb/chonk/readview"
)

func newStore(t *testing.T, root string) *chonk.TreeStore {
	t.Helper()
	ts, err := chonk.NewTreeStore(root, chonk.Config{
		ReservedAddressBytes: 64 << 20,
		HeaderPages:          2,
		PageSize:             4096,
	})
	require.NoError(t, err)
	t.Cleanup(func() { ts.Close() })
	return ts
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("walk did not finish in time")
	}
}

func TestWalkFlatTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 100)
	writeFile(t, filepath.Join(root, "b"), 200)
	writeFile(t, filepath.Join(root, "c"), 300)

	ts := newStore(t, root)
	ix := indexer.New(ts)
	done, err := ix.Walk(context.Background(), root)
	require.NoError(t, err)
	waitDone(t, done)

	rv := readview.New(ts)
	children, status := rv.ChildrenOf(ts.Root())
	require.Equal(t, chonk.Ready, status)
	require.Len(t, children, 3)
	require.EqualValues(t, 300, children[0].ByteCount)
	require.EqualValues(t, 200, children[1].ByteCount)
	require.EqualValues(t, 100, children[2].ByteCount)

	stats := ix.Stats()
	require.EqualValues(t, 3, stats.FilesIndexed)
}

func TestWalkNestedTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	writeFile(t, filepath.Join(root, "a", "x"), 10)
	writeFile(t, filepath.Join(root, "a", "y"), 20)
	writeFile(t, filepath.Join(root, "b", "z"), 70)

	ts := newStore(t, root)
	ix := indexer.New(ts)
	done, err := ix.Walk(context.Background(), root)
	require.NoError(t, err)
	waitDone(t, done)

	rv := readview.New(ts)
	children, status := rv.ChildrenOf(ts.Root())
	require.Equal(t, chonk.Ready, status)
	require.Len(t, children, 2)
	require.Equal(t, "b", children[0].Name)
	require.EqualValues(t, 70, children[0].ByteCount)
	require.Equal(t, "a", children[1].Name)
	require.EqualValues(t, 30, children[1].ByteCount)
}

func TestWalkSymlinkToUnreadableTarget(t *testing.T) {
	root := t.TempDir()
	dangling := filepath.Join(root, "broken")
	require.NoError(t, os.Symlink(filepath.Join(root, "does-not-exist"), dangling))

	ts := newStore(t, root)
	ix := indexer.New(ts)
	done, err := ix.Walk(context.Background(), root)
	require.NoError(t, err)
	waitDone(t, done)

	rv := readview.New(ts)
	children, status := rv.ChildrenOf(ts.Root())
	require.Equal(t, chonk.Ready, status)
	require.Len(t, children, 1)
	require.Equal(t, "broken", children[0].Name)
	require.Equal(t, chonk.KindLinkSoft, children[0].Kind)
	require.EqualValues(t, 0, children[0].ByteCount)
}

func TestWalkCapacityExhaustionLeavesTreeReadable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "deep"), 0o755))
	for i := 0; i < 64; i++ {
		writeFile(t, filepath.Join(root, "deep", "f"+string(rune('a'+i%26))+string(rune('0'+i/26))), 1)
	}

	// Reserve barely enough for the header and the root's own one-entry
	// slab; the deep/ subdirectory's slab allocation must fail.
	ts, err := chonk.NewTreeStore(root, chonk.Config{
		ReservedAddressBytes: 3 * 4096,
		HeaderPages:          2,
		PageSize:             4096,
	})
	require.NoError(t, err)
	defer ts.Close()

	ix := indexer.New(ts)
	done, err := ix.Walk(context.Background(), root)
	require.NoError(t, err)
	waitDone(t, done)

	// Root remains readable even though the walk was abandoned partway.
	rv := readview.New(ts)
	_, status := rv.ChildrenOf(ts.Root())
	require.Contains(t, []chonk.ReadStatus{chonk.Ready, chonk.NotReady}, status)
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	data := make([]byte, size)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
