// Package readview is the sorted, UI-facing read side of a chonk tree: it
// wraps chonk.TreeReader's acquire-load protocol with a descending-size
// sort order and an optional bounded cache for directories a UI revisits.
package readview

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/probably-neb/chonk"
)

// Reader is a lightweight, stateless-except-for-cache view over a
// chonk.TreeStore. It is safe for concurrent use by multiple UI
// goroutines, same as the chonk.TreeReader it wraps.
type Reader struct {
	tr    *chonk.TreeReader
	cache *Cache
}

// New returns a Reader with no cache: every call re-walks the store.
func New(ts *chonk.TreeStore) *Reader {
	return &Reader{tr: ts.ReadView()}
}

// NewCached returns a Reader backed by an LRU cache of size entries.
func NewCached(ts *chonk.TreeStore, size int) (*Reader, error) {
	c, err := NewCache(size)
	if err != nil {
		return nil, err
	}
	return &Reader{tr: ts.ReadView(), cache: c}, nil
}

// ChildrenOf returns ref's children sorted descending by ByteCount, ties
// broken lexicographically by Name.
func (r *Reader) ChildrenOf(ref chonk.EntryRef) ([]chonk.ChildRecord, chonk.ReadStatus) {
	if r.cache != nil {
		if hit, ok := r.cache.get(ref); ok {
			return hit, chonk.Ready
		}
	}

	children, status := r.tr.ChildrenOf(ref)
	if status != chonk.Ready {
		return nil, status
	}

	sorted := append([]chonk.ChildRecord(nil), children...)
	slices.SortFunc(sorted, func(a, b chonk.ChildRecord) int {
		if a.ByteCount != b.ByteCount {
			if a.ByteCount > b.ByteCount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	if r.cache != nil {
		// Cached even though ByteCount/BlockCount of directory children may
		// still be growing: a directory's own name/kind/count list is frozen
		// the instant it is Ready, so the cached names and kinds stay right.
		// The cached byte/block counts are a snapshot from this call and are
		// not refreshed until the entry is evicted or the cache is purged.
		r.cache.put(ref, sorted)
	}
	return sorted, chonk.Ready
}

// Root returns a handle to the tree root.
func (r *Reader) Root() chonk.EntryRef { return r.tr.Root() }
