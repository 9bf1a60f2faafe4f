package chonk

import (
	"sync/atomic"

	"github.com/NebulousLabs/Sia/build"
)

const (
	headerMagic      = 0x63686f6e // "chon"
	headerMagicOff   = 0
	headerPathLenOff = 4
	headerPathOff    = 8
)

// EntryRef is an opaque handle to an Entry, safe to hold across goroutines
// once the Entry it names has been observed published: a caller can only
// come to hold a ref to E by reading it out of an already-published
// parent.
type EntryRef struct {
	idx uint32
}

// IsRoot reports whether the ref names the tree root.
func (r EntryRef) IsRoot() bool { return r.idx == RootIndex }

// Stats mirrors the store's diagnostics surface: files indexed so far and
// pages committed so far.
type Stats struct {
	FilesIndexed   uint64
	PagesCommitted uint32
}

// TreeStore is the root-bearing container: a PageStore + EntryPool + the
// root path string, plus the one distinguished root Entry.
type TreeStore struct {
	ps   *PageStore
	pool *EntryPool

	rootPath string

	// filesIndexed is bumped by the Indexer as entries are published; it
	// backs Stats().FilesIndexed and is safe for a concurrent ReadView
	// caller to read via Stats() at any time.
	filesIndexed atomic.Uint64
}

// Config configures a new TreeStore.
type Config struct {
	ReservedAddressBytes int
	HeaderPages          int
	PageSize             int
}

// DefaultConfig returns a reasonable default: header_pages = 2, page_size =
// the host page size, and a reservation large enough for a deep, wide walk
// (4 GiB of address space, about a million 4 KiB pages, lazily committed).
func DefaultConfig() Config {
	return Config{
		ReservedAddressBytes: 4096 * 1 << 20, // ~4Gi of address space, lazily committed
		HeaderPages:          2,
		PageSize:             0, // resolved to os page size by NewPageStore
	}
}

// NewTreeStore reserves a PageStore per cfg and initializes it with
// rootPath as the walk root.
func NewTreeStore(rootPath string, cfg Config) (*TreeStore, error) {
	ps, err := NewPageStore(cfg.ReservedAddressBytes, cfg.HeaderPages, cfg.PageSize)
	if err != nil {
		return nil, build.ExtendErr("failed to create page store", err)
	}

	ts := &TreeStore{
		ps:       ps,
		pool:     NewEntryPool(ps),
		rootPath: rootPath,
	}
	if err := ts.writeHeader(rootPath); err != nil {
		ps.Close()
		return nil, build.ExtendErr("failed to write tree store header", err)
	}

	root := ts.rootEntry()
	root.zero()
	root.setParent(RootIndex)
	root.setKind(KindDir)
	root.setLockThis(1)
	return ts, nil
}

// writeHeader stores the root path in page 0 of the header region: a magic
// word, the path length, then the path bytes. header_pages is always >= 2,
// so the root Entry lives in a later header page and the path has
// page_size - headerPathOff bytes of room, comfortably more than any real
// path.
func (ts *TreeStore) writeHeader(rootPath string) error {
	if len(rootPath) > ts.ps.PageSize()-headerPathOff {
		return build.ExtendErr("root path", ErrNameTooLong)
	}
	page0 := ts.ps.BytesAt(0, ts.ps.PageSize())
	putUint32(page0[headerMagicOff:], headerMagic)
	putUint32(page0[headerPathLenOff:], uint32(len(rootPath)))
	copy(page0[headerPathOff:], rootPath)
	return nil
}

// rootEntry returns the reserved root Entry, stored at the last EntrySize
// bytes of the header region.
func (ts *TreeStore) rootEntry() rawEntry {
	headerBytes := ts.ps.HeaderPages() * ts.ps.PageSize()
	off := headerBytes - EntrySize
	buf := ts.ps.BytesAt(0, headerBytes)[off : off+EntrySize]
	return newRawEntry(buf)
}

// entryAt resolves a ref to its underlying rawEntry, transparently handling
// the root sentinel.
func (ts *TreeStore) entryAt(ref EntryRef) rawEntry {
	if ref.idx == RootIndex {
		return ts.rootEntry()
	}
	return ts.pool.Get(ref.idx)
}

// Root returns a handle to the root entry.
func (ts *TreeStore) Root() EntryRef { return EntryRef{idx: RootIndex} }

// RootPath returns the absolute path the store was initialized with.
func (ts *TreeStore) RootPath() string { return ts.rootPath }

// NewCursorAt returns a fresh Cursor at the root, or NotSupported if path
// does not name the tree's root — subtree-scoped cursors are a future
// extension.
func (ts *TreeStore) NewCursorAt(path string) (*Cursor, error) {
	if path != ts.rootPath {
		return nil, ErrNotSupported
	}
	return newCursor(ts), nil
}

// ReadView returns the thread-safe read side of the store.
func (ts *TreeStore) ReadView() *TreeReader { return &TreeReader{ts: ts} }

// RecordIndexed adds n to the files_indexed diagnostic counter. Called by
// an Indexer with the number of entries it has just committed; safe to
// call from any goroutine.
func (ts *TreeStore) RecordIndexed(n uint64) { ts.filesIndexed.Add(n) }

// Stats reports the store's diagnostics surface.
func (ts *TreeStore) Stats() Stats {
	return Stats{
		FilesIndexed:   ts.filesIndexed.Load(),
		PagesCommitted: uint32(ts.ps.Extent()),
	}
}

// Close releases the underlying address-space reservation.
func (ts *TreeStore) Close() error { return ts.ps.Close() }

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
