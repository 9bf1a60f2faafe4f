package chonk

// PageStore reserves a large, fixed-address contiguous byte extent and
// commits pages into it lazily as the tree grows. Addresses handed out by
// EntryPool are indices into this extent and stay valid for the PageStore's
// entire lifetime: growth never remaps, so Entry references by index are
// never invalidated while a reader holds one.
type PageStore struct {
	pageSize int

	// headerPages is the header region holding store metadata, the root
	// path, and the reserved root Entry slot.
	headerPages int

	backing pageBacking

	// committedPages is the current extent(), i.e. how many pages (from
	// page 0) are readable/writable right now.
	committedPages int

	// maxPages is the largest extent the reservation can ever grow to.
	maxPages int
}

// pageBacking is the OS-specific half of PageStore: reserve a range without
// committing it, then commit a prefix of pages on demand. See
// pagestore_unix.go (mmap + mprotect, grounded in the mmap-backed arena
// pattern used across the pack's embedded-database engines, e.g.
// Giulio2002/gdbx's Env/mmap.Map) and pagestore_fallback.go (a plain
// pre-committed []byte for platforms without that syscall surface).
type pageBacking interface {
	// bytes returns the full reserved extent as a byte slice; bytes beyond
	// committedPages*pageSize must not be touched until committed.
	bytes() []byte
	// commit ensures the first n pages are readable/writable.
	commit(pageSize, n int) error
	// close releases the reservation.
	close() error
}

// NewPageStore reserves reservedBytes worth of address space (rounded up to
// a whole number of pages) and commits the first headerPages pages.
// headerPages must be at least 2: TreeStore keeps its metadata and the root
// path in page 0 and the root Entry in the last EntrySize bytes of the
// header region.
func NewPageStore(reservedBytes int, headerPages int, pageSize int) (*PageStore, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize()
	}
	if headerPages < 2 {
		headerPages = 2
	}
	maxPages := (reservedBytes + pageSize - 1) / pageSize
	if maxPages < headerPages {
		maxPages = headerPages
	}

	backing, err := newPageBacking(maxPages * pageSize)
	if err != nil {
		return nil, ErrOutOfAddressSpace
	}

	ps := &PageStore{
		pageSize:    pageSize,
		headerPages: headerPages,
		backing:     backing,
		maxPages:    maxPages,
	}
	if err := ps.GrowTo(headerPages); err != nil {
		backing.close()
		return nil, err
	}
	return ps, nil
}

// GrowTo ensures the first `pages` pages are committed. It is idempotent:
// calling it with a value <= the current extent is a no-op.
func (ps *PageStore) GrowTo(pages int) error {
	if pages <= ps.committedPages {
		return nil
	}
	if pages > ps.maxPages {
		return ErrOutOfCapacity
	}
	if err := ps.backing.commit(ps.pageSize, pages); err != nil {
		return ErrOutOfCapacity
	}
	ps.committedPages = pages
	return nil
}

// Extent returns the current committed page count.
func (ps *PageStore) Extent() int { return ps.committedPages }

// MaxPages returns the largest extent this reservation can grow to.
func (ps *PageStore) MaxPages() int { return ps.maxPages }

// PageSize returns the page size this store was configured with.
func (ps *PageStore) PageSize() int { return ps.pageSize }

// HeaderPages returns H, the number of committed pages reserved for store
// metadata ahead of the entry array.
func (ps *PageStore) HeaderPages() int { return ps.headerPages }

// BytesAt returns a byte slice of length len inside the committed region,
// starting at the given page index.
func (ps *PageStore) BytesAt(pageIndex, length int) []byte {
	start := pageIndex * ps.pageSize
	return ps.backing.bytes()[start : start+length]
}

// Close releases the backing reservation, so tests and long-running CLI
// processes don't leak address space across repeated NewTreeStore calls.
func (ps *PageStore) Close() error {
	return ps.backing.close()
}

func defaultPageSize() int {
	if sz := osPageSize(); sz > 0 {
		return sz
	}
	return 4096
}
