package chonk

// EntryPool is a typed view over PageStore: a logical array of EntrySize
// records starting right after the header pages. It is a pure bump
// allocator — no deallocation, no compaction. Entries are never freed or
// moved once allocated.
type EntryPool struct {
	ps             *PageStore
	entriesPerPage uint32

	// nextIndex is the next entry index available for allocation. It is
	// always a multiple of entriesPerPage between calls to Alloc: every
	// slab begins at a page-aligned entry index, so a new Alloc always
	// starts a fresh page even if the previous slab did not fill one.
	nextIndex uint32
}

// NewEntryPool creates an EntryPool addressing the pages of ps beyond its
// header region.
func NewEntryPool(ps *PageStore) *EntryPool {
	perPage := uint32(ps.PageSize() / EntrySize)
	if perPage == 0 {
		panic("chonk: page size smaller than EntrySize")
	}
	return &EntryPool{ps: ps, entriesPerPage: perPage}
}

// Alloc bump-allocates a page-aligned run of `count` entries and returns
// the starting entry index. Only the single writer thread may call this;
// it is the only EntryPool method that mutates the extent.
//
// count == 0 is a distinct case the caller must special-case itself: an
// empty directory's children_start must be 0, not a fresh allocation, so
// Alloc is never called with count == 0 by Cursor.
func (p *EntryPool) Alloc(count uint32) (start uint32, err error) {
	if count == 0 {
		panic("chonk: EntryPool.Alloc called with count == 0")
	}

	// Round up to the next page boundary if the previous slab left a
	// partial page behind.
	if rem := p.nextIndex % p.entriesPerPage; rem != 0 {
		p.nextIndex += p.entriesPerPage - rem
	}
	start = p.nextIndex

	pagesNeeded := (count + p.entriesPerPage - 1) / p.entriesPerPage
	endIndex := start + pagesNeeded*p.entriesPerPage

	lastEntryPage := endIndex / p.entriesPerPage
	neededPages := p.ps.HeaderPages() + int(lastEntryPage)
	if err := p.ps.GrowTo(neededPages); err != nil {
		return 0, err
	}

	p.nextIndex = endIndex
	return start, nil
}

// Get returns a rawEntry view of the entry at index. index must already
// have been returned (directly or via a slab range) by a prior Alloc.
func (p *EntryPool) Get(index uint32) rawEntry {
	entryPage := index / p.entriesPerPage
	within := index % p.entriesPerPage
	absPage := p.ps.HeaderPages() + int(entryPage)
	off := int(within) * EntrySize
	buf := p.ps.backing.bytes()[absPage*p.ps.PageSize()+off : absPage*p.ps.PageSize()+off+EntrySize]
	return newRawEntry(buf)
}

// Slice returns a view over count consecutive entries starting at start.
// The caller must not hold onto the result across another Alloc call that
// could grow the store non-contiguously with respect to this slab — in
// practice slabs never move, so this is only a convenience, not a
// correctness requirement.
func (p *EntryPool) Slice(start, count uint32) []rawEntry {
	out := make([]rawEntry, count)
	for i := uint32(0); i < count; i++ {
		out[i] = p.Get(start + i)
	}
	return out
}

// Len returns the number of entries allocated so far (including
// page-alignment padding that was never logically used).
func (p *EntryPool) Len() uint32 { return p.nextIndex }
