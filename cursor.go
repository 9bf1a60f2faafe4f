package chonk

// Debug gates the backtrack name-equality assertion: backtrack with a
// mismatched name is undefined for correct callers and is only worth
// detecting in debug builds. Off by default so a release build doesn't pay
// a string comparison on every backtrack of a deep tree; a correct Indexer
// never trips it either way.
var Debug = false

// Cursor is the single-writer walk state: the heart of the system. It
// points at a current node, its parent, the freshly allocated children
// slab, and the walk depth.
//
// Ancestor chain is not kept as a Go-level stack: each Entry's own parent
// field already encodes it permanently once written, so backtrack recovers
// the grandparent by reading parent.Parent() straight out of the store.
type Cursor struct {
	ts *TreeStore

	parent EntryRef
	cur    EntryRef

	// children describes the slab bound to cur by ChildrenBegin, or the
	// zero value if cur has no slab bound yet.
	childrenStart uint32
	childrenCount uint32
	childrenNext  uint32

	bound        bool // ChildrenBegin has been called for cur
	childrenEnded bool // ChildrenEnd has been called for cur

	depth int
}

func newCursor(ts *TreeStore) *Cursor {
	root := ts.Root()
	return &Cursor{
		ts:     ts,
		parent: root,
		cur:    root,
		depth:  0,
	}
}

// Cur returns the node the cursor currently sits at.
func (c *Cursor) Cur() EntryRef { return c.cur }

// Parent returns cur's parent. For the root, this equals Cur().
func (c *Cursor) Parent() EntryRef { return c.parent }

// Depth returns the walk depth; root is 0.
func (c *Cursor) Depth() int { return c.depth }

// ChildWriter exposes the mutable fields of a child entry returned by
// ChildInit, for the Indexer (a separate package) to fill in from
// filesystem metadata.
type ChildWriter struct{ e rawEntry }

func (w ChildWriter) SetKind(k Kind)         { w.e.setKind(k) }
func (w ChildWriter) SetName(name string) error { return w.e.setName(name) }
func (w ChildWriter) SetByteCount(v uint64)  { w.e.setByteCount(v) }
func (w ChildWriter) SetBlockCount(v uint64) { w.e.setBlockCount(v) }
func (w ChildWriter) SetMtime(v uint64)      { w.e.setMtime(v) }
func (w ChildWriter) SetInode(v uint32)      { w.e.setInode(v) }
func (w ChildWriter) Kind() Kind             { return w.e.KindField() }
func (w ChildWriter) Name() string           { return w.e.Name() }

// ChildrenBegin allocates a child slab of count entries and binds it to
// cur. Precondition: no slab bound yet for cur. count == 0 binds an empty
// children list without consuming any EntryPool capacity: an empty
// directory's children_start stays 0. Publication is left to ChildrenEnd.
func (c *Cursor) ChildrenBegin(count uint32) error {
	if c.bound {
		panic("chonk: ChildrenBegin called twice for the same node")
	}
	cur := c.ts.entryAt(c.cur)

	if count == 0 {
		cur.setChildren(0, 0)
		c.childrenStart, c.childrenCount, c.childrenNext = 0, 0, 0
		c.bound, c.childrenEnded = true, false
		return nil
	}

	start, err := c.ts.pool.Alloc(count)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		child := c.ts.pool.Get(start + i)
		child.zero()
		child.setLockThis(1)
	}
	cur.setChildren(start, count)
	c.childrenStart, c.childrenCount, c.childrenNext = start, count, 0
	c.bound, c.childrenEnded = true, false
	return nil
}

// ChildInit returns a writer for the next uninitialized child slot. It
// does not advance; call ChildFinish to commit and move to the next slot.
func (c *Cursor) ChildInit() ChildWriter {
	if !c.bound || c.childrenNext >= c.childrenCount {
		panic("chonk: ChildInit called with no pending child slot")
	}
	idx := c.childrenStart + c.childrenNext
	child := c.ts.pool.Get(idx)
	child.setParent(c.cur.idx)
	return ChildWriter{e: child}
}

// ChildFinish commits the entry last returned by ChildInit: non-directory
// children propagate their byte/block counts into cur and are published
// immediately; directory children stay unpublished until their own
// ChildrenEnd/Backtrack. Always advances childrenNext.
func (c *Cursor) ChildFinish() {
	if !c.bound || c.childrenNext >= c.childrenCount {
		panic("chonk: ChildFinish called with no pending child slot")
	}
	idx := c.childrenStart + c.childrenNext
	child := c.ts.pool.Get(idx)
	if child.KindField() != KindDir {
		cur := c.ts.entryAt(c.cur)
		cur.addByteCount(child.ByteCount())
		cur.addBlockCount(child.BlockCount())
		child.publish()
	}
	c.childrenNext++
}

// ChildrenEnd asserts every child slot was committed, then publishes cur.
func (c *Cursor) ChildrenEnd() error {
	if !c.bound {
		panic("chonk: ChildrenEnd called before ChildrenBegin")
	}
	if c.childrenNext != c.childrenCount {
		return ErrNotFullyInited
	}
	c.ts.entryAt(c.cur).publish()
	c.childrenEnded = true
	return nil
}

// RecurseInto descends into the child directory named name. Precondition:
// cur's own children are fully initialized and ChildrenEnd has run.
func (c *Cursor) RecurseInto(name string) error {
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	if !c.childrenEnded {
		panic("chonk: RecurseInto called before ChildrenEnd")
	}

	var found bool
	var idx uint32
	for i := uint32(0); i < c.childrenCount; i++ {
		child := c.ts.pool.Get(c.childrenStart + i)
		if child.Name() == name {
			found, idx = true, c.childrenStart+i
			break
		}
	}
	if !found {
		return ErrChildNotFound
	}
	child := c.ts.pool.Get(idx)
	if child.KindField() != KindDir {
		return ErrNotDirectory
	}

	c.parent = c.cur
	c.cur = EntryRef{idx: idx}
	c.childrenStart, c.childrenCount, c.childrenNext = 0, 0, 0
	c.bound, c.childrenEnded = false, false
	c.depth++
	return nil
}

// Backtrack moves the cursor back up to cur's parent. When Debug is set it
// asserts that the parent's own name equals name. Precondition: cur's children are fully
// enumerated (childrenNext == childrenCount), which ChildrenEnd leaves
// true even for an empty directory.
func (c *Cursor) Backtrack(name string) error {
	if !c.childrenEnded {
		panic("chonk: Backtrack called before ChildrenEnd")
	}

	parentEntry := c.ts.entryAt(c.parent)
	if Debug && parentEntry.Name() != name {
		panic("chonk: Backtrack name does not match current parent")
	}

	curEntry := c.ts.entryAt(c.cur)
	parentEntry.addByteCount(curEntry.ByteCount())
	parentEntry.addBlockCount(curEntry.BlockCount())
	curEntry.publish()

	grandparentIdx := parentEntry.Parent()
	newCur := c.parent
	newParent := EntryRef{idx: grandparentIdx}

	newCurEntry := c.ts.entryAt(newCur)
	c.cur = newCur
	c.parent = newParent
	c.childrenStart = newCurEntry.ChildrenStart()
	c.childrenCount = newCurEntry.ChildrenCount()
	c.childrenNext = c.childrenCount
	c.bound = true
	c.childrenEnded = true
	c.depth--
	return nil
}
