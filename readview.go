package chonk

// ReadStatus is the three-way result of ChildrenOf: the caller must be
// able to tell "no children" apart from "children exist but are not all
// visible yet".
type ReadStatus int

const (
	Ready ReadStatus = iota
	NotReady
	Empty
)

func (s ReadStatus) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not_ready"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// ChildRecord is one row of a children_of result: a name, its kind, its
// (possibly still-growing, for directories) size aggregates, and a ref a
// caller can recurse into.
type ChildRecord struct {
	Name       string
	Kind       Kind
	ByteCount  uint64
	BlockCount uint64
	Ref        EntryRef
}

// TreeReader is the unsorted, uncached read side of a TreeStore: just the
// acquire-load protocol, nothing more. The readview package wraps this
// with sorting and an optional cache for a UI to consume.
type TreeReader struct {
	ts *TreeStore
}

// Root returns a handle to the tree root.
func (r *TreeReader) Root() EntryRef { return r.ts.Root() }

// ChildrenOf fills in the current child list of ref. It never blocks: it
// either returns every child (Ready), reports the directory has none
// (Empty), or bails out entirely the moment any child isn't yet visible
// (NotReady) — a partial list is never returned: if one child is visible,
// every sibling's name and kind must be too.
func (r *TreeReader) ChildrenOf(ref EntryRef) ([]ChildRecord, ReadStatus) {
	e := r.ts.entryAt(ref)
	// The acquire load of E's own lock_this is the synchronization point:
	// once it reads 0, every write the producer made before its matching
	// release store — including children_start/children_count — is visible
	// to this goroutine, so the two plain reads below are safe.
	if e.LockThis() != 0 {
		return nil, NotReady
	}
	count := e.ChildrenCount()
	if count == 0 {
		return nil, Empty
	}
	start := e.ChildrenStart()

	out := make([]ChildRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		child := r.ts.pool.Get(start + i)
		if child.LockThis() != 0 {
			return nil, NotReady
		}
		out = append(out, ChildRecord{
			Name:       child.Name(),
			Kind:       child.KindField(),
			ByteCount:  child.ByteCount(),
			BlockCount: child.BlockCount(),
			Ref:        EntryRef{idx: start + i},
		})
	}
	return out, Ready
}
