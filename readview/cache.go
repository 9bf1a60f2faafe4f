package readview

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/probably-neb/chonk"
)

// Cache is a bounded cache of the last N sorted children_of results, keyed
// by EntryRef. A directory's result is cacheable the instant it is Ready,
// since its name/kind/count list is then permanently frozen — only the
// byte/block aggregates of still-growing subtrees may lag, which readers
// already tolerate.
type Cache struct {
	lru *lru.Cache[chonk.EntryRef, []chonk.ChildRecord]
}

// NewCache builds a cache holding up to size directory results.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[chonk.EntryRef, []chonk.ChildRecord](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

func (c *Cache) get(ref chonk.EntryRef) ([]chonk.ChildRecord, bool) {
	return c.lru.Get(ref)
}

func (c *Cache) put(ref chonk.EntryRef, children []chonk.ChildRecord) {
	c.lru.Add(ref, children)
}

// Purge evicts every cached entry, for a UI that wants to force a full
// re-read (e.g. after the indexer reports completion).
func (c *Cache) Purge() { c.lru.Purge() }
