// Package batch coalesces per-child filesystem visit events before they
// are drained into Cursor calls, so enumerating one pathological
// directory with hundreds of thousands of children doesn't hold the
// single writer goroutine in one uninterrupted loop with no scheduler
// yield point. It never changes cursor semantics: children_begin is
// still called exactly once per directory with the full child count, and
// every child still goes through exactly one child_init/child_finish
// pair — the buffer only governs how many of those pairs run before the
// goroutine yields.
package batch

import (
	"context"
	"time"

	gobuffer "github.com/globocom/go-buffer"

	"github.com/probably-neb/chonk"
)

// ChildVisit is one filesystem child discovered while enumerating a
// directory, queued up for the writer to hand to the cursor.
type ChildVisit struct {
	Name       string
	Kind       chonk.Kind
	ByteCount  uint64
	BlockCount uint64
	Mtime      uint64
	Inode      uint32
}

// Batcher buffers ChildVisit values and calls Drain in chunks, by count or
// by age, whichever comes first.
type Batcher struct {
	buf *gobuffer.Buffer
}

// NewBatcher builds a Batcher that flushes after size items or interval,
// whichever happens first, invoking drain with each flushed chunk in
// order. interval should be set far longer than any real walk (indexer
// passes time.Hour) so every flush is size-triggered and therefore runs
// synchronously inside Push/Close on the caller's own goroutine — this is
// what lets drain call straight into a single-writer Cursor without its
// own locking.
func NewBatcher(size int, interval time.Duration, drain func([]ChildVisit)) *Batcher {
	pusher := gobuffer.PusherFunc(func(_ context.Context, items []interface{}) error {
		chunk := make([]ChildVisit, len(items))
		for i, it := range items {
			chunk[i] = it.(ChildVisit)
		}
		drain(chunk)
		return nil
	})
	buf := gobuffer.New(
		gobuffer.WithSize(size),
		gobuffer.WithFlushInterval(interval),
		gobuffer.WithPusher(pusher),
	)
	return &Batcher{buf: buf}
}

// Push queues v, flushing synchronously if the buffer is now full.
func (b *Batcher) Push(ctx context.Context, v ChildVisit) error {
	return b.buf.Push(ctx, v)
}

// Close flushes any remaining buffered items.
func (b *Batcher) Close(ctx context.Context) error {
	return b.buf.Close(ctx)
}
