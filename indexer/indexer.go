// Package indexer drives a chonk.Cursor across a real filesystem subtree.
// It is the only part of chonk-core that touches the OS: directory
// enumeration, stat, and readlink calls live here, translated into
// preorder/child-list/postorder cursor calls.
package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/probably-neb/chonk"
	"github.com/probably-neb/chonk/internal/batch"
)

// rateWindow is the number of tick samples the moving average smooths
// over for the files/sec diagnostic.
const rateWindow = 30

// wideDirChunk bounds how many children are committed to the cursor
// between cooperative cancellation checks, so a single very wide
// directory can't starve ctx cancellation polling.
const wideDirChunk = 4096

// Stats is the Indexer's diagnostics surface: the core counters from
// TreeStore.Stats() plus a smoothed throughput rate.
type Stats struct {
	FilesIndexed   uint64
	PagesCommitted uint32
	RatePerSecond  float64
}

// Indexer walks a filesystem subtree into a chonk.TreeStore. One Indexer
// drives exactly one Cursor; Walk is single-shot.
type Indexer struct {
	ts *chonk.TreeStore

	mu       sync.Mutex
	rate     *movingaverage.MovingAverage
	lastTick time.Time
}

// New returns an Indexer that will populate ts.
func New(ts *chonk.TreeStore) *Indexer {
	return &Indexer{ts: ts, rate: movingaverage.New(rateWindow), lastTick: time.Now()}
}

// Walk starts walking rootPath (which must equal ts.RootPath()) into the
// cursor's tree. It returns a channel closed exactly once, when the walk
// finishes or is aborted, and an error only for synchronous setup
// failures (cursor acquisition).
func (ix *Indexer) Walk(ctx context.Context, rootPath string) (<-chan struct{}, error) {
	cur, err := ix.ts.NewCursorAt(rootPath)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		return ix.indexDir(ctx, cur, rootPath, "")
	})

	go func() {
		if err := g.Wait(); err != nil {
			klog.Warningf("chonk: walk of %s ended early: %v", rootPath, err)
		}
	}()
	return done, nil
}

// indexDir enumerates dirPath (whose entry the cursor is currently
// sitting at, reached via name — "" for the root) and recurses into its
// subdirectories.
func (ix *Indexer) indexDir(ctx context.Context, cur *chonk.Cursor, dirPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		// A directory we can't even list is a filesystem error, not a core
		// error: it is walked as if it had no children.
		klog.V(1).Infof("chonk: readdir %s: %v", dirPath, err)
		entries = nil
	}

	n := uint32(len(entries))
	if err := cur.ChildrenBegin(n); err != nil {
		klog.Errorf("chonk: children_begin(%d) at %s: %v", n, dirPath, err)
		return err
	}

	type subdir struct{ name, path string }
	var subdirs []subdir
	var commitErr error

	chunk := int(n)
	if chunk > wideDirChunk || chunk == 0 {
		chunk = wideDirChunk
	}
	bt := batch.NewBatcher(chunk, time.Hour, func(visits []batch.ChildVisit) {
		if commitErr != nil {
			return
		}
		for _, v := range visits {
			w := cur.ChildInit()
			w.SetKind(v.Kind)
			// v.Name is already capped to chonk.MaxNameLen by classify, so
			// this can only fail on a programmer error upstream.
			if err := w.SetName(v.Name); err != nil {
				commitErr = err
				return
			}
			w.SetByteCount(v.ByteCount)
			w.SetBlockCount(v.BlockCount)
			w.SetMtime(v.Mtime)
			w.SetInode(v.Inode)
			cur.ChildFinish()
			if v.Kind == chonk.KindDir {
				subdirs = append(subdirs, subdir{name: v.Name, path: filepath.Join(dirPath, v.Name)})
			}
		}
		ix.tick(uint64(len(visits)))
	})

	for _, de := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := bt.Push(ctx, ix.classify(dirPath, de)); err != nil {
			klog.Errorf("chonk: batch push at %s: %v", dirPath, err)
		}
	}
	if err := bt.Close(ctx); err != nil {
		klog.Errorf("chonk: batch close at %s: %v", dirPath, err)
	}
	if commitErr != nil {
		return commitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := cur.ChildrenEnd(); err != nil {
		klog.Errorf("chonk: children_end at %s: %v", dirPath, err)
		return err
	}

	for _, sd := range subdirs {
		if ctx.Err() != nil {
			break
		}
		if err := cur.RecurseInto(sd.name); err != nil {
			klog.Errorf("chonk: recurse_into(%s) at %s: %v", sd.name, dirPath, err)
			return err
		}
		if err := ix.indexDir(ctx, cur, sd.path, sd.name); err != nil {
			return err
		}
		if err := cur.Backtrack(name); err != nil {
			klog.Errorf("chonk: backtrack(%q) at %s: %v", name, dirPath, err)
			return err
		}
	}
	return nil
}

// classify turns one directory entry into a ChildVisit rather than failing
// the walk on filesystem errors: an entry whose lstat fails becomes kind =
// unknown, and a symlink whose target cannot be stat'ed stays kind =
// link_soft with zero sizes.
func (ix *Indexer) classify(dirPath string, de os.DirEntry) batch.ChildVisit {
	name := de.Name()
	if len(name) > chonk.MaxNameLen {
		name = name[:chonk.MaxNameLen]
	}
	full := filepath.Join(dirPath, de.Name())

	info, err := os.Lstat(full)
	if err != nil {
		klog.V(1).Infof("chonk: lstat %s: %v", full, err)
		return batch.ChildVisit{Name: name, Kind: chonk.KindUnknown}
	}

	switch mode := info.Mode(); {
	case mode&os.ModeSymlink != 0:
		if target, err := os.Stat(full); err != nil {
			klog.V(1).Infof("chonk: unreadable symlink target %s: %v", full, err)
			return batch.ChildVisit{Name: name, Kind: chonk.KindLinkSoft}
		} else {
			bc := uint64(target.Size())
			return batch.ChildVisit{
				Name: name, Kind: chonk.KindLinkSoft,
				ByteCount: bc, BlockCount: blockCount(bc),
				Mtime: uint64(info.ModTime().Unix()),
			}
		}
	case mode.IsDir():
		return batch.ChildVisit{Name: name, Kind: chonk.KindDir, Mtime: uint64(info.ModTime().Unix())}
	default:
		bc := uint64(info.Size())
		return batch.ChildVisit{
			Name: name, Kind: chonk.KindFile,
			ByteCount: bc, BlockCount: blockCount(bc),
			Mtime: uint64(info.ModTime().Unix()),
		}
	}
}

// blockCount approximates 512-byte block usage from apparent size. Real
// block counts (sparse files, filesystem-specific allocation) would need
// a syscall.Stat_t type assertion per platform; this core keeps that
// ambient concern out of indexer and derives blocks from the same
// apparent size that byte_count records.
func blockCount(byteCount uint64) uint64 {
	return (byteCount + 511) / 512
}

// tick records n newly committed entries for the diagnostics rate.
func (ix *Indexer) tick(n uint64) {
	ix.ts.RecordIndexed(n)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	now := time.Now()
	if elapsed := now.Sub(ix.lastTick).Seconds(); elapsed > 0 {
		ix.rate.Add(float64(n) / elapsed)
	}
	ix.lastTick = now
}

// Stats reports the Indexer's view of progress, safe to call from any
// goroutine while Walk is in flight.
func (ix *Indexer) Stats() Stats {
	core := ix.ts.Stats()
	ix.mu.Lock()
	rate := ix.rate.Avg()
	ix.mu.Unlock()
	return Stats{
		FilesIndexed:   core.FilesIndexed,
		PagesCommitted: core.PagesCommitted,
		RatePerSecond:  rate,
	}
}
