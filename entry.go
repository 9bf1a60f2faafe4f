package chonk

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/NebulousLabs/Sia/build"
)

// Kind classifies the filesystem object an Entry represents.
type Kind uint8

const (
	KindDir Kind = iota
	KindFile
	KindLinkSoft
	KindLinkHard
	KindUnknown
)

// String implements fmt.Stringer for diagnostics and test failure messages.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindLinkSoft:
		return "link_soft"
	case KindLinkHard:
		return "link_hard"
	default:
		return "unknown"
	}
}

// Record layout. Entry is a fixed EntrySize-byte record, field-packed to
// byte alignment so it can eventually be written verbatim to disk without a
// format change. lock_this is kept alone in its own 4-byte-aligned word
// (offLockThis..+3) so it can be read/written with sync/atomic without
// racing against any other field's plain byte writes; the three bytes
// following it are unused padding rather than packed in with kind/
// name_len, which are relocated a few bytes later in the reserved region
// instead. This shrinks "reserved" from 212 to 209 bytes; the record is
// still 512 bytes and every named field still exists with the same
// meaning.
const (
	EntrySize = 512

	// MaxNameLen is the longest basename an Entry can hold.
	MaxNameLen = 255
	nameCap    = 256

	offParent        = 0
	offChildrenStart = 4
	offChildrenCount = 8
	offInode         = 12
	offByteCount     = 16
	offBlockCount    = 24
	offMtime         = 32
	offLockThis      = 40 // isolated 4-byte word; only the low byte is meaningful
	offLockChild     = 44
	offKind          = 45
	offNameLen       = 46
	offReserved      = 47
	reservedSize     = 209
	offName          = offReserved + reservedSize // 256
)

func init() {
	if offName != 256 || offName+nameCap != EntrySize {
		panic("chonk: entry record layout does not sum to EntrySize")
	}
}

// RootIndex is the sentinel parent index meaning "this entry is the root".
const RootIndex uint32 = ^uint32(0)

// rawEntry is a view over a single EntrySize-byte record backed directly by
// EntryPool/PageStore memory. It is never copied: callers hold a rawEntry
// for exactly as long as they need to read or write fields, addressed in
// place rather than copied.
type rawEntry struct {
	buf []byte // exactly EntrySize bytes, aliasing pool memory
}

func newRawEntry(buf []byte) rawEntry {
	if len(buf) != EntrySize {
		panic("chonk: backing slice is not EntrySize bytes")
	}
	return rawEntry{buf: buf}
}

func addrOf(buf []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&buf[off])
}

func (e rawEntry) Parent() uint32 { return binary.LittleEndian.Uint32(e.buf[offParent:]) }

func (e rawEntry) setParent(v uint32) { binary.LittleEndian.PutUint32(e.buf[offParent:], v) }

func (e rawEntry) ChildrenStart() uint32 {
	return binary.LittleEndian.Uint32(e.buf[offChildrenStart:])
}

func (e rawEntry) ChildrenCount() uint32 {
	return binary.LittleEndian.Uint32(e.buf[offChildrenCount:])
}

// setChildren is called exactly once per directory, by children_begin,
// while lock_this is still 1.
func (e rawEntry) setChildren(start, count uint32) {
	binary.LittleEndian.PutUint32(e.buf[offChildrenStart:], start)
	binary.LittleEndian.PutUint32(e.buf[offChildrenCount:], count)
}

func (e rawEntry) Inode() uint32     { return binary.LittleEndian.Uint32(e.buf[offInode:]) }
func (e rawEntry) setInode(v uint32) { binary.LittleEndian.PutUint32(e.buf[offInode:], v) }

// ByteCount loads the apparent-size counter with atomic ordering so a
// concurrent ReadView never observes a torn 64-bit value while the writer
// is still aggregating ancestors.
func (e rawEntry) ByteCount() uint64 {
	return atomic.LoadUint64((*uint64)(addrOf(e.buf, offByteCount)))
}

func (e rawEntry) setByteCount(v uint64) {
	atomic.StoreUint64((*uint64)(addrOf(e.buf, offByteCount)), v)
}

func (e rawEntry) addByteCount(delta uint64) {
	if delta == 0 {
		return
	}
	atomic.AddUint64((*uint64)(addrOf(e.buf, offByteCount)), delta)
}

func (e rawEntry) BlockCount() uint64 {
	return atomic.LoadUint64((*uint64)(addrOf(e.buf, offBlockCount)))
}

func (e rawEntry) setBlockCount(v uint64) {
	atomic.StoreUint64((*uint64)(addrOf(e.buf, offBlockCount)), v)
}

func (e rawEntry) addBlockCount(delta uint64) {
	if delta == 0 {
		return
	}
	atomic.AddUint64((*uint64)(addrOf(e.buf, offBlockCount)), delta)
}

func (e rawEntry) Mtime() uint64     { return binary.LittleEndian.Uint64(e.buf[offMtime:]) }
func (e rawEntry) setMtime(v uint64) { binary.LittleEndian.PutUint64(e.buf[offMtime:], v) }

// LockThis loads the publication flag with acquire ordering. 1 means the
// writer still owns the entry; 0 means it is published and safe to read.
func (e rawEntry) LockThis() uint8 {
	word := atomic.LoadUint32((*uint32)(addrOf(e.buf, offLockThis)))
	return uint8(word)
}

func (e rawEntry) setLockThis(v uint8) {
	atomic.StoreUint32((*uint32)(addrOf(e.buf, offLockThis)), uint32(v))
}

// publish clears lock_this with release ordering, after every other field
// has been written. Safe to call more than once: Backtrack re-publishes a
// node ChildrenEnd already published.
func (e rawEntry) publish() {
	e.setLockThis(0)
}

func (e rawEntry) KindField() Kind    { return Kind(e.buf[offKind]) }
func (e rawEntry) setKind(k Kind)     { e.buf[offKind] = byte(k) }
func (e rawEntry) NameLen() uint8     { return e.buf[offNameLen] }

// Name returns the valid portion of the name field as a string copy.
func (e rawEntry) Name() string {
	n := e.buf[offNameLen]
	return string(e.buf[offName : offName+int(n)])
}

func (e rawEntry) setName(name string) error {
	if len(name) > MaxNameLen {
		return build.ExtendErr("setName", ErrNameTooLong)
	}
	e.buf[offNameLen] = uint8(len(name))
	nameSlot := e.buf[offName : offName+nameCap]
	clear(nameSlot)
	copy(nameSlot, name)
	return nil
}

func (e rawEntry) zero() {
	clear(e.buf)
}
