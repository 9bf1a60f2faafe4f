//go:build linux || darwin || freebsd || netbsd || openbsd

package chonk

import (
	"os"

	"golang.org/x/sys/unix"
)

// unixBacking reserves address space with an anonymous PROT_NONE mapping
// and commits pages by widening the PROT_READ|PROT_WRITE window with
// mprotect, the same reserve-then-commit shape used by mmap-backed storage
// engines across the pack (e.g. Giulio2002/gdbx's mmap.Map, LMDB-style).
// The mapping's base address never changes, so indices handed out while the
// store was smaller stay valid as it grows.
type unixBacking struct {
	data []byte
}

func newPageBacking(totalBytes int) (pageBacking, error) {
	data, err := unix.Mmap(-1, 0, totalBytes, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &unixBacking{data: data}, nil
}

func (b *unixBacking) bytes() []byte { return b.data }

func (b *unixBacking) commit(pageSize, pages int) error {
	n := pages * pageSize
	if n > len(b.data) {
		n = len(b.data)
	}
	if n == 0 {
		return nil
	}
	return unix.Mprotect(b.data[:n], unix.PROT_READ|unix.PROT_WRITE)
}

func (b *unixBacking) close() error {
	if b.data == nil {
		return nil
	}
	err := unix.Munmap(b.data)
	b.data = nil
	return err
}

func osPageSize() int {
	return os.Getpagesize()
}
