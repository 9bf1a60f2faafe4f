package chonk

import "errors"

// Capacity-exhaustion errors: the current walk is abandoned, but
// already-published subtrees remain valid and readable.
var (
	ErrOutOfAddressSpace = errors.New("chonk: address space reservation failed")
	ErrOutOfCapacity     = errors.New("chonk: reserved capacity exhausted")
)

// Programmer errors: a correct Indexer never triggers these.
var (
	ErrNameTooLong    = errors.New("chonk: name exceeds 255 bytes")
	ErrNotDirectory   = errors.New("chonk: recurse_into target is not a directory")
	ErrChildNotFound  = errors.New("chonk: no child with that name")
	ErrNotSupported   = errors.New("chonk: operation not supported")
	ErrWrongPath      = errors.New("chonk: cursor requested for a path other than the tree root")
	ErrAlreadyBound   = errors.New("chonk: children_begin called twice for the same node")
	ErrNotFullyInited = errors.New("chonk: children_end called before every child was initialized")
	ErrBacktrackName  = errors.New("chonk: backtrack name does not match current parent")
)
