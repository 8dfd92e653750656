package blockgate

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

var (
	// ErrNotFound is returned when a block is absent: the index has no
	// location for it, or none of its ranges yielded the block.
	ErrNotFound = errors.New("block not found")

	// ErrClosed is returned by Get after Close.
	ErrClosed = errors.New("blockstore closed")

	// ErrHashMismatch is returned when decoded bytes do not hash to their CID.
	ErrHashMismatch = errors.New("block hash mismatch")

	// errAbortCycle stops every group of the current drain cycle.
	errAbortCycle = errors.New("drain cycle aborted")
)

// IndexError indicates that the location index could not be queried.
//
// The underlying error can be accessed via errors.Unwrap.
type IndexError struct {
	CID   cid.Cid
	cause error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index lookup for %s: %v", e.CID, e.cause)
}

func (e *IndexError) Unwrap() error { return e.cause }
