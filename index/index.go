package index

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// MaxLocations is the maximum number of candidate locations returned for a
// single CID.
const MaxLocations = 3

// Index maps a CID to its candidate locations.
//
// Get returns an empty slice (and no error) when the CID is unknown.
// Implementations must be safe for concurrent use.
type Index interface {
	Get(ctx context.Context, c cid.Cid) ([]Location, error)
}

// MemoryIndex is an in-memory Index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string][]Location
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string][]Location),
	}
}

// Put appends locations for c.
func (m *MemoryIndex) Put(c cid.Cid, locs ...Location) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := KeyOf(c)
	m.entries[key] = append(m.entries[key], locs...)
}

// Get implements Index.
func (m *MemoryIndex) Get(ctx context.Context, c cid.Cid) ([]Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	locs := m.entries[KeyOf(c)]
	if len(locs) > MaxLocations {
		locs = locs[:MaxLocations]
	}

	// Copy to prevent external mutation
	out := make([]Location, len(locs))
	copy(out, locs)
	return out, nil
}
