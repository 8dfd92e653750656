package blockgate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/blockgate/batch"
	"github.com/hupe1980/blockgate/blobstore"
	"github.com/hupe1980/blockgate/index"
	"github.com/ipfs/go-cid"
)

// Block is a fetched block.
type Block struct {
	CID  cid.Cid
	Data []byte
}

type result struct {
	data  []byte
	found bool
}

// Blockstore fetches blocks by CID from packed containers in regional object
// stores. Concurrent Get calls are coalesced into drain cycles that issue one
// ranged read per container object.
//
// Blockstore is safe for concurrent use.
type Blockstore struct {
	idx     index.Index
	regions blobstore.Regions
	opts    options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	batcher   *batch.Batcher
	pending   map[string][]chan<- result
	scheduled bool
	running   bool
	closed    bool
}

// New creates a Blockstore that looks up locations in idx and reads
// containers from regions.
func New(idx index.Index, regions blobstore.Regions, optFns ...Option) *Blockstore {
	opts := applyOptions(optFns)

	ctx, cancel := context.WithCancel(context.Background())

	return &Blockstore{
		idx:     idx,
		regions: blobstore.Limit(regions, opts.controller),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		batcher: batch.New(opts.selector),
		pending: make(map[string][]chan<- result),
	}
}

// Get returns the block identified by c.
//
// It returns ErrNotFound if the index has no location for c or none of the
// chosen ranges contains it, an *IndexError if the index lookup fails, and
// ErrClosed once the blockstore is closed. Every lookup starts fresh: results
// are never cached across calls.
//
// Concurrent callers asking for the same block share the returned Data, which
// must not be modified.
func (bs *Blockstore) Get(ctx context.Context, c cid.Cid) (Block, error) {
	start := time.Now()

	blk, err := bs.get(ctx, c)

	merr := err
	if errors.Is(err, ErrNotFound) {
		merr = nil
	}
	bs.opts.metricsCollector.RecordGet(time.Since(start), err == nil, merr)
	bs.opts.logger.LogGet(ctx, c, len(blk.Data), err)

	return blk, err
}

func (bs *Blockstore) get(ctx context.Context, c cid.Cid) (Block, error) {
	if bs.isClosed() {
		return Block{}, ErrClosed
	}

	all, err := bs.idx.Get(ctx, c)
	if err != nil {
		return Block{}, &IndexError{CID: c, cause: err}
	}
	locs := batch.ValidLocations(all)
	if n := len(all) - len(locs); n > 0 {
		bs.opts.logger.WithCID(c).WarnContext(ctx, "ignoring invalid locations", "count", n)
	}
	if len(locs) == 0 {
		return Block{}, ErrNotFound
	}

	ch := make(chan result, 1)
	key := index.KeyOf(c)

	bs.mu.Lock()
	if bs.closed {
		bs.mu.Unlock()
		return Block{}, ErrClosed
	}
	bs.pending[key] = append(bs.pending[key], ch)
	bs.batcher.Add(c, locs)
	bs.scheduleLocked()
	bs.mu.Unlock()

	select {
	case res := <-ch:
		if !res.found {
			return Block{}, ErrNotFound
		}
		return Block{CID: c, Data: res.data}, nil
	case <-ctx.Done():
		return Block{}, ctx.Err()
	case <-bs.ctx.Done():
		return Block{}, ErrClosed
	}
}

// Close stops scheduling drain cycles, aborts the running one and waits for
// it to finish. Pending and later Get calls return ErrClosed.
func (bs *Blockstore) Close() error {
	bs.mu.Lock()
	if bs.closed {
		bs.mu.Unlock()
		return nil
	}
	bs.closed = true
	bs.mu.Unlock()

	bs.cancel()
	bs.wg.Wait()

	return nil
}

func (bs *Blockstore) isClosed() bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.closed
}

// pendingCount returns the number of callers waiting for the next drain cycle.
func (bs *Blockstore) pendingCount() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	n := 0
	for _, waiters := range bs.pending {
		n += len(waiters)
	}
	return n
}

// scheduleLocked makes sure a drain cycle picks up the current batcher.
// A running cycle respawns itself when it finishes.
func (bs *Blockstore) scheduleLocked() {
	if bs.scheduled {
		return
	}
	bs.scheduled = true
	if bs.running {
		return
	}
	bs.spawnLocked()
}

func (bs *Blockstore) spawnLocked() {
	if bs.closed {
		return
	}
	bs.wg.Add(1)
	bs.opts.schedule(bs.drain)
}
