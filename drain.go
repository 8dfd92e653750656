package blockgate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/blockgate/batch"
	"github.com/hupe1980/blockgate/blobstore"
	"github.com/hupe1980/blockgate/car"
	"github.com/hupe1980/blockgate/index"
	"github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"
)

// cycle holds the waiters of one drain cycle.
type cycle struct {
	mu      sync.Mutex
	pending map[string][]chan<- result
}

func (cy *cycle) wanted(key string) bool {
	cy.mu.Lock()
	defer cy.mu.Unlock()
	_, ok := cy.pending[key]
	return ok
}

// resolve delivers res to every waiter of key. It reports whether key was
// still pending.
func (cy *cycle) resolve(key string, res result) bool {
	cy.mu.Lock()
	waiters, ok := cy.pending[key]
	delete(cy.pending, key)
	cy.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
	return ok
}

// miss resolves every entry of group as not found.
func (cy *cycle) miss(group []batch.Entry) int {
	n := 0
	for _, e := range group {
		if cy.resolve(index.KeyOf(e.CID), result{}) {
			n++
		}
	}
	return n
}

// missAll resolves every remaining waiter as not found.
func (cy *cycle) missAll() int {
	cy.mu.Lock()
	pending := cy.pending
	cy.pending = make(map[string][]chan<- result)
	cy.mu.Unlock()

	for _, waiters := range pending {
		for _, ch := range waiters {
			ch <- result{}
		}
	}
	return len(pending)
}

func (bs *Blockstore) drain() {
	defer bs.wg.Done()

	bs.mu.Lock()
	bs.scheduled = false
	bs.running = true
	b := bs.batcher
	cy := &cycle{pending: bs.pending}
	bs.batcher = batch.New(bs.opts.selector)
	bs.pending = make(map[string][]chan<- result)
	bs.mu.Unlock()

	bs.processBatch(bs.ctx, b, cy)

	bs.mu.Lock()
	bs.running = false
	if bs.scheduled {
		bs.spawnLocked()
	}
	bs.mu.Unlock()
}

func (bs *Blockstore) processBatch(ctx context.Context, b *batch.Batcher, cy *cycle) {
	start := time.Now()

	blocks := b.Len()
	var groups [][]batch.Entry
	for g := b.Next(); g != nil; g = b.Next() {
		groups = append(groups, g)
	}

	bs.opts.logger.LogBatchStart(ctx, len(groups), blocks)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(bs.opts.groupConcurrency)

	var (
		mu      sync.Mutex
		missing int
	)
	for _, group := range groups {
		eg.Go(func() error {
			n, err := bs.processGroup(gctx, group, cy)
			mu.Lock()
			missing += n
			mu.Unlock()
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		bs.opts.logger.WarnContext(ctx, "batch aborted", "error", err)
	}

	// Requested but absent from every range read in this cycle.
	missing += cy.missAll()

	bs.opts.logger.LogBatch(ctx, len(groups), blocks, missing)
	bs.opts.metricsCollector.RecordBatch(len(groups), blocks, missing, time.Since(start))
}

// processGroup fetches and decodes the range spanning group. It returns the
// number of waiting CIDs it resolved as not found. Entries of a decoded range
// that were not found stay pending until the end of the cycle.
func (bs *Blockstore) processGroup(ctx context.Context, group []batch.Entry, cy *cycle) (int, error) {
	first := group[0]
	obj := first.Object()

	end := first.End()
	for _, e := range group[1:] {
		if e.End() > end {
			end = e.End()
		}
	}
	length := end - first.Offset

	logger := bs.opts.logger.WithObject(obj)

	if first.Offset < 0 || length < 0 {
		logger.WarnContext(ctx, "invalid container range", "offset", first.Offset, "length", length)
		return cy.miss(group), nil
	}

	if length == 0 {
		// Only empty blocks; nothing to read.
		for _, e := range group {
			bs.deliver(ctx, e.CID, []byte{}, cy)
		}
		return 0, nil
	}

	store, ok := bs.regions.Store(obj.Region)
	if !ok {
		logger.WarnContext(ctx, "no store for region")
		return cy.miss(group), nil
	}

	body, err := bs.readRange(ctx, store, obj, first.Offset, length)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			logger.WarnContext(ctx, "container range not found",
				"range", blobstore.RangeHeader(first.Offset, length),
			)
			if bs.opts.abortCycleOnMissingBody {
				return cy.missAll(), errAbortCycle
			}
		} else if ctx.Err() == nil {
			logger.ErrorContext(ctx, "ranged read failed",
				"range", blobstore.RangeHeader(first.Offset, length),
				"error", err,
			)
		}
		return cy.miss(group), nil
	}
	defer body.Close()

	if err := bs.decode(ctx, body, first, cy); err != nil && ctx.Err() == nil {
		logger.WarnContext(ctx, "malformed container",
			"range", blobstore.RangeHeader(first.Offset, length),
			"error", err,
		)
		bs.opts.metricsCollector.RecordMalformed(obj.Region)
	}

	return 0, nil
}

// readRange reads [off, off+length) of obj, retrying failures according to
// the retry policy. A missing object or an invalid range is not retried.
func (bs *Blockstore) readRange(ctx context.Context, store blobstore.RangeReader, obj index.Object, off, length int64) (io.ReadCloser, error) {
	policy := bs.opts.retry
	rng := blobstore.RangeHeader(off, length)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		body, err := store.ReadRange(ctx, obj.Bucket, obj.Key, off, length)
		if err == nil && body == nil {
			err = blobstore.ErrNotFound
		}
		bs.opts.metricsCollector.RecordRangeRead(obj.Region, length, time.Since(start), err)

		if err == nil {
			return body, nil
		}
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidRange) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		bs.opts.logger.LogReadRetry(ctx, obj, rng, attempt, err)

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return nil, fmt.Errorf("read %s %s: giving up after %d attempts: %w", obj, rng, attempt, err)
		}

		bs.opts.metricsCollector.RecordRetry(obj.Region)

		timer := time.NewTimer(policy.delay(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// decode walks the sections of body. The range starts at the data of first;
// every following section is parsed from its header.
func (bs *Blockstore) decode(ctx context.Context, body io.Reader, first batch.Entry, cy *cycle) error {
	r := car.NewReader(body, first.Offset)

	data, err := r.ReadExactly(first.Length)
	if err != nil {
		return err
	}
	bs.deliver(ctx, first.CID, data, cy)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		h, err := r.ReadHeader()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !cy.wanted(index.KeyOf(h.CID)) {
			if err := r.Seek(h.Length); err != nil {
				return err
			}
			continue
		}

		data, err := r.ReadExactly(h.Length)
		if err != nil {
			return err
		}
		bs.deliver(ctx, h.CID, data, cy)
	}
}

func (bs *Blockstore) deliver(ctx context.Context, c cid.Cid, data []byte, cy *cycle) {
	if bs.opts.verify {
		if err := verify(c, data); err != nil {
			bs.opts.logger.WithCID(c).WarnContext(ctx, "discarding block", "error", err)
			return
		}
	}
	cy.resolve(index.KeyOf(c), result{data: data, found: true})
}

func verify(c cid.Cid, data []byte) error {
	sum, err := c.Prefix().Sum(data)
	if err != nil {
		return err
	}
	if !bytes.Equal(sum.Hash(), c.Hash()) {
		return fmt.Errorf("%w: %s", ErrHashMismatch, c)
	}
	return nil
}
