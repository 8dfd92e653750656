package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for ranged reads.
type Config struct {
	// MaxConcurrentReads is the maximum number of ranged reads in flight
	// across all regions. If 0, unlimited.
	MaxConcurrentReads int64

	// IOLimitBytesPerSec is the maximum throughput of response bodies.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages global read resources (concurrency, bandwidth).
type Controller struct {
	cfg Config

	// Concurrency
	readSem  *semaphore.Weighted // nil if unlimited
	inFlight atomic.Int64

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		cfg: cfg,
	}

	if cfg.MaxConcurrentReads > 0 {
		c.readSem = semaphore.NewWeighted(cfg.MaxConcurrentReads)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireRead reserves a read slot.
// Blocks until a slot is available or ctx is canceled.
func (c *Controller) AcquireRead(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.readSem != nil {
		if err := c.readSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}

	c.inFlight.Add(1)
	return nil
}

// TryAcquireRead attempts to reserve a read slot without blocking.
func (c *Controller) TryAcquireRead() bool {
	if c == nil {
		return true
	}

	if c.readSem != nil && !c.readSem.TryAcquire(1) {
		return false
	}

	c.inFlight.Add(1)
	return true
}

// ReleaseRead releases a read slot.
func (c *Controller) ReleaseRead() {
	if c == nil {
		return
	}

	if c.readSem != nil {
		c.readSem.Release(1)
	}
	c.inFlight.Add(-1)
}

// InFlight returns the number of reads currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// MaxIOChunk returns the largest byte count a single AcquireIO call may
// request, or 0 if IO is unlimited.
func (c *Controller) MaxIOChunk() int {
	if c == nil || c.ioLimiter == nil {
		return 0
	}
	return c.ioLimiter.Burst()
}
