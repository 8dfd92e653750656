package blockgate

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the metric
// package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordGet is called after each Get.
	// found is false for absent blocks; err is only set for failures other
	// than not found (index errors, cancellation, closed blockstore).
	RecordGet(duration time.Duration, found bool, err error)

	// RecordBatch is called after each drain cycle.
	RecordBatch(groups, blocks, missing int, duration time.Duration)

	// RecordRangeRead is called after each ranged read attempt.
	RecordRangeRead(region string, bytes int64, duration time.Duration, err error)

	// RecordRetry is called before a failed ranged read is retried.
	RecordRetry(region string)

	// RecordMalformed is called when decoding a container range fails.
	RecordMalformed(region string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(time.Duration, bool, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordRangeRead(string, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRetry(string) {}
func (NoopMetricsCollector) RecordMalformed(string) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetCount        atomic.Int64
	GetFound        atomic.Int64
	GetNotFound     atomic.Int64
	GetErrors       atomic.Int64
	GetTotalNanos   atomic.Int64
	BatchCount      atomic.Int64
	BatchGroups     atomic.Int64
	BatchBlocks     atomic.Int64
	BatchMissing    atomic.Int64
	RangeReads      atomic.Int64
	RangeReadErrors atomic.Int64
	RangeReadBytes  atomic.Int64
	Retries         atomic.Int64
	Malformed       atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, found bool, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.GetErrors.Add(1)
	case found:
		b.GetFound.Add(1)
	default:
		b.GetNotFound.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(groups, blocks, missing int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchGroups.Add(int64(groups))
	b.BatchBlocks.Add(int64(blocks))
	b.BatchMissing.Add(int64(missing))
}

// RecordRangeRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeRead(region string, bytes int64, duration time.Duration, err error) {
	b.RangeReads.Add(1)
	if err != nil {
		b.RangeReadErrors.Add(1)
		return
	}
	b.RangeReadBytes.Add(bytes)
}

// RecordRetry implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetry(string) {
	b.Retries.Add(1)
}

// RecordMalformed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMalformed(string) {
	b.Malformed.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GetCount:        b.GetCount.Load(),
		GetFound:        b.GetFound.Load(),
		GetNotFound:     b.GetNotFound.Load(),
		GetErrors:       b.GetErrors.Load(),
		GetAvgNanos:     b.getAvgGetNanos(),
		BatchCount:      b.BatchCount.Load(),
		BatchGroups:     b.BatchGroups.Load(),
		BatchBlocks:     b.BatchBlocks.Load(),
		BatchMissing:    b.BatchMissing.Load(),
		RangeReads:      b.RangeReads.Load(),
		RangeReadErrors: b.RangeReadErrors.Load(),
		RangeReadBytes:  b.RangeReadBytes.Load(),
		Retries:         b.Retries.Load(),
		Malformed:       b.Malformed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

// BasicMetricsStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	GetCount        int64
	GetFound        int64
	GetNotFound     int64
	GetErrors       int64
	GetAvgNanos     int64
	BatchCount      int64
	BatchGroups     int64
	BatchBlocks     int64
	BatchMissing    int64
	RangeReads      int64
	RangeReadErrors int64
	RangeReadBytes  int64
	Retries         int64
	Malformed       int64
}
