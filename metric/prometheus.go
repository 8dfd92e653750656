package metric

import (
	"time"

	"github.com/hupe1980/blockgate"
	"github.com/prometheus/client_golang/prometheus"
)

var _ blockgate.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector records blockstore metrics as Prometheus counters and
// histograms.
type PrometheusCollector struct {
	getsTotal            *prometheus.CounterVec
	getDurationSeconds   prometheus.Observer
	batchesTotal         prometheus.Counter
	batchGroups          prometheus.Observer
	batchBlocks          prometheus.Observer
	batchMissingTotal    prometheus.Counter
	batchDurationSeconds prometheus.Observer
	rangeReadsTotal      *prometheus.CounterVec
	rangeReadBytesTotal  *prometheus.CounterVec
	rangeReadSeconds     *prometheus.HistogramVec
	retriesTotal         *prometheus.CounterVec
	malformedTotal       *prometheus.CounterVec
}

// NewPrometheusCollector creates a PrometheusCollector and registers its
// metrics with reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	getsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "gets_total",
			Help:      "Total number of block fetches, by outcome.",
		},
		[]string{"outcome"})
	getDurationSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "get_duration_seconds",
			Help:      "Amount of time spent per block fetch, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		})
	batchesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "batches_total",
			Help:      "Total number of drain cycles.",
		})
	batchGroups := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "batch_groups",
			Help:      "Number of container objects read per drain cycle.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		})
	batchBlocks := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "batch_blocks",
			Help:      "Number of blocks requested per drain cycle.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		})
	batchMissingTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "batch_missing_blocks_total",
			Help:      "Total number of requested blocks that a drain cycle did not find.",
		})
	batchDurationSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "batch_duration_seconds",
			Help:      "Amount of time spent per drain cycle, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		})
	rangeReadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobstore",
			Name:      "range_reads_total",
			Help:      "Total number of ranged reads, by region and result.",
		},
		[]string{"region", "result"})
	rangeReadBytesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobstore",
			Name:      "range_read_bytes_total",
			Help:      "Total number of bytes requested by successful ranged reads.",
		},
		[]string{"region"})
	rangeReadSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blobstore",
			Name:      "range_read_duration_seconds",
			Help:      "Amount of time until a ranged read returned a body, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"region"})
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobstore",
			Name:      "range_read_retries_total",
			Help:      "Total number of retried ranged reads.",
		},
		[]string{"region"})
	malformedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blockstore",
			Name:      "malformed_containers_total",
			Help:      "Total number of container ranges that could not be decoded to the end.",
		},
		[]string{"region"})

	reg.MustRegister(
		getsTotal,
		getDurationSeconds,
		batchesTotal,
		batchGroups,
		batchBlocks,
		batchMissingTotal,
		batchDurationSeconds,
		rangeReadsTotal,
		rangeReadBytesTotal,
		rangeReadSeconds,
		retriesTotal,
		malformedTotal,
	)

	return &PrometheusCollector{
		getsTotal:            getsTotal,
		getDurationSeconds:   getDurationSeconds,
		batchesTotal:         batchesTotal,
		batchGroups:          batchGroups,
		batchBlocks:          batchBlocks,
		batchMissingTotal:    batchMissingTotal,
		batchDurationSeconds: batchDurationSeconds,
		rangeReadsTotal:      rangeReadsTotal,
		rangeReadBytesTotal:  rangeReadBytesTotal,
		rangeReadSeconds:     rangeReadSeconds,
		retriesTotal:         retriesTotal,
		malformedTotal:       malformedTotal,
	}
}

// RecordGet implements blockgate.MetricsCollector.
func (c *PrometheusCollector) RecordGet(duration time.Duration, found bool, err error) {
	outcome := "not_found"
	switch {
	case err != nil:
		outcome = "error"
	case found:
		outcome = "found"
	}
	c.getsTotal.WithLabelValues(outcome).Inc()
	c.getDurationSeconds.Observe(duration.Seconds())
}

// RecordBatch implements blockgate.MetricsCollector.
func (c *PrometheusCollector) RecordBatch(groups, blocks, missing int, duration time.Duration) {
	c.batchesTotal.Inc()
	c.batchGroups.Observe(float64(groups))
	c.batchBlocks.Observe(float64(blocks))
	c.batchMissingTotal.Add(float64(missing))
	c.batchDurationSeconds.Observe(duration.Seconds())
}

// RecordRangeRead implements blockgate.MetricsCollector.
// Bytes and latency are only observed for successful reads.
func (c *PrometheusCollector) RecordRangeRead(region string, bytes int64, duration time.Duration, err error) {
	if err != nil {
		c.rangeReadsTotal.WithLabelValues(region, "error").Inc()
		return
	}
	c.rangeReadsTotal.WithLabelValues(region, "ok").Inc()
	c.rangeReadBytesTotal.WithLabelValues(region).Add(float64(bytes))
	c.rangeReadSeconds.WithLabelValues(region).Observe(duration.Seconds())
}

// RecordRetry implements blockgate.MetricsCollector.
func (c *PrometheusCollector) RecordRetry(region string) {
	c.retriesTotal.WithLabelValues(region).Inc()
}

// RecordMalformed implements blockgate.MetricsCollector.
func (c *PrometheusCollector) RecordMalformed(region string) {
	c.malformedTotal.WithLabelValues(region).Inc()
}
