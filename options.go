package blockgate

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/hupe1980/blockgate/batch"
	"github.com/hupe1980/blockgate/resource"
)

type options struct {
	logger                  *Logger
	metricsCollector        MetricsCollector
	selector                batch.Selector
	batchWindow             time.Duration
	retry                   RetryPolicy
	groupConcurrency        int
	controller              *resource.Controller
	verify                  bool
	abortCycleOnMissingBody bool

	// schedule runs a drain cycle. It must not call f synchronously.
	schedule func(f func())

	// backoffFloor is the smallest MinBackoff accepted from a RetryPolicy.
	backoffFloor time.Duration
}

const (
	defaultMinBackoff = 100 * time.Millisecond
	minBackoffFloor   = 10 * time.Millisecond
)

// Option configures Blockstore constructor behavior.
type Option func(*options)

// RetryPolicy controls how failed ranged reads are retried.
type RetryPolicy struct {
	// MaxAttempts bounds the number of attempts per read.
	// If <= 0, reads are retried until the blockstore is closed.
	MaxAttempts int

	// MinBackoff is the minimum delay between attempts. Zero means 100ms;
	// smaller positive values are raised to 10ms.
	MinBackoff time.Duration

	// Backoff computes the delay before the next attempt. Delays shorter
	// than MinBackoff are raised to MinBackoff. If nil, MinBackoff is used.
	Backoff retry.BackoffDelayer
}

// DefaultRetryPolicy returns the default policy: 5 attempts, at least 100ms
// apart, with exponential jitter backoff capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		MinBackoff:  defaultMinBackoff,
		Backoff:     retry.NewExponentialJitterBackoff(5 * time.Second),
	}
}

func (p RetryPolicy) delay(attempt int, err error) time.Duration {
	d := p.MinBackoff
	if p.Backoff != nil {
		if bd, berr := p.Backoff.BackoffDelay(attempt, err); berr == nil && bd > d {
			d = bd
		}
	}
	return d
}

// WithPreferredRegion chooses, for every CID, the first location in region
// and falls back to the first location returned by the index.
func WithPreferredRegion(region string) Option {
	return func(o *options) {
		o.selector = batch.PreferRegion(region)
	}
}

// WithSelector configures a custom location selector.
// If nil is passed, batch.First is used.
func WithSelector(s batch.Selector) Option {
	return func(o *options) {
		if s == nil {
			s = batch.First
		}
		o.selector = s
	}
}

// WithBatchWindow delays the start of a drain cycle by d after the first
// request that schedules it, so more requests land in the same batch.
//
// The default of zero starts the cycle on a new goroutine right away, which
// still coalesces requests that arrive while the previous cycle runs.
func WithBatchWindow(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.batchWindow = d
	}
}

// WithRetryPolicy configures retries of failed ranged reads.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithGroupConcurrency sets how many container groups of one drain cycle are
// fetched in parallel. Values < 1 are treated as 1.
func WithGroupConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.groupConcurrency = n
	}
}

// WithResourceController limits ranged reads across all regions.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithVerify enables or disables hashing decoded blocks against their CID.
// Enabled by default.
func WithVerify(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

// WithAbortCycleOnMissingBody makes a ranged read that finds no object abort
// the whole drain cycle: every block still pending in it resolves as not
// found. By default only the affected group resolves as not found.
func WithAbortCycleOnMissingBody(abort bool) Option {
	return func(o *options) {
		o.abortCycleOnMissingBody = abort
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &blockgate.BasicMetricsCollector{}
//	bs := blockgate.New(idx, regions, blockgate.WithMetricsCollector(metrics))
//	// ... use bs ...
//	stats := metrics.GetStats()
//	fmt.Printf("Gets: %d, Range reads: %d\n", stats.GetCount, stats.RangeReads)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := blockgate.NewJSONLogger(slog.LevelInfo)
//	bs := blockgate.New(idx, regions, blockgate.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		selector:         batch.First,
		retry:            DefaultRetryPolicy(),
		groupConcurrency: 4,
		verify:           true,
		backoffFloor:     minBackoffFloor,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.backoffFloor > 0 {
		switch {
		case o.retry.MinBackoff <= 0:
			o.retry.MinBackoff = defaultMinBackoff
		case o.retry.MinBackoff < o.backoffFloor:
			o.retry.MinBackoff = o.backoffFloor
		}
	}

	if o.schedule == nil {
		window := o.batchWindow
		if window > 0 {
			o.schedule = func(f func()) { time.AfterFunc(window, f) }
		} else {
			o.schedule = func(f func()) { go f() }
		}
	}
	return o
}
