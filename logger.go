package blockgate

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/hupe1980/blockgate/index"
	"github.com/ipfs/go-cid"
)

// Logger wraps slog.Logger with blockstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCID adds a cid field to the logger.
func (l *Logger) WithCID(c cid.Cid) *Logger {
	return &Logger{
		Logger: l.Logger.With("cid", c.String()),
	}
}

// WithObject adds region, bucket and key fields of a container object.
func (l *Logger) WithObject(obj index.Object) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"region", obj.Region,
			"bucket", obj.Bucket,
			"key", obj.Key,
		),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogGet logs the outcome of a single block fetch.
func (l *Logger) LogGet(ctx context.Context, c cid.Cid, size int, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "get completed",
			"cid", c.String(),
			"size", size,
		)
	case errors.Is(err, ErrNotFound):
		l.DebugContext(ctx, "block not found",
			"cid", c.String(),
		)
	default:
		l.ErrorContext(ctx, "get failed",
			"cid", c.String(),
			"error", err,
		)
	}
}

// LogBatchStart logs the start of a drain cycle.
func (l *Logger) LogBatchStart(ctx context.Context, groups, blocks int) {
	l.InfoContext(ctx, "processing batch",
		"groups", groups,
		"blocks", blocks,
	)
}

// LogBatch logs the end of a drain cycle.
func (l *Logger) LogBatch(ctx context.Context, groups, blocks, missing int) {
	if missing > 0 {
		l.WarnContext(ctx, "batch completed with missing blocks",
			"groups", groups,
			"blocks", blocks,
			"missing", missing,
		)
	} else {
		l.DebugContext(ctx, "batch completed",
			"groups", groups,
			"blocks", blocks,
		)
	}
}

// LogReadRetry logs a failed ranged read attempt.
func (l *Logger) LogReadRetry(ctx context.Context, obj index.Object, rng string, attempt int, err error) {
	l.WarnContext(ctx, "ranged read failed",
		"region", obj.Region,
		"bucket", obj.Bucket,
		"key", obj.Key,
		"range", rng,
		"attempt", attempt,
		"error", err,
	)
}
