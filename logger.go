package ktree

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with ktree-specific context. This provides
// structured logging with consistent field names across operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler writing to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithBranchingFactor adds a branching_factor field to the logger.
func (l *Logger) WithBranchingFactor(k int) *Logger {
	return &Logger{Logger: l.Logger.With("branching_factor", k)}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "dimension", dimension, "error", err)
	} else {
		l.DebugContext(ctx, "insert completed", "dimension", dimension)
	}
}

// LogBulkInsert logs a bulk insert operation.
func (l *Logger) LogBulkInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bulk insert failed", "count", count, "error", err)
	} else {
		l.InfoContext(ctx, "bulk insert completed", "count", count)
	}
}

// LogSplit logs a node split.
func (l *Logger) LogSplit(ctx context.Context, leftLeaves, rightLeaves int64) {
	l.DebugContext(ctx, "node split",
		"left_leaves", leftLeaves,
		"right_leaves", rightLeaves,
	)
}

// LogNormalize logs a NormalizeCounts pass.
func (l *Logger) LogNormalize(ctx context.Context, leafCount int64, dur float64) {
	l.InfoContext(ctx, "normalize counts completed",
		"leaf_count", leafCount,
		"duration_ms", dur,
	)
}

// LogSerialize logs a serialization operation.
func (l *Logger) LogSerialize(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "serialize failed", "error", err)
	} else {
		l.InfoContext(ctx, "serialize completed")
	}
}

// LogDeserialize logs a deserialization operation.
func (l *Logger) LogDeserialize(ctx context.Context, leafCount int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "deserialize failed", "error", err)
	} else {
		l.InfoContext(ctx, "deserialize completed", "leaf_count", leafCount)
	}
}

// LogCapabilities logs the detected CPU feature set once at startup, so
// operators can judge whether an external SIMD-accelerated distance
// kernel would be worth building for their hardware.
func (l *Logger) LogCapabilities(ctx context.Context, caps Capabilities) {
	l.InfoContext(ctx, "cpu capabilities detected",
		"avx2", caps.HasAVX2,
		"avx512", caps.HasAVX512,
		"neon", caps.HasNEON,
		"fma3", caps.HasFMA3,
	)
}
