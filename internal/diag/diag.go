// Package diag builds the diagnostic log: an append-only, timestamped,
// human-readable record of detection results and per-field outcomes.
package diag

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where diagnostics are written.
type Options struct {
	// File is appended to; it is created if missing. Empty disables the file sink.
	File string
	// Level is a zap level name ("debug", "info", "warn", "error").
	Level string
	// Console also writes diagnostics to stderr.
	Console bool
}

// New returns a logger writing to the configured sinks and a function that
// flushes and closes them.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	var (
		cores   []zapcore.Core
		closers []func() error
	)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open diagnostic log %s", opts.File)
		}
		// Lock serializes writes so concurrent requests never interleave lines.
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(f), level))
		closers = append(closers, f.Close)
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	cleanup := func() {
		_ = logger.Sync()
		for _, c := range closers {
			_ = c()
		}
	}
	return logger, cleanup, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	return cfg
}
