package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig controls the logging decorator.
type LoggingConfig struct {
	LogRequests   bool
	LogErrors     bool
	LogLevel      zapcore.Level
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the defaults used when logging is enabled
// without explicit tuning.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogRequests:   true,
		LogErrors:     true,
		LogLevel:      zapcore.DebugLevel,
		SlowThreshold: time.Second,
	}
}

// LoggingDoer is the outermost decorator: one log line per logical call,
// after every policy below it has run its course.
type LoggingDoer struct {
	inner  Doer
	logger *zap.Logger
	config LoggingConfig
}

// NewLoggingDoer creates the logging decorator.
func NewLoggingDoer(inner Doer, logger *zap.Logger, config LoggingConfig) *LoggingDoer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingDoer{
		inner:  inner,
		logger: logger.Named("client"),
		config: config,
	}
}

// Do logs the call outcome.
func (d *LoggingDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := d.inner.Do(ctx, req)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Duration("elapsed", elapsed),
		zap.Int("retries", req.retryCount),
	}

	switch {
	case err != nil:
		if d.config.LogErrors {
			d.logger.Error("request failed", append(fields, zap.Error(err))...)
		}
	case d.config.SlowThreshold > 0 && elapsed > d.config.SlowThreshold:
		d.logger.Warn("slow request", fields...)
	case d.config.LogRequests:
		d.logger.Log(d.config.LogLevel, "request completed",
			append(fields, zap.Int("status", resp.Status), zap.Bool("from_cache", resp.FromCache))...)
	}
	return resp, err
}

var _ Doer = (*LoggingDoer)(nil)
