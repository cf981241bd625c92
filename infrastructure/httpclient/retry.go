package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "manara-client/pkg/errors"
)

// RetryConfig configures the retry decorator.
type RetryConfig struct {
	// MaxRetries is the number of re-dispatches after the first attempt.
	MaxRetries int
	// BaseDelay seeds the exponential backoff: the n-th retry waits
	// BaseDelay * 2^n, capped at MaxDelay.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryConfig matches the product policy: two retries, delays of
// 2s then 4s (1s * 2^n capped at 5s).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
	}
}

// RetryDoer re-dispatches failed requests for the retryable error classes:
// transport failures, 5xx, 403 and 429. Anything else fails on the first
// attempt.
//
// Before any retry of a read, the response cache is consulted: a fresh
// entry resolves the call immediately and suppresses the retry. This is
// the fallback hook, wired by the chain so the cache check always runs
// before retry logic.
//
// Retried reads re-enter the coalescing dispatcher (the redispatch hook);
// retried writes go straight back down to transport so debouncing logic
// intended for reads can never swallow them.
type RetryDoer struct {
	inner  Doer
	config RetryConfig
	logger *zap.Logger

	// fallback, when set, is tried on a read failure before retrying.
	fallback func(req *Request) (*Response, bool)

	// redispatch, when set, carries retried reads back through the
	// coalescing dispatcher. Writes always use inner.
	redispatch Doer

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryDoer creates the retry decorator.
func NewRetryDoer(inner Doer, config RetryConfig, logger *zap.Logger) *RetryDoer {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultRetryConfig().MaxRetries
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultRetryConfig().BaseDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultRetryConfig().MaxDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryDoer{
		inner:  inner,
		config: config,
		logger: logger.Named("retry"),
		sleep:  sleepCtx,
	}
}

// SetFallback installs the pre-retry fallback check (the cache lookup).
func (d *RetryDoer) SetFallback(fn func(req *Request) (*Response, bool)) {
	d.fallback = fn
}

// SetRedispatch installs the dispatcher retried reads route through.
func (d *RetryDoer) SetRedispatch(doer Doer) {
	d.redispatch = doer
}

// Do executes the request, applying the failure policy on each attempt.
func (d *RetryDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := d.inner.Do(ctx, req)
	if err == nil {
		return resp, nil
	}
	return d.handleFailure(ctx, req, err)
}

// handleFailure implements the documented failure path, in order: cache
// fallback for reads, retryability check, retry budget, backoff,
// re-dispatch.
func (d *RetryDoer) handleFailure(ctx context.Context, req *Request, err error) (*Response, error) {
	if req.IsRead() && d.fallback != nil {
		if resp, ok := d.fallback(req); ok {
			d.logger.Debug("serving cached body after failure",
				zap.String("url", req.URL),
				zap.Error(err),
			)
			return resp, nil
		}
	}

	if !apperrors.IsRetryable(err) {
		return nil, err
	}

	if req.retryCount >= d.config.MaxRetries {
		d.logger.Warn("retries exhausted",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Int("attempts", req.retryCount+1),
			zap.Error(err),
		)
		return nil, err
	}

	req.retryCount++

	delay := d.config.BaseDelay << uint(req.retryCount)
	if delay > d.config.MaxDelay {
		delay = d.config.MaxDelay
	}

	d.logger.Warn("retrying request",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("attempt", req.retryCount),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	if sleepErr := d.sleep(ctx, delay); sleepErr != nil {
		return nil, apperrors.Wrap(sleepErr, "canceled during retry delay")
	}

	// Reads re-enter the coalescing dispatcher; writes go straight back
	// to transport.
	next := d.inner
	if req.IsRead() && d.redispatch != nil {
		next = d.redispatch
	}
	resp, retryErr := next.Do(ctx, req)
	if retryErr == nil {
		return resp, nil
	}
	if next != d.inner {
		// The re-dispatch already passed back through this decorator;
		// its failure policy has been applied.
		return nil, retryErr
	}
	return d.handleFailure(ctx, req, retryErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Doer = (*RetryDoer)(nil)
