package httpclient

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "manara-client/pkg/errors"
)

// BreakerConfig configures the circuit breaker decorator.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the breaker.
	MaxFailures uint32
	// OpenDuration is how long the breaker stays open before probing.
	OpenDuration time.Duration
}

// DefaultBreakerConfig returns the defaults used when the breaker is
// enabled without explicit tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:  5,
		OpenDuration: 30 * time.Second,
	}
}

// BreakerDoer short-circuits dispatch while the remote API is failing
// hard. It sits below the retry decorator, so each attempt is one breaker
// event and an open breaker fails attempts fast. An open-breaker rejection
// surfaces as a transport error, which keeps it in the retryable class.
type BreakerDoer struct {
	inner   Doer
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerDoer creates the circuit breaker decorator.
func NewBreakerDoer(inner Doer, config BreakerConfig, logger *zap.Logger) *BreakerDoer {
	if config.MaxFailures == 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	if config.OpenDuration <= 0 {
		config.OpenDuration = DefaultBreakerConfig().OpenDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("breaker")

	settings := gobreaker.Settings{
		Name:    "api",
		Timeout: config.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Only failures the retry policy considers transient count
			// against the breaker; a 404 or validation error says
			// nothing about the API's health.
			return err == nil || !apperrors.IsRetryable(err)
		},
	}

	return &BreakerDoer{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Do routes the request through the breaker.
func (d *BreakerDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	result, err := d.breaker.Execute(func() (interface{}, error) {
		return d.inner.Do(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperrors.NewTransport(err)
		}
		return nil, err
	}
	return result.(*Response), nil
}

var _ Doer = (*BreakerDoer)(nil)
