package httpclient

import (
	"time"

	"go.uber.org/zap"
)

// ChainConfig selects and tunes the decorators applied around the base
// transport. Flags map one-to-one onto the runtime feature flags.
type ChainConfig struct {
	EnableCoalescing bool
	EnableCaching    bool
	EnableRetries    bool
	EnableBreaker    bool
	EnableMetrics    bool
	EnableLogging    bool

	CoalesceWindow time.Duration
	CacheFreshness time.Duration
	Retry          RetryConfig
	Breaker        BreakerConfig
	Logging        LoggingConfig
}

// DefaultChainConfig enables the resilience policies and logging; the
// breaker and metrics stay opt-in.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		EnableCoalescing: true,
		EnableCaching:    true,
		EnableRetries:    true,
		EnableLogging:    true,
		CoalesceWindow:   DefaultCoalesceConfig().Window,
		CacheFreshness:   DefaultCacheConfig().Freshness,
		Retry:            DefaultRetryConfig(),
		Breaker:          DefaultBreakerConfig(),
		Logging:          DefaultLoggingConfig(),
	}
}

// BuildChain assembles the client, innermost first:
//
//	transport -> auth -> breaker -> idempotency -> retry -> cache -> coalesce -> metrics -> logging
//
// The ordering carries the behavioral contract:
//   - auth sits at dispatch so every attempt re-reads the token stores;
//   - the breaker sees individual attempts, not logical calls;
//   - idempotency keys are assigned below retry so a retried write reuses
//     its key;
//   - the cache wraps retry and additionally feeds retry's fallback hook,
//     so a fresh cached body resolves a failed read before any retry;
//   - the coalescer is what callers and retried reads dispatch through;
//   - metrics and logging observe one logical call each.
func BuildChain(
	transport Doer,
	tokens TokenStore,
	store Store,
	metrics *Metrics,
	logger *zap.Logger,
	cfg ChainConfig,
) Doer {
	if logger == nil {
		logger = zap.NewNop()
	}

	chain := transport

	chain = NewAuthDoer(chain, tokens)

	if cfg.EnableBreaker {
		chain = NewBreakerDoer(chain, cfg.Breaker, logger)
		logger.Debug("applied circuit breaker decorator")
	}

	chain = NewIdempotencyDoer(chain)

	var retry *RetryDoer
	if cfg.EnableRetries {
		retry = NewRetryDoer(chain, cfg.Retry, logger)
		chain = retry
		logger.Debug("applied retry decorator")
	}

	var cache *CacheDoer
	if cfg.EnableCaching && store != nil {
		cache = NewCacheDoer(chain, store, CacheConfig{Freshness: cfg.CacheFreshness})
		if metrics != nil {
			cache.onHit = metrics.cacheHits.Inc
		}
		chain = cache
		logger.Debug("applied cache decorator")
	}

	if cfg.EnableCoalescing {
		chain = NewCoalesceDoer(chain, CoalesceConfig{Window: cfg.CoalesceWindow})
		logger.Debug("applied coalescing dispatcher")
	}

	// Wire the retry hooks now that the outer layers exist.
	if retry != nil {
		if cache != nil {
			retry.SetFallback(cache.fallback)
		}
		if cfg.EnableCoalescing {
			retry.SetRedispatch(chain)
		}
	}

	if cfg.EnableMetrics && metrics != nil {
		chain = NewMetricsDoer(chain, metrics)
		logger.Debug("applied metrics decorator")
	}

	if cfg.EnableLogging {
		chain = NewLoggingDoer(chain, logger, cfg.Logging)
		logger.Debug("applied logging decorator")
	}

	return chain
}
