// Package di wires the client, its decorators and the services together
// with google/wire. Everything is constructed explicitly; no package-level
// mutable state.
package di

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"manara-client/application/content"
	"manara-client/application/directors"
	"manara-client/infrastructure/config"
	"manara-client/infrastructure/httpclient"
)

// Container holds the wired application dependencies.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Tokens    httpclient.TokenStore
	Cache     httpclient.Store
	Watcher   *config.ConfigWatcher
	Client    httpclient.Doer
	Resolver  *httpclient.AssetResolver
	Directors *directors.Service
	Content   *content.Service
}

// Close releases background resources held by the container.
func (c *Container) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Logger != nil {
		c.Logger.Sync() //nolint:errcheck
	}
}

// ProvideLogger builds the zap logger for the configured environment.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// ProvideTokenStore builds the two-tier token store: a file-backed
// persistent tier checked first, then an in-memory session tier.
func ProvideTokenStore(cfg *config.Config) httpclient.TokenStore {
	persistent := httpclient.NewFileTokenStore(filepath.Clean(cfg.TokenPath))
	session := httpclient.NewMemoryTokenStore()
	return httpclient.NewTieredTokenStore(persistent, session)
}

// ProvideCacheStore builds the session-scoped response cache.
func ProvideCacheStore() httpclient.Store {
	return httpclient.NewMemoryStore()
}

// ProvideMetrics registers the client collectors when metrics are on.
func ProvideMetrics(cfg *config.Config) *httpclient.Metrics {
	if !cfg.Features.EnableMetrics {
		return nil
	}
	return httpclient.NewMetrics(prometheus.DefaultRegisterer)
}

// ProvideConfigWatcher builds the runtime feature-flag watcher when a
// runtime config file is configured. Without one it returns nil and the
// chain stays fixed for the life of the process.
func ProvideConfigWatcher(cfg *config.Config, logger *zap.Logger) (*config.ConfigWatcher, error) {
	if cfg.RuntimeConfigPath == "" {
		return nil, nil
	}
	return config.NewConfigWatcher(cfg.RuntimeConfigPath, logger)
}

// ProvideClient assembles the decorated client chain. When a runtime
// watcher is present the chain is seeded from its current flags, wrapped
// in a SwitchDoer, and rebuilt on every reload; callers keep the same
// handle across swaps. The cache store is shared between generations so
// a flag flip does not empty the session cache.
func ProvideClient(
	cfg *config.Config,
	tokens httpclient.TokenStore,
	store httpclient.Store,
	metrics *httpclient.Metrics,
	logger *zap.Logger,
	watcher *config.ConfigWatcher,
) httpclient.Doer {
	transport := httpclient.NewTransport(cfg.RequestTimeout)

	build := func(features config.Features) httpclient.Doer {
		chainCfg := httpclient.DefaultChainConfig()
		chainCfg.EnableCoalescing = features.EnableCoalescing
		chainCfg.EnableCaching = features.EnableCaching
		chainCfg.EnableRetries = features.EnableRetries
		chainCfg.EnableBreaker = features.EnableBreaker
		chainCfg.EnableMetrics = features.EnableMetrics
		chainCfg.EnableLogging = features.EnableLogging
		chainCfg.CoalesceWindow = cfg.CoalesceWindow
		chainCfg.CacheFreshness = cfg.CacheFreshness
		chainCfg.Retry.MaxRetries = cfg.MaxRetries
		return httpclient.BuildChain(transport, tokens, store, metrics, logger, chainCfg)
	}

	if watcher == nil {
		return build(cfg.Features)
	}

	client := httpclient.NewSwitchDoer(build(watcher.Current().Features))
	watcher.OnChange(func(rc *config.RuntimeConfig) {
		client.Swap(build(rc.Features))
	})
	watcher.Start()
	return client
}

// ProvideAssetResolver builds the asset URL resolver.
func ProvideAssetResolver(cfg *config.Config) *httpclient.AssetResolver {
	return httpclient.NewAssetResolver(cfg.AssetHost)
}

// ProvideDirectorsService builds the directors service.
func ProvideDirectorsService(client httpclient.Doer, cfg *config.Config, logger *zap.Logger) *directors.Service {
	return directors.NewService(client, cfg.BaseURL, logger)
}

// ProvideContentService builds the content service.
func ProvideContentService(
	client httpclient.Doer,
	cfg *config.Config,
	resolver *httpclient.AssetResolver,
	logger *zap.Logger,
) *content.Service {
	return content.NewService(client, cfg.BaseURL, resolver, logger)
}
