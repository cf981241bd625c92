package di

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"manara-client/infrastructure/config"
	"manara-client/infrastructure/httpclient"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL:        "https://api.test",
		AssetHost:      "https://api.test",
		RequestTimeout: 5 * time.Second,
		CoalesceWindow: 300 * time.Millisecond,
		CacheFreshness: 5 * time.Minute,
		MaxRetries:     2,
		TokenPath:      filepath.Join(t.TempDir(), "tokens.json"),
		LogLevel:       "info",
		Environment:    "development",
		Features: config.Features{
			EnableCaching: true,
			EnableLogging: true,
		},
	}
}

func writeRuntimeConfig(t *testing.T, path string, features config.Features, version string) {
	t.Helper()
	data, err := json.Marshal(config.RuntimeConfig{
		Features: features,
		Metadata: config.ConfigMetadata{Version: version, UpdatedAt: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestProvideConfigWatcher_NoRuntimePathDisablesWatcher(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	watcher, err := ProvideConfigWatcher(cfg, zap.NewNop())

	// Assert
	require.NoError(t, err)
	assert.Nil(t, watcher)
}

func TestProvideClient_WithoutWatcherBuildsFixedChain(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	client := ProvideClient(cfg, httpclient.NewMemoryTokenStore(), httpclient.NewMemoryStore(), nil, zap.NewNop(), nil)

	// Assert
	require.NotNil(t, client)
	_, swappable := client.(*httpclient.SwitchDoer)
	assert.False(t, swappable)
}

func TestProvideClient_RuntimeFlagChangeSwapsChain(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.RuntimeConfigPath = filepath.Join(t.TempDir(), "runtime.json")
	writeRuntimeConfig(t, cfg.RuntimeConfigPath, config.Features{EnableCaching: true}, "1")

	watcher, err := ProvideConfigWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, watcher)
	defer watcher.Stop()

	client := ProvideClient(cfg, httpclient.NewMemoryTokenStore(), httpclient.NewMemoryStore(), nil, zap.NewNop(), watcher)
	switcher, ok := client.(*httpclient.SwitchDoer)
	require.True(t, ok)
	initial := switcher.Current()

	// Act
	writeRuntimeConfig(t, cfg.RuntimeConfigPath, config.Features{EnableCaching: true, EnableRetries: true}, "2")

	// Assert
	require.Eventually(t, func() bool {
		return switcher.Current() != initial
	}, 3*time.Second, 20*time.Millisecond, "chain was not rebuilt after the runtime config changed")
	assert.True(t, watcher.Current().Features.EnableRetries)
	assert.Equal(t, "2", watcher.Current().Metadata.Version)
}
