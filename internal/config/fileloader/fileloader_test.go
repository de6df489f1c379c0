package fileloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farescout/farescout/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
store:
  backend: redis
  redis_url: redis://localhost:6379/0
  retention_ttl: 30m
provider:
  base_url: http://flights-api:8001
  api_key: secret
  requests_per_second: 2.5
  burst: 3
`)

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, config.StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.Store.RetentionTTL)
	assert.Equal(t, "http://flights-api:8001", cfg.Provider.BaseURL)
	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.InDelta(t, 2.5, cfg.Provider.RequestsPerSecond, 1e-9)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  base_url: http://flights-api:8001
`)

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, config.DefaultRetentionTTL, cfg.Store.RetentionTTL)
	assert.InDelta(t, config.DefaultRPS, cfg.Provider.RequestsPerSecond, 1e-9)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Run("missing provider base url", func(t *testing.T) {
		path := writeConfig(t, `
store:
  backend: memory
`)
		_, err := NewFileLoader(path).Load(context.Background())
		assert.ErrorContains(t, err, "provider.base_url")
	})

	t.Run("redis backend without url", func(t *testing.T) {
		path := writeConfig(t, `
store:
  backend: redis
provider:
  base_url: http://flights-api:8001
`)
		_, err := NewFileLoader(path).Load(context.Background())
		assert.ErrorContains(t, err, "redis_url")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileLoader("/nonexistent/config.yaml").Load(context.Background())
		assert.Error(t, err)
	})
}
