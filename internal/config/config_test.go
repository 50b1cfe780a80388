//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
redis:
  url: "localhost:6379"
commerce:
  client_id: "id"
  client_secret: "secret"
`)
	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.True(t, cfg.Runtime.Dev)
	assert.Equal(t, 8, cfg.Bot.Workers)
	assert.Equal(t, "redis", cfg.State.Backend)
	assert.Equal(t, "memory", cfg.State.Lock)
	assert.Equal(t, "conv_state:", cfg.State.KeyPrefix)
	assert.Equal(t, "https://api.moltin.com", cfg.Commerce.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Commerce.TokenLeeway)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CatalogTTL)
	assert.Equal(t, 150*time.Second, cfg.Cache.WarmInterval)
	assert.Equal(t, "en", cfg.Language)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
commerce:
  base_url: "http://commerce.local/"
`)
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("CLIENT_ID", "env-id")
	t.Setenv("CLIENT_SECRET", "env-secret")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_PASSWORD", "pw")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "env-id", cfg.Commerce.ClientID)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.URL)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, "http://commerce.local", cfg.Commerce.BaseURL)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing token": `
redis: {url: "r:6379"}
commerce: {client_id: a, client_secret: b}`,
		"postgres without url": `
bot: {token: t}
state: {backend: postgres}
commerce: {client_id: a, client_secret: b}`,
		"unknown backend": `
bot: {token: t}
redis: {url: "r:6379"}
state: {backend: etcd}
commerce: {client_id: a, client_secret: b}`,
		"unknown lock": `
bot: {token: t}
redis: {url: "r:6379"}
state: {lock: zookeeper}
commerce: {client_id: a, client_secret: b}`,
	}
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body), false)
			assert.Error(t, err)
		})
	}
}
