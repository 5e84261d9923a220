package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, relay.DefaultPromptSheet, cfg.SQLite.PromptSheet)
	assert.Equal(t, "A1", cfg.SQLite.PromptCell)
	assert.Equal(t, relay.DefaultLogSheet, cfg.SQLite.LogSheet)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
log_level: debug
gemini:
  base_url: http://localhost:9999
store:
  backend: redis
redis:
  addr: cache:6379
  db: 2
sqlite:
  prompt_sheet: ""
properties:
  GEMINI_API_KEY: from-file
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:9999", cfg.Gemini.BaseURL)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "relay:prompt", cfg.Redis.PromptKey)
	assert.Equal(t, relay.DefaultPromptSheet, cfg.SQLite.PromptSheet)
	assert.Equal(t, "from-file", cfg.Properties[relay.APIKeyProperty])
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(writeConfig(t, "store:\n  backend: spreadsheet\n"))
		assert.ErrorIs(t, err, relay.ErrInvalidConfig)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(writeConfig(t, "log_level: loud\n"))
		assert.ErrorIs(t, err, relay.ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(writeConfig(t, "store: [\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/etc/relay.yaml", config.Path("/etc/relay.yaml"))
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	t.Parallel()
	data, err := config.Default().Marshal()
	require.NoError(t, err)
	path := writeConfig(t, string(data))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestProperties_Property(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := map[string]string{"FROM_ENV": "env-value", "BLANKED": ""}
	p := config.Properties{
		Values: map[string]string{
			"FROM_ENV":  "file-value",
			"FILE_ONLY": "file-only",
			"BLANKED":   "hidden",
		},
		LookupEnv: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}

	got, err := p.Property(ctx, "FROM_ENV")
	require.NoError(t, err)
	assert.Equal(t, "env-value", got)

	got, err = p.Property(ctx, "FILE_ONLY")
	require.NoError(t, err)
	assert.Equal(t, "file-only", got)

	got, err = p.Property(ctx, "BLANKED")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = p.Property(ctx, "UNSET")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
