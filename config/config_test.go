package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kastheco/testsmith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before all tests to set up the test environment
func TestMain(m *testing.M) {
	log.Initialize(false)
	code := m.Run()
	log.Close()
	os.Exit(code)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "repo user", cfg.Scopes)
	assert.Equal(t, "http://127.0.0.1:5173/callback", cfg.RedirectURI())
	assert.Equal(t, 5*time.Second, cfg.ErrorDismissAfter())
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout())
	assert.True(t, cfg.IsTelemetryEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFrom(t *testing.T) {
	t.Run("creates default config when missing", func(t *testing.T) {
		dir := t.TempDir()
		cfg := LoadConfigFrom(dir)
		assert.Equal(t, DefaultConfig().BackendURL, cfg.BackendURL)

		_, err := os.Stat(filepath.Join(dir, ConfigFileName))
		assert.NoError(t, err)
	})

	t.Run("reads json values", func(t *testing.T) {
		dir := t.TempDir()
		data, err := json.Marshal(map[string]any{
			"backend_url": "https://tests.example.com/",
			"client_id":   "abc123",
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644))

		cfg := LoadConfigFrom(dir)
		assert.Equal(t, "https://tests.example.com", cfg.BackendURL, "trailing slash trimmed")
		assert.Equal(t, "abc123", cfg.ClientID)
		assert.Equal(t, "repo user", cfg.Scopes, "unset keys keep defaults")
	})

	t.Run("toml overlays json", func(t *testing.T) {
		dir := t.TempDir()
		data, err := json.Marshal(map[string]any{"client_id": "from-json", "fetch_concurrency": 2})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644))
		toml := `
client_id = "from-toml"
error_dismiss_ms = 250
telemetry_enabled = false
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte(toml), 0o644))

		cfg := LoadConfigFrom(dir)
		assert.Equal(t, "from-toml", cfg.ClientID)
		assert.Equal(t, 2, cfg.FetchConcurrency)
		assert.Equal(t, 250*time.Millisecond, cfg.ErrorDismissAfter())
		assert.False(t, cfg.IsTelemetryEnabled())
	})

	t.Run("invalid json falls back to defaults", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{nope"), 0o644))
		cfg := LoadConfigFrom(dir)
		assert.Equal(t, DefaultConfig().BackendURL, cfg.BackendURL)
	})

	t.Run("environment overrides", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(EnvBackendURL, "http://backend.internal:9000")
		t.Setenv(EnvClientID, "env-client")
		cfg := LoadConfigFrom(dir)
		assert.Equal(t, "http://backend.internal:9000", cfg.BackendURL)
		assert.Equal(t, "env-client", cfg.ClientID)
	})
}

func TestGetConfigDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	got, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"bad backend url", func(c *Config) { c.BackendURL = "not a url" }, "BackendURL"},
		{"missing redirect addr", func(c *Config) { c.RedirectAddr = "" }, "RedirectAddr"},
		{"redirect addr without port", func(c *Config) { c.RedirectAddr = "localhost" }, "RedirectAddr"},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }, "FetchConcurrency"},
		{"negative dismiss", func(c *Config) { c.ErrorDismissMs = -1 }, "ErrorDismissMs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteTOMLConfig(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTOMLConfig(dir, TOMLSettings{
		BackendURL:       "https://api.testsmith.dev",
		ClientID:         "Iv1.abc",
		RedirectAddr:     "127.0.0.1:8765",
		DefaultFramework: "jest",
		TelemetryEnabled: false,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TOMLFileName), path)

	cfg := DefaultConfig()
	require.NoError(t, LoadTOMLConfigInto(path, cfg))
	assert.Equal(t, "https://api.testsmith.dev", cfg.BackendURL)
	assert.Equal(t, "Iv1.abc", cfg.ClientID)
	assert.Equal(t, "127.0.0.1:8765", cfg.RedirectAddr)
	assert.Equal(t, "jest", cfg.DefaultFramework)
	assert.False(t, cfg.IsTelemetryEnabled())
}

func TestLoadTOMLConfigInto_Missing(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, LoadTOMLConfigInto(filepath.Join(t.TempDir(), "absent.toml"), cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}
