package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "lotsync.db", cfg.Store.Path)
	assert.Equal(t, "xlsx", cfg.Export.Format)

	assert.Equal(t, 50, cfg.Catalog.PageSize)
	assert.Equal(t, 3, cfg.Catalog.MaxRetries)
	assert.Equal(t, 5, cfg.Catalog.RatePerSec)
	assert.True(t, cfg.Catalog.OnlyActive)

	assert.InDelta(t, 0.20, cfg.Matcher.ModelWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Matcher.PlateBonus, 0.001)
	assert.InDelta(t, 0.70, cfg.Matcher.MinBrandSimilarity, 0.001)
	assert.InDelta(t, 0.60, cfg.Matcher.AcceptScore, 0.001)
	assert.InDelta(t, 0.80, cfg.Matcher.HighScore, 0.001)
	assert.InDelta(t, 0.15, cfg.Matcher.MileageTolerance, 0.001)
	assert.Equal(t, "ARS", cfg.Matcher.BaseCurrency)

	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 2, cfg.Batch.DelaySecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
matcher:
  model_weight: 0.30
  accept_score: 0.70
catalog:
  base_url: https://dealer.example.com/api
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.30, cfg.Matcher.ModelWeight, 0.001)
	assert.InDelta(t, 0.70, cfg.Matcher.AcceptScore, 0.001)
	assert.Equal(t, "https://dealer.example.com/api", cfg.Catalog.BaseURL)
	// Defaults still apply for unset values
	assert.Equal(t, 50, cfg.Catalog.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
log:
  level: debug
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LOTSYNC_LOG_LEVEL", "warn")
	t.Setenv("LOTSYNC_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("LOTSYNC_CATALOG_TOKEN", "tok-123")
	t.Setenv("LOTSYNC_MATCHER_BASE_CURRENCY", "USD")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Catalog.Token)
	assert.Equal(t, "USD", cfg.Matcher.BaseCurrency)
}

func TestValidateFetch(t *testing.T) {
	cfg := &Config{}
	cfg.Catalog.PageSize = 50

	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.base_url is required")
	assert.Contains(t, err.Error(), "catalog.token is required")

	cfg.Catalog.BaseURL = "https://dealer.example.com/api"
	cfg.Catalog.Token = "tok"
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateEnrich(t *testing.T) {
	cfg := &Config{}
	cfg.Batch.Size = 5
	cfg.Batch.MaxConcurrent = 3

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("enrich"))

	cfg.Batch.MaxConcurrent = 21
	err = cfg.Validate("enrich")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.max_concurrent must be between 1 and 20")
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
