// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/secrets"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// chdir moves into a fresh temp dir so no stray config file is found.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", dir)

	cfg, err := Load("", filepath.Join(dir, "no-secrets"))
	require.NoError(t, err)

	assert.Equal(t, []string{"google", "bing", "duckduckgo"}, cfg.Search.Engines)
	assert.Equal(t, 15, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.InDelta(t, 2.0, cfg.Search.RequestsPerSecond, 1e-9)
	assert.Equal(t, 2*365*24*time.Hour, cfg.Search.RecencyWindow)
	assert.Empty(t, cfg.Search.SerpAPIKey)

	assert.Equal(t, 8, cfg.Enrich.MaxConcurrency)
	assert.Equal(t, 15*time.Second, cfg.Enrich.ScoreTimeout)
	assert.Equal(t, 90*time.Second, cfg.Enrich.FactCheckTimeout)
	assert.Equal(t, 60*time.Second, cfg.Enrich.SummarizeTimeout)

	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.AI.Model)
	assert.Equal(t, int64(1024), cfg.AI.MaxTokens)
	assert.Equal(t, 8000, cfg.AI.MaxPageChars)

	assert.Equal(t, "data", cfg.Archive.Dir)
	assert.False(t, cfg.Archive.Disabled)
	assert.Equal(t, "all", cfg.View.DefaultFilter)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", dir)

	yaml := `
search:
  engines: [google]
  results_per_query: 5
  timeout: 10s
enrich:
  max_concurrency: 3
  fact_check_timeout: 2m
view:
  default_filter: fringe
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, Name+".yaml"), []byte(yaml), 0o644))

	cfg, err := Load("", filepath.Join(dir, "no-secrets"))
	require.NoError(t, err)

	assert.Equal(t, []string{"google"}, cfg.Search.Engines)
	assert.Equal(t, 5, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 3, cfg.Enrich.MaxConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.Enrich.FactCheckTimeout)
	assert.Equal(t, 15*time.Second, cfg.Enrich.ScoreTimeout)
	assert.Equal(t, "fringe", cfg.View.DefaultFilter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archive:\n  disabled: true\n"), 0o644))

	cfg, err := Load(path, filepath.Join(dir, "no-secrets"))
	require.NoError(t, err)
	assert.True(t, cfg.Archive.Disabled)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", dir)
	t.Setenv("PERSPECTIVE_ENGINE_ENRICH_MAX_CONCURRENCY", "4")
	t.Setenv("PERSPECTIVE_ENGINE_AI_MODEL", "claude-haiku-4-5-20251001")

	cfg, err := Load("", filepath.Join(dir, "no-secrets"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Enrich.MaxConcurrency)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.AI.Model)
}

func TestLoadSecrets(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", dir)
	secretsDir := filepath.Join(dir, ".secrets")
	require.NoError(t, os.Mkdir(secretsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, secrets.SerpAPIKey), []byte("serp\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, secrets.AnthropicKey), []byte("ant\n"), 0o600))
	t.Setenv("PERSPECTIVE_ENGINE_AI_API_KEY", "ant-env")

	cfg, err := Load("", secretsDir)
	require.NoError(t, err)
	assert.Equal(t, "serp", cfg.Search.SerpAPIKey)
	assert.Equal(t, "ant-env", cfg.AI.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", dir)

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search: [unterminated"), 0o644))
		_, err := Load(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config: read file")
	})
	t.Run("bad filter", func(t *testing.T) {
		t.Setenv("PERSPECTIVE_ENGINE_VIEW_DEFAULT_FILTER", "sideways")
		_, err := Load("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "view.default_filter")
	})
}

func TestValidate(t *testing.T) {
	valid := func() types.Config {
		var cfg types.Config
		cfg.Enrich.MaxConcurrency = 1
		cfg.Search.ResultsPerQuery = 1
		cfg.Search.RequestsPerSecond = 1
		return cfg
	}

	cfg := valid()
	assert.NoError(t, Validate(&cfg))

	cfg = valid()
	cfg.Enrich.MaxConcurrency = 0
	assert.ErrorContains(t, Validate(&cfg), "max_concurrency")

	cfg = valid()
	cfg.Search.ResultsPerQuery = 0
	assert.ErrorContains(t, Validate(&cfg), "results_per_query")

	cfg = valid()
	cfg.Search.RequestsPerSecond = 0
	assert.ErrorContains(t, Validate(&cfg), "requests_per_second")
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	tests := []struct {
		name    string
		cfg     types.LogConfig
		wantErr bool
	}{
		{"json info", types.LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", types.LogConfig{Level: "debug", Format: "console"}, false},
		{"empty level", types.LogConfig{}, false},
		{"bad level", types.LogConfig{Level: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := InitLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Same(t, logger, zap.L())
		})
	}
}
