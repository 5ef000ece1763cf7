// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads perspective-engine settings from a YAML file, the
// environment and the .secrets/ directory, and initializes the global logger.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/perspective-engine/internal/secrets"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

const (
	// Name is the config file base name and the directory name under
	// ~/.config.
	Name = "perspective-engine"

	// EnvPrefix prefixes environment overrides, e.g.
	// PERSPECTIVE_ENGINE_ENRICH_MAX_CONCURRENCY.
	EnvPrefix = "PERSPECTIVE_ENGINE"

	// SecretsDir is the default secrets directory.
	SecretsDir = ".secrets/"
)

// New returns a viper instance with the search paths, environment binding
// and defaults applied. When file is non-empty it is the only config file
// considered.
func New(file string) *viper.Viper {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", "perspective-engine/0.1")
	v.SetDefault("search.engines", []string{"google", "bing", "duckduckgo"})
	v.SetDefault("search.results_per_query", 15)
	v.SetDefault("search.serpapi_key", "")
	v.SetDefault("search.requests_per_second", 2.0)
	v.SetDefault("search.recency_window", 2*365*24*time.Hour)

	v.SetDefault("enrich.max_concurrency", 8)
	v.SetDefault("enrich.score_timeout", 15*time.Second)
	v.SetDefault("enrich.fact_check_timeout", 90*time.Second)
	v.SetDefault("enrich.summarize_timeout", 60*time.Second)

	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.user_agent", "Mozilla/5.0 (compatible; perspective-engine/0.1)")
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.max_page_chars", 8000)

	v.SetDefault("archive.dir", "data")
	v.SetDefault("archive.disabled", false)

	v.SetDefault("view.default_filter", "all")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Read reads the config file, if any, and decodes v into a Config. A missing
// config file is not an error.
func Read(v *viper.Viper) (*types.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from file (or the default search paths) and the
// environment, then fills empty API keys from secretsDir.
func Load(file, secretsDir string) (*types.Config, error) {
	cfg, err := Read(New(file))
	if err != nil {
		return nil, err
	}
	s, err := secrets.Load(secretsDir)
	if err != nil {
		return nil, err
	}
	secrets.Apply(cfg, s)
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func Validate(cfg *types.Config) error {
	if cfg.Enrich.MaxConcurrency < 1 {
		return eris.Errorf("config: enrich.max_concurrency must be at least 1, got %d", cfg.Enrich.MaxConcurrency)
	}
	if cfg.Search.ResultsPerQuery < 1 {
		return eris.Errorf("config: search.results_per_query must be at least 1, got %d", cfg.Search.ResultsPerQuery)
	}
	if cfg.Search.RequestsPerSecond <= 0 {
		return eris.Errorf("config: search.requests_per_second must be positive, got %g", cfg.Search.RequestsPerSecond)
	}
	if _, err := types.ParsePerspective(cfg.View.DefaultFilter); err != nil {
		return eris.Wrap(err, "config: view.default_filter")
	}
	return nil
}

// InitLogger builds a zap logger from cfg and installs it as the global
// logger. Format "json" selects the production encoder; anything else the
// console encoder.
func InitLogger(cfg types.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
