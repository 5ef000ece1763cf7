package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "perspective-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search collaborator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Engines lists the engines queried when a request names none
	// (default google, bing, duckduckgo).
	Engines []string `json:"engines" yaml:"engines" mapstructure:"engines"`

	// ResultsPerQuery is the number of results requested per engine and
	// fetch category (default 15).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query" mapstructure:"results_per_query"`

	// SerpAPIKey authenticates against SerpAPI. When empty the offline
	// fixture backend is used.
	SerpAPIKey string `json:"serpapi_key,omitempty" yaml:"serpapi_key,omitempty" mapstructure:"serpapi_key"`

	// RequestsPerSecond paces SerpAPI calls across all engines (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// RecencyWindow bounds how far back a year mentioned in a snippet still
	// earns a recency boost (default 2 years).
	RecencyWindow time.Duration `json:"recency_window" yaml:"recency_window" mapstructure:"recency_window"`
}

// EnrichConfig holds settings for the enrichment orchestrator.
type EnrichConfig struct {
	// MaxConcurrency caps concurrent collaborator calls (default 8).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// ScoreTimeout, FactCheckTimeout and SummarizeTimeout bound a single
	// collaborator call of each kind.
	ScoreTimeout     time.Duration `json:"score_timeout" yaml:"score_timeout" mapstructure:"score_timeout"`
	FactCheckTimeout time.Duration `json:"fact_check_timeout" yaml:"fact_check_timeout" mapstructure:"fact_check_timeout"`
	SummarizeTimeout time.Duration `json:"summarize_timeout" yaml:"summarize_timeout" mapstructure:"summarize_timeout"`
}

// AIConfig holds shared settings for the fact-check and summarize
// collaborators.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens caps each response (default 1024).
	MaxTokens int64 `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxPageChars truncates fetched page text before it is sent (default 8000).
	MaxPageChars int `json:"max_page_chars" yaml:"max_page_chars" mapstructure:"max_page_chars"`
}

// ArchiveConfig holds settings for the search history archive.
type ArchiveConfig struct {
	// Dir is the directory holding the archive database (default "data").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Disabled turns off archiving of completed searches.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// ViewConfig holds display defaults.
type ViewConfig struct {
	// DefaultFilter is the perspective filter applied when none is given.
	DefaultFilter string `json:"default_filter" yaml:"default_filter" mapstructure:"default_filter"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings. It is loaded once at startup and replaced
// wholesale, never patched field by field.
type Config struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Enrich  EnrichConfig  `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Archive ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
	View    ViewConfig    `json:"view" yaml:"view" mapstructure:"view"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
