package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for veridoc.
//
// Hierarchy (highest to lowest priority): CLI flags, environment variables
// (VERIDOC_*), config file (~/.veridoc/config.yaml), defaults.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Staging  StagingConfig  `yaml:"staging" mapstructure:"staging"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Chunking ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
}

// StoreConfig selects and configures the chunk store backend
type StoreConfig struct {
	// Backend is "postgres" or "memory"
	Backend string `yaml:"backend" mapstructure:"backend"`
	// DSN is the Postgres connection string (postgres backend only)
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	// Debug enables query logging
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// StagingConfig configures the filesystem staging areas
type StagingConfig struct {
	// Dir is the root under which the unverified and verified areas live
	Dir string `yaml:"dir" mapstructure:"dir"`
	// PagesPerSubDocument bounds the size of each staged sub-document
	PagesPerSubDocument int `yaml:"pages_per_sub_document" mapstructure:"pages_per_sub_document"`
}

// LLMConfig configures the completion collaborator
type LLMConfig struct {
	// Provider is "openai" or "ollama"
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Model used for extraction, verdicts, rephrasing and answers
	Model string `yaml:"model" mapstructure:"model"`
	// APIKey for OpenAI-compatible endpoints (env OPENAI_API_KEY wins)
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout per completion call
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxTokens limits response length
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// RequestsPerSecond throttles completion and embedding calls
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// Burst for the rate limiter
	Burst int `yaml:"burst" mapstructure:"burst"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// SearchConfig configures semantic search over the verified corpus
type SearchConfig struct {
	// Limit is the fixed number of evidence chunks retrieved per query
	Limit int `yaml:"limit" mapstructure:"limit"`
	// EmbeddingModel names the embedding model
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	// IndexDir is where the persistent vector index lives
	IndexDir string `yaml:"index_dir" mapstructure:"index_dir"`
	// CacheDir is where cached embeddings live ("" disables the disk layer)
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	// CacheTTL bounds how long cached embeddings are reused
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ChunkingConfig configures how staged sub-documents become chunks
type ChunkingConfig struct {
	// MaxChars bounds chunk size
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars"`
	// OverlapSentences carried over between adjacent chunks
	OverlapSentences int `yaml:"overlap_sentences" mapstructure:"overlap_sentences"`
	// RefreshRetries bounds how often chunk extraction re-checks a lagging
	// staging area before giving up
	RefreshRetries int `yaml:"refresh_retries" mapstructure:"refresh_retries"`
	// RefreshDelay between retries
	RefreshDelay time.Duration `yaml:"refresh_delay" mapstructure:"refresh_delay"`
}

// VerifyConfig holds the decision policy tunables
type VerifyConfig struct {
	// ChunkThreshold is the per-chunk score cutoff in [0,1]
	ChunkThreshold float64 `yaml:"chunk_threshold" mapstructure:"chunk_threshold"`
	// ChunksPercent is the fraction of chunks that must clear the cutoff
	// for document-level acceptance
	ChunksPercent float64 `yaml:"chunks_percent" mapstructure:"chunks_percent"`
	// Concurrency bounds in-flight per-statement verification calls
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "memory",
		},
		Staging: StagingConfig{
			Dir:                 ".veridoc/staging",
			PagesPerSubDocument: 200,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			MaxTokens:         1024,
			RequestsPerSecond: 4,
			Burst:             4,
		},
		Search: SearchConfig{
			Limit:          3,
			EmbeddingModel: "text-embedding-3-small",
			IndexDir:       ".veridoc/index",
			CacheDir:       ".veridoc/cache",
			CacheTTL:       30 * 24 * time.Hour,
		},
		Chunking: ChunkingConfig{
			MaxChars:         1500,
			OverlapSentences: 1,
			RefreshRetries:   3,
			RefreshDelay:     2 * time.Second,
		},
		Verify: VerifyConfig{
			ChunkThreshold: 0.9,
			ChunksPercent:  1.0,
			Concurrency:    4,
		},
	}
}

// FromViper layers viper-provided values (config file, VERIDOC_* env) on top
// of the defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
