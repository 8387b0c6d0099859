// Package config loads service settings from defaults, an optional config
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Vector backends.
const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// LLM providers.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds every setting of the api server and the CLI. Keys match
// the lower-cased environment variable names.
type Config struct {
	Port       string `mapstructure:"port"`
	LogLevel   string `mapstructure:"log_level"`
	CORSOrigin string `mapstructure:"cors_origin"`
	NATSURL    string `mapstructure:"nats_url"`

	VectorBackend    string `mapstructure:"vector_backend"`
	QdrantURL        string `mapstructure:"qdrant_url"`
	QdrantCollection string `mapstructure:"qdrant_collection"`
	QdrantAPIKey     string `mapstructure:"qdrant_api_key"`
	QdrantTLS        bool   `mapstructure:"qdrant_tls"`
	CatalogFile      string `mapstructure:"catalog_file"`
	EmbedDimensions  int    `mapstructure:"embed_dimensions"`

	LLMProvider  string  `mapstructure:"llm_provider"`
	LLMRPS       float64 `mapstructure:"llm_rps"`
	GroqAPIKey   string  `mapstructure:"groq_api_key"`
	GroqModel    string  `mapstructure:"groq_model"`
	GroqBaseURL  string  `mapstructure:"groq_base_url"`
	GeminiAPIKey string  `mapstructure:"gemini_api_key"`
	GeminiModel  string  `mapstructure:"gemini_model"`

	SearchTimeout    time.Duration `mapstructure:"search_timeout"`
	ExplainTimeout   time.Duration `mapstructure:"explain_timeout"`
	TopK             int           `mapstructure:"top_k"`
	BatchTopK        int           `mapstructure:"batch_top_k"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

var defaults = map[string]any{
	"port":        "8080",
	"log_level":   "info",
	"cors_origin": "*",
	"nats_url":    "",

	"vector_backend":    BackendQdrant,
	"qdrant_url":        "localhost:6334",
	"qdrant_collection": "occupations",
	"qdrant_api_key":    "",
	"qdrant_tls":        false,
	"catalog_file":      "",
	"embed_dimensions":  384,

	"llm_provider":   ProviderGroq,
	"llm_rps":        0.5,
	"groq_api_key":   "",
	"groq_model":     "",
	"groq_base_url":  "",
	"gemini_api_key": "",
	"gemini_model":   "",

	"search_timeout":    "5s",
	"explain_timeout":   "30s",
	"top_k":             3,
	"batch_top_k":       5,
	"batch_concurrency": 10,
	"cache_ttl":         "5m",
}

// New returns a viper instance with defaults registered and environment
// lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (if non-empty) into v and decodes the merged settings.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.VectorBackend = strings.ToLower(strings.TrimSpace(cfg.VectorBackend))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load with a fresh instance and no file.
func FromEnv() (Config, error) {
	return Load(New(), "")
}

// Validate rejects settings the service cannot start with. A provider
// without an API key is allowed; explanations then fall back.
func (c Config) Validate() error {
	var errs []error
	switch c.VectorBackend {
	case BackendQdrant:
		if c.QdrantURL == "" {
			errs = append(errs, errors.New("qdrant_url is required for the qdrant backend"))
		}
		if c.QdrantCollection == "" {
			errs = append(errs, errors.New("qdrant_collection is required for the qdrant backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("vector_backend %q: want qdrant or memory", c.VectorBackend))
	}
	switch c.LLMProvider {
	case ProviderGroq, ProviderGemini, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("llm_provider %q: want groq, gemini or none", c.LLMProvider))
	}
	if c.EmbedDimensions <= 0 {
		errs = append(errs, fmt.Errorf("embed_dimensions must be positive, got %d", c.EmbedDimensions))
	}
	if c.TopK <= 0 || c.BatchTopK <= 0 {
		errs = append(errs, errors.New("top_k and batch_top_k must be positive"))
	}
	if c.BatchConcurrency < 1 || c.BatchConcurrency > 10 {
		errs = append(errs, fmt.Errorf("batch_concurrency must be in 1..10, got %d", c.BatchConcurrency))
	}
	if c.SearchTimeout <= 0 || c.ExplainTimeout <= 0 {
		errs = append(errs, errors.New("search_timeout and explain_timeout must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache_ttl must not be negative"))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level is LogLevel as a slog level, Info when unparsable.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
