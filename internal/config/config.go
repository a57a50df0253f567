// Package config provides application configuration management using koanf
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto configuration keys. Nested keys are separated by a double underscore:
// LOOKUPLY_SERVICES__OLLAMA__MODEL sets services.ollama.model.
const EnvPrefix = "LOOKUPLY_"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Services ServicesConfig `koanf:"services"`
	Search   SearchConfig   `koanf:"search"`
	Cache    CacheConfig    `koanf:"cache"`
	Privacy  PrivacyConfig  `koanf:"privacy"`
	App      AppConfig      `koanf:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `koanf:"host"`
	Port         int      `koanf:"port"`
	ReadTimeout  int      `koanf:"read_timeout"`  // seconds
	WriteTimeout int      `koanf:"write_timeout"` // seconds
	CORSOrigins  []string `koanf:"cors_origins"`
}

// ServicesConfig holds external service configuration
type ServicesConfig struct {
	Meilisearch MeilisearchConfig `koanf:"meilisearch"`
	Ollama      OllamaConfig      `koanf:"ollama"`
}

// MeilisearchConfig holds search index connection settings
type MeilisearchConfig struct {
	URL        string `koanf:"url"`
	Key        string `koanf:"key"`
	Index      string `koanf:"index"`
	Timeout    int    `koanf:"timeout"` // seconds
	MaxRetries int    `koanf:"max_retries"`
}

// OllamaConfig holds Ollama service configuration
type OllamaConfig struct {
	BaseURL    string `koanf:"base_url"`
	Model      string `koanf:"model"`
	Timeout    int    `koanf:"timeout"` // seconds
	MaxRetries int    `koanf:"max_retries"`
}

// SearchConfig holds search behaviour settings
type SearchConfig struct {
	Backend           string  `koanf:"backend"`   // "meilisearch" or "bleve"
	SeedFile          string  `koanf:"seed_file"` // documents loaded into the bleve backend
	DefaultLimit      int     `koanf:"default_limit"`
	MaxLimit          int     `koanf:"max_limit"`
	BroadFetchLimit   int     `koanf:"broad_fetch_limit"`
	MinRelevanceScore float64 `koanf:"min_relevance_score"`
}

// CacheConfig controls the query_id result cache
type CacheConfig struct {
	Enabled         bool `koanf:"enabled"`
	TTL             int  `koanf:"ttl"`              // seconds
	CleanupInterval int  `koanf:"cleanup_interval"` // seconds
}

// PrivacyConfig holds privacy settings. Nothing here enables user tracking.
type PrivacyConfig struct {
	LogUserQueries  bool `koanf:"log_user_queries"`
	EnableAnalytics bool `koanf:"enable_analytics"`
}

// AppConfig holds general application settings
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // "development", "staging", "production"
	LogLevel    string `koanf:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat   string `koanf:"log_format"`  // "console" or "json"
	LogFile     string `koanf:"log_file"`    // optional rotating log file
}

// Load loads configuration from multiple sources with precedence:
// 1. Defaults
// 2. config.yaml / config.json, or the explicit path when given
// 3. .env file (if exists)
// 4. Environment variables (highest precedence)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	setDefaults(k)

	if err := loadConfigFiles(k, path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func transformEnv(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if strings.HasSuffix(key, "cors_origins") {
		return key, strings.Split(v, ",")
	}
	return key, v
}

// setDefaults sets default configuration values
func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"server.host":          "0.0.0.0",
		"server.port":          8002,
		"server.read_timeout":  30,
		"server.write_timeout": 90,
		"server.cors_origins":  []string{"http://localhost:3000", "https://lookuply.info"},

		"services.meilisearch.url":         "http://localhost:7700",
		"services.meilisearch.key":         "",
		"services.meilisearch.index":       "pages",
		"services.meilisearch.timeout":     5,
		"services.meilisearch.max_retries": 0,
		"services.ollama.base_url":         "http://localhost:11434",
		"services.ollama.model":            "llama3.1:8b-instruct-q4_K_M",
		"services.ollama.timeout":          60,
		"services.ollama.max_retries":      0,

		"search.backend":             "meilisearch",
		"search.seed_file":           "",
		"search.default_limit":       10,
		"search.max_limit":           50,
		"search.broad_fetch_limit":   100,
		"search.min_relevance_score": 0.0,

		"cache.enabled":          true,
		"cache.ttl":              600,
		"cache.cleanup_interval": 60,

		"privacy.log_user_queries": false,
		"privacy.enable_analytics": false,

		"app.name":        "Lookuply Search API",
		"app.version":     "0.1.0",
		"app.environment": "development",
		"app.log_level":   "info",
		"app.log_format":  "console",
		"app.log_file":    "",
	}

	for key, value := range defaults {
		_ = k.Set(key, value) // Ignore error for setting defaults
	}
}

// loadConfigFiles loads configuration from files. An explicit path must
// exist; the default locations are optional.
func loadConfigFiles(k *koanf.Koanf, path string) error {
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
		return nil
	}

	for _, name := range []string{"config.yaml", "config.json"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		parser, _ := parserFor(name)
		if err := k.Load(file.Provider(name), parser); err != nil {
			return fmt.Errorf("error loading %s: %w", name, err)
		}
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", path)
	}
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", cfg.Server.Port)
	}

	switch cfg.Search.Backend {
	case "meilisearch":
		if cfg.Services.Meilisearch.URL == "" {
			return fmt.Errorf("meilisearch url is required when search backend is meilisearch")
		}
		if cfg.Services.Meilisearch.Index == "" {
			return fmt.Errorf("meilisearch index is required when search backend is meilisearch")
		}
	case "bleve":
	default:
		return fmt.Errorf("unknown search backend: %q", cfg.Search.Backend)
	}

	if cfg.Services.Ollama.BaseURL == "" || cfg.Services.Ollama.Model == "" {
		return fmt.Errorf("ollama base url and model are required")
	}
	if cfg.Services.Ollama.Timeout <= 0 {
		return fmt.Errorf("ollama timeout must be positive")
	}
	if cfg.Services.Ollama.MaxRetries < 0 || cfg.Services.Meilisearch.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if cfg.Search.DefaultLimit < 1 || cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		return fmt.Errorf("search limits must satisfy 1 <= default_limit <= max_limit")
	}
	if cfg.Search.BroadFetchLimit < 1 {
		return fmt.Errorf("search broad_fetch_limit must be positive")
	}
	if cfg.Search.MinRelevanceScore < 0 || cfg.Search.MinRelevanceScore > 1 {
		return fmt.Errorf("search min_relevance_score must be within [0, 1]")
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when the cache is enabled")
	}

	return nil
}

// Addr returns the host:port the HTTP server binds to
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ReadTimeout returns the HTTP server read timeout as a duration
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

// WriteTimeout returns the HTTP server write timeout as a duration
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}

// OllamaTimeout returns the generation timeout as a duration
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Services.Ollama.Timeout) * time.Second
}

// MeilisearchTimeout returns the search timeout as a duration
func (c *Config) MeilisearchTimeout() time.Duration {
	return time.Duration(c.Services.Meilisearch.Timeout) * time.Second
}

// CacheTTL returns the result cache expiration as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// CacheCleanupInterval returns how often expired cache entries are purged
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.Cache.CleanupInterval) * time.Second
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
