package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8002", cfg.Addr())
	assert.Equal(t, "pages", cfg.Services.Meilisearch.Index)
	assert.Equal(t, "llama3.1:8b-instruct-q4_K_M", cfg.Services.Ollama.Model)
	assert.Equal(t, 60*time.Second, cfg.OllamaTimeout())
	assert.Equal(t, 0, cfg.Services.Ollama.MaxRetries)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 100, cfg.Search.BroadFetchLimit)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	assert.False(t, cfg.Privacy.LogUserQueries)
	assert.ElementsMatch(t, []string{"http://localhost:3000", "https://lookuply.info"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlCfg := []byte(`
server:
  port: 9000
services:
  ollama:
    model: from-file
    timeout: 30
app:
  environment: production
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yamlCfg, 0o600))

	t.Setenv("LOOKUPLY_SERVICES__OLLAMA__MODEL", "from-env")
	t.Setenv("LOOKUPLY_PRIVACY__LOG_USER_QUERIES", "true")
	t.Setenv("LOOKUPLY_SERVER__CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port, "file overrides defaults")
	assert.Equal(t, 30*time.Second, cfg.OllamaTimeout(), "file overrides defaults")
	assert.Equal(t, "from-env", cfg.Services.Ollama.Model, "environment overrides file")
	assert.True(t, cfg.Privacy.LogUserQueries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoadExplicitJSONPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search":{"backend":"bleve","seed_file":"docs.json"}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bleve", cfg.Search.Backend)
	assert.Equal(t, "docs.json", cfg.Search.SeedFile)
}

func TestLoadRejectsMissingExplicitPath(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)

	_, err = Load("config.toml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Search.Backend = "solr" }, wantErr: true},
		{name: "bleve needs no meilisearch", mutate: func(c *Config) {
			c.Search.Backend = "bleve"
			c.Services.Meilisearch.URL = ""
		}},
		{name: "missing index", mutate: func(c *Config) { c.Services.Meilisearch.Index = "" }, wantErr: true},
		{name: "missing model", mutate: func(c *Config) { c.Services.Ollama.Model = "" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Services.Ollama.MaxRetries = -1 }, wantErr: true},
		{name: "default above max", mutate: func(c *Config) { c.Search.DefaultLimit = 60 }, wantErr: true},
		{name: "min score above one", mutate: func(c *Config) { c.Search.MinRelevanceScore = 1.5 }, wantErr: true},
		{name: "cache without ttl", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: true},
		{name: "disabled cache without ttl", mutate: func(c *Config) {
			c.Cache.Enabled = false
			c.Cache.TTL = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 8002},
		Services: ServicesConfig{
			Meilisearch: MeilisearchConfig{URL: "http://localhost:7700", Index: "pages", Timeout: 5},
			Ollama:      OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3", Timeout: 60},
		},
		Search: SearchConfig{Backend: "meilisearch", DefaultLimit: 10, MaxLimit: 50, BroadFetchLimit: 100},
		Cache:  CacheConfig{Enabled: true, TTL: 600, CleanupInterval: 60},
	}
}
