package cmd

import (
	"fmt"

	"lookuply-search-api/internal/config"
	"lookuply-search-api/internal/llm"
	"lookuply-search-api/internal/logging"
	"lookuply-search-api/internal/search"

	"go.uber.org/zap"
)

// app bundles what every command needs: configuration, a logger and the
// search backend.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend search.Backend
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:         cfg.App.LogLevel,
		Format:        cfg.App.LogFormat,
		File:          cfg.App.LogFile,
		RevealQueries: cfg.Privacy.LogUserQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	backend, err := search.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init search backend: %w", err)
	}

	return &app{cfg: cfg, logger: logger, backend: backend}, nil
}

func (a *app) ollama() *llm.OllamaClient {
	return llm.NewOllamaClient(llm.OllamaOptions{
		BaseURL:    a.cfg.Services.Ollama.BaseURL,
		Model:      a.cfg.Services.Ollama.Model,
		Timeout:    a.cfg.OllamaTimeout(),
		MaxRetries: a.cfg.Services.Ollama.MaxRetries,
	}, a.logger)
}

func (a *app) close() {
	if c, ok := a.backend.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("closing search backend", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
