// Package search wraps the search index backends. Every backend maps its raw
// hits into models.SearchHit with a score inside [0, 1].
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"lookuply-search-api/internal/config"
	"lookuply-search-api/internal/models"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when the index cannot be reached or answers with
// something that cannot be decoded.
var ErrUnavailable = errors.New("search index unavailable")

// Backend is implemented by the Meilisearch client and the embedded bleve
// index.
type Backend interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
	HealthCheck(ctx context.Context) bool
	IndexDocuments(ctx context.Context, docs []models.Document) error
}

// New builds the backend selected by search.backend.
func New(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Search.Backend {
	case "meilisearch":
		return NewMeilisearchClient(MeilisearchOptions{
			URL:        cfg.Services.Meilisearch.URL,
			APIKey:     cfg.Services.Meilisearch.Key,
			Index:      cfg.Services.Meilisearch.Index,
			Timeout:    cfg.MeilisearchTimeout(),
			MaxRetries: cfg.Services.Meilisearch.MaxRetries,
		}, logger), nil
	case "bleve":
		idx, err := NewBleveIndex(logger)
		if err != nil {
			return nil, err
		}
		if cfg.Search.SeedFile != "" {
			docs, err := LoadDocuments(cfg.Search.SeedFile)
			if err != nil {
				return nil, err
			}
			if err := idx.IndexDocuments(context.Background(), docs); err != nil {
				return nil, fmt.Errorf("seed bleve index: %w", err)
			}
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown search backend: %q", cfg.Search.Backend)
	}
}

// LoadDocuments reads a JSON array of documents from path.
func LoadDocuments(path string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open documents: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadDocuments(f)
}

// ReadDocuments decodes a JSON array of documents. Documents without an id
// are rejected since the summarize phase correlates on it.
func ReadDocuments(r io.Reader) ([]models.Document, error) {
	var docs []models.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	for i, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("document %d has no id", i)
		}
	}
	return docs, nil
}

// clampScore bounds a raw relevance score to [0, 1].
func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
