package search

import (
	"context"
	"fmt"
	"strings"

	"lookuply-search-api/internal/models"

	"github.com/blevesearch/bleve"
	"go.uber.org/zap"
)

// BleveIndex is an in-memory full-text index for running without a
// Meilisearch server. Scores are BM25-like and unbounded, so they are
// rescaled against the best hit of each result set.
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

func NewBleveIndex(logger *zap.Logger) (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndex{index: index, logger: logger.Named("bleve")}, nil
}

func (b *BleveIndex) IndexDocuments(ctx context.Context, docs []models.Document) error {
	batch := b.index.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(d.ID, map[string]interface{}{
			"title":   d.Title,
			"content": d.Content,
			"url":     d.URL,
		}); err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	b.logger.Info("documents indexed", zap.Int("count", len(docs)))
	return nil
}

func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	if q := strings.TrimSpace(query); q != "" {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), limit, 0, false)
	}
	req.Fields = []string{"title", "content", "url"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var best float64
	for _, h := range res.Hits {
		if h.Score > best {
			best = h.Score
		}
	}

	hits := make([]models.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		score := 0.0
		if best > 0 {
			score = h.Score / best
		}
		hits = append(hits, models.SearchHit{
			ID:      h.ID,
			Title:   stringField(h.Fields, "title"),
			Content: stringField(h.Fields, "content"),
			URL:     stringField(h.Fields, "url"),
			Score:   clampScore(score),
		})
	}
	return hits, nil
}

func (b *BleveIndex) HealthCheck(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := b.index.DocCount()
	return err == nil
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
