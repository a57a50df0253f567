package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"lookuply-search-api/internal/models"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// MeilisearchOptions configures the Meilisearch client.
type MeilisearchOptions struct {
	URL        string
	APIKey     string
	Index      string
	Timeout    time.Duration
	MaxRetries int
}

// MeilisearchClient queries a single Meilisearch index.
type MeilisearchClient struct {
	client     *meilisearch.Client
	index      *meilisearch.Index
	maxRetries int
	logger     *zap.Logger
}

func NewMeilisearchClient(opts MeilisearchOptions, logger *zap.Logger) *MeilisearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:    opts.URL,
		APIKey:  opts.APIKey,
		Timeout: opts.Timeout,
	})
	return &MeilisearchClient{
		client:     client,
		index:      client.Index(opts.Index),
		maxRetries: opts.MaxRetries,
		logger:     logger.Named("meilisearch"),
	}
}

type meiliHit struct {
	ID           json.RawMessage `json:"id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	URL          string          `json:"url"`
	RankingScore float64         `json:"_rankingScore"`
}

type meiliResponse struct {
	Hits []meiliHit `json:"hits"`
}

// Search runs query against the index, asking Meilisearch for its ranking
// score. An empty query matches every document.
func (m *MeilisearchClient) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	req := &meilisearch.SearchRequest{
		Limit:            int64(limit),
		ShowRankingScore: true,
	}

	var raw *json.RawMessage
	var err error
	attempts := m.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctxErr)
		}
		raw, err = m.index.SearchRaw(query, req)
		if err == nil {
			break
		}
		m.logger.Warn("search attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("attempts", attempts),
			zap.String("error_type", fmt.Sprintf("%T", err)),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	var resp meiliResponse
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	hits := make([]models.SearchHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		hits = append(hits, models.SearchHit{
			ID:      normalizeID(h.ID),
			Title:   h.Title,
			Content: h.Content,
			URL:     h.URL,
			Score:   clampScore(h.RankingScore),
		})
	}
	return hits, nil
}

// HealthCheck reports whether Meilisearch answers with status "available".
func (m *MeilisearchClient) HealthCheck(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	health, err := m.client.Health()
	if err != nil || health == nil {
		return false
	}
	return health.Status == "available"
}

// IndexDocuments enqueues docs for indexing. Meilisearch applies them
// asynchronously; the returned task is only logged.
func (m *MeilisearchClient) IndexDocuments(ctx context.Context, docs []models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	task, err := m.index.AddDocuments(docs, "id")
	if err != nil {
		return fmt.Errorf("%w: add documents: %v", ErrUnavailable, err)
	}
	m.logger.Info("documents enqueued",
		zap.Int("count", len(docs)),
		zap.Int64("task_uid", task.TaskUID),
	)
	return nil
}

// normalizeID renders string and numeric primary keys alike.
func normalizeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(raw)
}
