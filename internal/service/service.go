// Package service implements the two-phase search/summarize flow and the
// legacy combined chat flow on top of the search and answer gateways.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"lookuply-search-api/internal/logging"
	"lookuply-search-api/internal/metrics"
	"lookuply-search-api/internal/models"
	"lookuply-search-api/internal/rag"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchGateway issues queries against the search index.
type SearchGateway interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
}

// AnswerGateway generates text with the language model.
type AnswerGateway interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// ResultStore parks the hits of a search phase under its query_id.
type ResultStore interface {
	Save(queryID string, hits []models.SearchHit)
	Get(queryID string) ([]models.SearchHit, bool)
}

// Recorder receives backend and fallback observations.
type Recorder interface {
	ObserveBackend(backend string, err error, d time.Duration)
	IncFallback()
	ObserveCacheLookup(hit bool)
}

// Options holds the limits the orchestration enforces.
type Options struct {
	DefaultLimit      int
	MaxLimit          int
	ChatLimit         int
	BroadFetchLimit   int
	MinRelevanceScore float64
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		DefaultLimit:    10,
		MaxLimit:        50,
		ChatLimit:       5,
		BroadFetchLimit: 100,
	}
}

type Service struct {
	search   SearchGateway
	answers  AnswerGateway
	store    ResultStore
	recorder Recorder
	logger   *zap.Logger
	opts     Options
	newID    func() string
}

// New wires the orchestrator. store and recorder may be nil: without a store
// every summarize call falls back to the broad re-fetch.
func New(search SearchGateway, answers AnswerGateway, store ResultStore, recorder Recorder, logger *zap.Logger, opts Options) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		search:   search,
		answers:  answers,
		store:    store,
		recorder: recorder,
		logger:   logger.Named("service"),
		opts:     opts,
		newID:    uuid.NewString,
	}
}

// Search is the fast phase: one index query, no generation. The hits are
// kept under the returned query_id for the summarize phase.
func (s *Service) Search(ctx context.Context, query, language string, limit int) (*models.SearchResponse, error) {
	limit = s.clampLimit(limit, s.opts.DefaultLimit)

	hits, err := s.searchIndex(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.opts.MinRelevanceScore {
			continue
		}
		sources = append(sources, toSource(h))
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].RelevanceScore > sources[j].RelevanceScore
	})
	if len(sources) > limit {
		sources = sources[:limit]
	}

	queryID := s.newID()
	if s.store != nil {
		s.store.Save(queryID, hits)
	}

	s.logger.Info("search completed",
		logging.Query(query),
		zap.String("language", language),
		zap.Int("results", len(sources)),
	)

	return &models.SearchResponse{Sources: sources, QueryID: queryID}, nil
}

// SummarizeInput carries a validated summarize request.
type SummarizeInput struct {
	Query     string
	Language  string
	QueryID   string
	SourceIDs []string
}

// Summarize is the slow phase: resolve the requested sources, ground a
// prompt on them and generate one answer.
func (s *Service) Summarize(ctx context.Context, in SummarizeInput) (*models.SummarizeResponse, error) {
	hits, err := s.ResolveSources(ctx, in.QueryID, in.SourceIDs)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		s.logger.Warn("no sources resolved for summarize",
			zap.Int("requested", len(in.SourceIDs)),
		)
	}

	answer, err := s.ground(ctx, hits, func(grounding string) string {
		return rag.SummarizePrompt(in.Query, grounding, in.Language)
	}, rag.SummarizeSystemPrompt)
	if err != nil {
		return nil, err
	}

	return &models.SummarizeResponse{Answer: answer, QueryID: in.QueryID}, nil
}

// Chat is the legacy single-call flow: search, ground on every hit, answer,
// and cite the top three.
func (s *Service) Chat(ctx context.Context, query string, limit int) (*models.ChatResponse, error) {
	limit = s.clampLimit(limit, s.opts.ChatLimit)

	hits, err := s.searchIndex(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	answer, err := s.ground(ctx, hits, func(grounding string) string {
		return rag.ChatPrompt(query, grounding)
	}, rag.ChatSystemPrompt)
	if err != nil {
		return nil, err
	}

	sources := make([]models.ChatSource, 0, 3)
	for _, h := range hits {
		if len(sources) == 3 {
			break
		}
		sources = append(sources, models.ChatSource{
			Title:   h.Title,
			URL:     h.URL,
			Snippet: rag.Truncate(h.Content, rag.SnippetLength),
		})
	}

	return &models.ChatResponse{Answer: answer, Sources: sources, Query: query}, nil
}

// ground renders hits as context and asks the model once. Without context
// the static fallback is returned and the model is not called.
func (s *Service) ground(ctx context.Context, hits []models.SearchHit, prompt func(grounding string) string, system string) (string, error) {
	grounding := rag.BuildContext(hits)
	if grounding == "" {
		s.recorder.IncFallback()
		return rag.FallbackAnswer, nil
	}

	start := time.Now()
	answer, err := s.answers.Generate(ctx, prompt(grounding), system)
	s.recorder.ObserveBackend(metrics.BackendLLM, err, time.Since(start))
	if err != nil {
		return "", err
	}

	s.logger.Info("answer generated",
		zap.Int("sources", len(hits)),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(answer), nil
}

func (s *Service) searchIndex(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	start := time.Now()
	hits, err := s.search.Search(ctx, query, limit)
	s.recorder.ObserveBackend(metrics.BackendSearch, err, time.Since(start))
	return hits, err
}

func (s *Service) clampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if s.opts.MaxLimit > 0 && limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	return limit
}

func toSource(h models.SearchHit) models.Source {
	return models.Source{
		ID:             h.ID,
		Title:          h.Title,
		URL:            h.URL,
		Snippet:        rag.Snippet(h.Content),
		RelevanceScore: h.Score,
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveBackend(string, error, time.Duration) {}
func (nopRecorder) IncFallback()                                {}
func (nopRecorder) ObserveCacheLookup(bool)                     {}
