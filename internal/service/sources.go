package service

import (
	"context"

	"lookuply-search-api/internal/models"

	"go.uber.org/zap"
)

// ResolveSources maps client-supplied source ids back to hits. The hit set
// cached under queryID is tried first; otherwise the index is re-queried
// with an empty query and BroadFetchLimit, and filtered by id. On that path
// ids beyond the first BroadFetchLimit documents cannot be resolved.
//
// The result keeps index ranking order and drops duplicates. An empty
// result is not an error.
func (s *Service) ResolveSources(ctx context.Context, queryID string, ids []string) ([]models.SearchHit, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	if s.store != nil && queryID != "" {
		cached, ok := s.store.Get(queryID)
		if ok {
			if matched := filterHits(cached, want); len(matched) > 0 {
				s.recorder.ObserveCacheLookup(true)
				return matched, nil
			}
			s.logger.Debug("cached results did not cover requested sources",
				zap.Int("requested", len(want)),
			)
		}
		s.recorder.ObserveCacheLookup(false)
	}

	broad, err := s.searchIndex(ctx, "", s.opts.BroadFetchLimit)
	if err != nil {
		return nil, err
	}
	return filterHits(broad, want), nil
}

func filterHits(hits []models.SearchHit, want map[string]struct{}) []models.SearchHit {
	matched := make([]models.SearchHit, 0, len(want))
	seen := make(map[string]struct{}, len(want))
	for _, h := range hits {
		if _, ok := want[h.ID]; !ok {
			continue
		}
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		matched = append(matched, h)
	}
	return matched
}
