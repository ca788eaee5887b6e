package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/config"
	"github.com/certhq/certify/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const candidateCacheKey = "search:candidates"

// autoCorrectThreshold is the minimum similarity for an identifier correction.
const autoCorrectThreshold = 70

// CandidateSource loads searchable certificate projections
type CandidateSource interface {
	ListSearchCandidates(ctx context.Context, limit int) ([]*certificates.SearchCandidate, error)
}

// SuggestionsResult is the response payload for a suggestion query
type SuggestionsResult struct {
	Suggestions []Match     `json:"suggestions"`
	Correction  *Correction `json:"correction,omitempty"`
}

// Service resolves approximate admin queries against the certificate catalog.
// The candidate set is fetched once per query (with a short-lived Redis
// cache) and matched entirely in memory; the service keeps no cross-request
// state.
type Service struct {
	source CandidateSource
	cache  redis.Cmdable
	cfg    config.SearchConfig
}

// NewService creates a new search service. cache may be nil, in which case
// candidates are loaded from the source on every query.
func NewService(source CandidateSource, cache redis.Cmdable, cfg config.SearchConfig) *Service {
	return &Service{source: source, cache: cache, cfg: cfg}
}

// Suggestions ranks the catalog against the query. Queries shorter than two
// characters yield an empty result without error.
func (s *Service) Suggestions(ctx context.Context, query string, limit int) (*SuggestionsResult, error) {
	result := &SuggestionsResult{Suggestions: []Match{}}

	if len(strings.TrimSpace(query)) < 2 {
		return result, nil
	}

	if limit <= 0 || limit > s.cfg.MaxSuggestions {
		limit = s.cfg.MaxSuggestions
	}

	candidates, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, common.NewServiceUnavailableError("certificate catalog unavailable", err)
	}

	result.Suggestions = Rank(query, candidates, RankOptions{
		Limit:         limit,
		MinSimilarity: s.cfg.MinSimilarity,
	})

	// Offer an identifier correction unless the top result already matched exactly
	if len(result.Suggestions) == 0 || result.Suggestions[0].MatchType != MatchExact {
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.CertificateID)
		}
		result.Correction = AutoCorrect(query, ids, autoCorrectThreshold)
	}

	return result, nil
}

// loadCandidates returns the bounded candidate set, via the Redis cache when
// possible. Cache failures fall back to the source.
func (s *Service) loadCandidates(ctx context.Context) ([]Candidate, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, candidateCacheKey).Result()
		if err == nil {
			var cached []Candidate
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Debug("search candidate cache read failed", zap.Error(err))
		}
	}

	rows, err := s.source.ListSearchCandidates(ctx, s.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{
			CertificateID: row.CertificateID,
			HolderName:    row.HolderName,
			HolderEmail:   row.HolderEmail,
			Category:      row.Category,
			Status:        row.Status,
		})
	}

	if s.cache != nil {
		if data, err := json.Marshal(candidates); err == nil {
			ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second
			if err := s.cache.Set(ctx, candidateCacheKey, data, ttl).Err(); err != nil {
				logger.Debug("search candidate cache write failed", zap.Error(err))
			}
		}
	}

	return candidates, nil
}
