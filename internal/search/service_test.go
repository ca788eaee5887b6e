package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/pkg/config"
)

// MockCandidateSource is a mock implementation of CandidateSource
type MockCandidateSource struct {
	mock.Mock
}

func (m *MockCandidateSource) ListSearchCandidates(ctx context.Context, limit int) ([]*certificates.SearchCandidate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*certificates.SearchCandidate), args.Error(1)
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		CandidateLimit:  500,
		CacheTTLSeconds: 30,
		MinSimilarity:   40,
		MaxSuggestions:  10,
	}
}

func sourceRows() []*certificates.SearchCandidate {
	return []*certificates.SearchCandidate{
		{CertificateID: "CF-2024-001", HolderName: "Alice Johnson", HolderEmail: "alice@example.com", Category: "backend", Status: "active"},
		{CertificateID: "CF-2024-002", HolderName: "Bob Smith", HolderEmail: "bob@example.com", Category: "frontend", Status: "active"},
	}
}

func TestSuggestions_ShortQueryReturnsEmpty(t *testing.T) {
	source := new(MockCandidateSource)
	svc := NewService(source, nil, testSearchConfig())

	result, err := svc.Suggestions(context.Background(), "a", 10)

	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
	assert.Nil(t, result.Correction)
	source.AssertNotCalled(t, "ListSearchCandidates")
}

func TestSuggestions_WhitespaceOnlyQueryReturnsEmpty(t *testing.T) {
	source := new(MockCandidateSource)
	svc := NewService(source, nil, testSearchConfig())

	result, err := svc.Suggestions(context.Background(), "   ", 10)

	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
}

func TestSuggestions_RanksFromSource(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(sourceRows(), nil)

	svc := NewService(source, nil, testSearchConfig())

	result, err := svc.Suggestions(context.Background(), "CF-2024-001", 10)

	require.NoError(t, err)
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "CF-2024-001", result.Suggestions[0].Candidate.CertificateID)
	assert.Equal(t, MatchExact, result.Suggestions[0].MatchType)
	assert.Nil(t, result.Correction, "exact top match should not carry a correction")
	source.AssertExpectations(t)
}

func TestSuggestions_OffersCorrectionForTypo(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(sourceRows(), nil)

	svc := NewService(source, nil, testSearchConfig())

	result, err := svc.Suggestions(context.Background(), "CF-2O24-0O1", 10)

	require.NoError(t, err)
	require.NotNil(t, result.Correction)
	assert.Equal(t, "CF-2024-001", result.Correction.Suggestion)
}

func TestSuggestions_LimitCapped(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(sourceRows(), nil)

	cfg := testSearchConfig()
	cfg.MaxSuggestions = 1
	svc := NewService(source, nil, cfg)

	result, err := svc.Suggestions(context.Background(), "CF-2024", 99)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Suggestions), 1)
}

func TestSuggestions_SourceErrorSurfaces(t *testing.T) {
	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(nil, errors.New("connection refused"))

	svc := NewService(source, nil, testSearchConfig())

	_, err := svc.Suggestions(context.Background(), "alice", 10)
	assert.Error(t, err)
}

func TestLoadCandidates_CacheHitSkipsSource(t *testing.T) {
	cached := []Candidate{
		{CertificateID: "CF-2024-001", HolderName: "Alice Johnson"},
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet(candidateCacheKey).SetVal(string(data))

	source := new(MockCandidateSource)
	svc := NewService(source, cache, testSearchConfig())

	candidates, err := svc.loadCandidates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, cached, candidates)
	source.AssertNotCalled(t, "ListSearchCandidates")
	assert.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestLoadCandidates_CacheMissFallsThroughAndWrites(t *testing.T) {
	rows := sourceRows()
	expected := []Candidate{
		{CertificateID: "CF-2024-001", HolderName: "Alice Johnson", HolderEmail: "alice@example.com", Category: "backend", Status: "active"},
		{CertificateID: "CF-2024-002", HolderName: "Bob Smith", HolderEmail: "bob@example.com", Category: "frontend", Status: "active"},
	}
	data, err := json.Marshal(expected)
	require.NoError(t, err)

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet(candidateCacheKey).RedisNil()
	cacheMock.ExpectSet(candidateCacheKey, data, 30*time.Second).SetVal("OK")

	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(rows, nil)

	svc := NewService(source, cache, testSearchConfig())

	candidates, err := svc.loadCandidates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, candidates)
	source.AssertExpectations(t)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestLoadCandidates_CacheErrorFallsBackToSource(t *testing.T) {
	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet(candidateCacheKey).SetErr(errors.New("redis down"))

	source := new(MockCandidateSource)
	source.On("ListSearchCandidates", mock.Anything, 500).Return(sourceRows(), nil)

	svc := NewService(source, cache, testSearchConfig())

	candidates, err := svc.loadCandidates(context.Background())

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}
