package search

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	candidates []storage.AnnCandidate
	touched    []string
	related    map[string][]*domain.Memory
}

func (s *stubStore) AnnSearch(_ []float32, k int) ([]storage.AnnCandidate, error) {
	if len(s.candidates) > k {
		return s.candidates[:k], nil
	}
	return s.candidates, nil
}

func (s *stubStore) TouchAccess(id string) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubStore) RelatedMemories(id string) ([]*domain.Memory, error) {
	return s.related[id], nil
}

type stubGraph struct {
	boosts map[string]float32
}

func (g *stubGraph) Boost(id string, _ map[string]struct{}) float32 {
	return g.boosts[id]
}

func TestHybridSearch_Search_OrdersByScoreDesc(t *testing.T) {
	now := time.Now()
	store := &stubStore{candidates: []storage.AnnCandidate{
		{Memory: &domain.Memory{ID: "low", Importance: 0.5, CreatedAt: now}, Similarity: 0.5},
		{Memory: &domain.Memory{ID: "high", Importance: 1.0, CreatedAt: now}, Similarity: 0.9},
	}}
	g := &stubGraph{boosts: map[string]float32{}}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query text", 2, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
}

func TestHybridSearch_Search_TieBreaksByCreatedAtThenID(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	store := &stubStore{candidates: []storage.AnnCandidate{
		{Memory: &domain.Memory{ID: "b", Importance: 1.0, CreatedAt: older}, Similarity: 0.5},
		{Memory: &domain.Memory{ID: "a", Importance: 1.0, CreatedAt: newer}, Similarity: 0.5},
	}}
	g := &stubGraph{boosts: map[string]float32{}}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query", 2, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
}

func TestHybridSearch_Search_AppliesEntanglementBoost(t *testing.T) {
	now := time.Now()
	store := &stubStore{candidates: []storage.AnnCandidate{
		{Memory: &domain.Memory{ID: "boosted", Importance: 0.5, CreatedAt: now}, Similarity: 0.5},
	}}
	g := &stubGraph{boosts: map[string]float32{"boosted": 1.0}}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query", 1, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.625, results[0].Importance, 1e-6)
}

func TestHybridSearch_Search_WithRelatedPopulatesRelated(t *testing.T) {
	now := time.Now()
	store := &stubStore{
		candidates: []storage.AnnCandidate{
			{Memory: &domain.Memory{ID: "center", Importance: 1.0, CreatedAt: now}, Similarity: 0.9},
		},
		related: map[string][]*domain.Memory{
			"center": {{ID: "neighbor", Content: "related content"}},
		},
	}
	g := &stubGraph{boosts: map[string]float32{}}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query", 1, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Related, 1)
	assert.Equal(t, "neighbor", results[0].Related[0].ID)
}

func TestHybridSearch_Search_WithoutRelatedLeavesRelatedNil(t *testing.T) {
	now := time.Now()
	store := &stubStore{
		candidates: []storage.AnnCandidate{
			{Memory: &domain.Memory{ID: "center", Importance: 1.0, CreatedAt: now}, Similarity: 0.9},
		},
		related: map[string][]*domain.Memory{
			"center": {{ID: "neighbor"}},
		},
	}
	g := &stubGraph{boosts: map[string]float32{}}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query", 1, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Related)
}

func TestHybridSearch_Search_ZeroLimitReturnsEmpty(t *testing.T) {
	store := &stubStore{}
	g := &stubGraph{}
	emb := embedder.NewHashProjection(8)

	hs := New(store, g, emb, Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32})
	results, err := hs.Search(context.Background(), "query", 0, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}
