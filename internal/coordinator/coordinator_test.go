package coordinator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lib.db")
	emb := embedder.NewHashProjection(16)
	scorer := llmscore.NewHeuristic()

	c, err := Open(context.Background(), "lib", dbPath, emb, scorer,
		search.Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32},
		cognitive.Config{QueueCapacity: 16, BatchSize: 4, BatchTimeout: 50 * time.Millisecond, CacheSize: 100, CacheTTL: time.Minute},
		decay.Config{Lambda: 0.1, Floor: 0.05, Interval: time.Hour},
		nil,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func TestCoordinator_AddMemory_PersistsAndReturnsRow(t *testing.T) {
	c := testCoordinator(t)

	mem, err := c.AddMemory(context.Background(), "a fact worth remembering", domain.TypeEpisodic)
	require.NoError(t, err)
	assert.NotEmpty(t, mem.ID)
	assert.Equal(t, float32(1.0), mem.Importance)
}

func TestCoordinator_AddMemory_DedupsConcurrentIdenticalContent(t *testing.T) {
	c := testCoordinator(t)

	var ids [2]string
	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func(idx int) {
			mem, err := c.AddMemory(context.Background(), "same content twice", domain.TypeEpisodic)
			require.NoError(t, err)
			ids[idx] = mem.ID
			done <- struct{}{}
		}(i)
	}
	<-done
	<-done

	assert.Equal(t, ids[0], ids[1])

	count, err := c.Store().Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCoordinator_SearchMemories_FindsAddedContent(t *testing.T) {
	c := testCoordinator(t)

	_, err := c.AddMemory(context.Background(), "the quick brown fox", domain.TypeSemantic)
	require.NoError(t, err)

	results, err := c.SearchMemories(context.Background(), "quick brown fox", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestCoordinator_SearchMemories_WithRelatedPopulatesRelated(t *testing.T) {
	c := testCoordinator(t)

	a, err := c.AddMemory(context.Background(), "the quick brown fox", domain.TypeSemantic)
	require.NoError(t, err)
	b, err := c.AddMemory(context.Background(), "jumps over the lazy dog", domain.TypeSemantic)
	require.NoError(t, err)
	_, err = c.Store().AddEdge(&domain.EntanglementEdge{
		SourceID: a.ID,
		TargetID: b.ID,
		Kind:     domain.RelationshipEntangled,
		Strength: 0.9,
	})
	require.NoError(t, err)

	results, err := c.SearchMemories(context.Background(), "quick brown fox", 5, true)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var top *domain.RecallResult
	for i := range results {
		if results[i].ID == a.ID {
			top = &results[i]
		}
	}
	require.NotNil(t, top, "expected the fox memory among results")
	require.Len(t, top.Related, 1)
	assert.Equal(t, b.ID, top.Related[0].ID)
}
