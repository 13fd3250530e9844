package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *LibraryStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedVector(dim int, seed float32) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = seed + float32(i)*0.01
	}
	return vec
}

func TestLibraryStore_Upsert_InsertsNewMemory(t *testing.T) {
	store := openTestStore(t)

	mem := &domain.Memory{
		Content:     "hello world",
		ContentHash: 1,
		MemoryType:  domain.TypeEpisodic,
		Embedding:   fixedVector(8, 0.1),
	}

	saved, err := store.Upsert(mem)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, float32(1.0), saved.Importance)
}

func TestLibraryStore_Upsert_DedupsByContentHash(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Upsert(&domain.Memory{
		Content: "dup content", ContentHash: 42, MemoryType: domain.TypeSemantic, Embedding: fixedVector(8, 0.2),
	})
	require.NoError(t, err)

	second, err := store.Upsert(&domain.Memory{
		Content: "dup content updated", ContentHash: 42, MemoryType: domain.TypeSemantic, Embedding: fixedVector(8, 0.3),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLibraryStore_Upsert_RejectsDimMismatch(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Upsert(&domain.Memory{
		Content: "bad dim", ContentHash: 99, MemoryType: domain.TypeSemantic, Embedding: fixedVector(4, 0.1),
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestLibraryStore_GetDelete(t *testing.T) {
	store := openTestStore(t)

	saved, err := store.Upsert(&domain.Memory{
		Content: "to be deleted", ContentHash: 7, MemoryType: domain.TypeWorking, Embedding: fixedVector(8, 0.4),
	})
	require.NoError(t, err)

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "to be deleted", got.Content)

	ok, err := store.Delete(saved.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Get(saved.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	ok, err = store.Delete(saved.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLibraryStore_AnnSearch_ReturnsOrderedCandidates(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Upsert(&domain.Memory{Content: "a", ContentHash: 1, MemoryType: domain.TypeSemantic, Embedding: fixedVector(8, 0.1)})
	require.NoError(t, err)
	_, err = store.Upsert(&domain.Memory{Content: "b", ContentHash: 2, MemoryType: domain.TypeSemantic, Embedding: fixedVector(8, 0.9)})
	require.NoError(t, err)

	results, err := store.AnnSearch(fixedVector(8, 0.1), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestLibraryStore_CountByType(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Upsert(&domain.Memory{Content: "x", ContentHash: 1, MemoryType: domain.TypeEpisodic, Embedding: fixedVector(8, 0.1)})
	require.NoError(t, err)
	_, err = store.Upsert(&domain.Memory{Content: "y", ContentHash: 2, MemoryType: domain.TypeSemantic, Embedding: fixedVector(8, 0.2)})
	require.NoError(t, err)

	n, err := store.CountByType(domain.TypeEpisodic)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLibraryStore_ApplyDecay_ReducesStaleImportance(t *testing.T) {
	store := openTestStore(t)

	saved, err := store.Upsert(&domain.Memory{Content: "old", ContentHash: 1, MemoryType: domain.TypeEpisodic, Embedding: fixedVector(8, 0.1)})
	require.NoError(t, err)

	future := saved.UpdatedAt.Add(48 * time.Hour)
	touched, err := store.ApplyDecay(0.1, 0.05, future)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Less(t, got.Importance, float32(1.0))
}

func TestLibraryStore_AddEdge_And_RelatedMemories(t *testing.T) {
	store := openTestStore(t)

	a, err := store.Upsert(&domain.Memory{Content: "a", ContentHash: 1, MemoryType: domain.TypeEpisodic, Embedding: fixedVector(8, 0.1)})
	require.NoError(t, err)
	b, err := store.Upsert(&domain.Memory{Content: "b", ContentHash: 2, MemoryType: domain.TypeEpisodic, Embedding: fixedVector(8, 0.2)})
	require.NoError(t, err)

	_, err = store.AddEdge(&domain.EntanglementEdge{
		SourceID: a.ID, TargetID: b.ID, Kind: domain.RelationshipEntangled, Strength: 0.7,
	})
	require.NoError(t, err)

	related, err := store.RelatedMemories(a.ID)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, b.ID, related[0].ID)

	edges, err := store.LoadAllEntanglementEdges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, float32(0.7), edges[0].Strength)
}

func TestLibraryStore_TwoLibraries_AreIsolated(t *testing.T) {
	storeA := openTestStore(t)
	storeB := openTestStore(t)

	_, err := storeA.Upsert(&domain.Memory{Content: "only in a", ContentHash: 1, MemoryType: domain.TypeEpisodic, Embedding: fixedVector(8, 0.1)})
	require.NoError(t, err)

	countA, err := storeA.Count()
	require.NoError(t, err)
	countB, err := storeB.Count()
	require.NoError(t, err)

	assert.Equal(t, 1, countA)
	assert.Equal(t, 0, countB)
}
