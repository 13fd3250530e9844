package cognitive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu    sync.Mutex
	calls map[string]float32
}

func newStubStore() *stubStore {
	return &stubStore{calls: make(map[string]float32)}
}

func (s *stubStore) SetImportance(id string, importance float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id] = importance
	return nil
}

func (s *stubStore) get(id string) (float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.calls[id]
	return v, ok
}

type stubScorer struct {
	scores []float32
	err    error
	calls  int
}

func (s *stubScorer) ScoreBatch(_ context.Context, contents []string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float32, len(contents))
	copy(out, s.scores)
	return out, nil
}

func (s *stubScorer) HealthCheck(_ context.Context) error { return nil }

func TestEvaluator_ProcessesBatchOnSizeThreshold(t *testing.T) {
	store := newStubStore()
	scorer := &stubScorer{scores: []float32{0.9, 0.8}}
	e := New(store, scorer, Config{QueueCapacity: 16, BatchSize: 2, BatchTimeout: time.Hour, CacheSize: 100, CacheTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	require.NoError(t, e.Enqueue("m1", "content one"))
	require.NoError(t, e.Enqueue("m2", "content two"))

	assert.Eventually(t, func() bool {
		_, ok := store.get("m1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestEvaluator_FlushesOnTimeout(t *testing.T) {
	store := newStubStore()
	scorer := &stubScorer{scores: []float32{0.5}}
	e := New(store, scorer, Config{QueueCapacity: 16, BatchSize: 8, BatchTimeout: 20 * time.Millisecond, CacheSize: 100, CacheTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	require.NoError(t, e.Enqueue("m1", "lone content"))

	assert.Eventually(t, func() bool {
		_, ok := store.get("m1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestEvaluator_RetriesOnceThenDrops(t *testing.T) {
	store := newStubStore()
	scorer := &stubScorer{err: assertErr{}}
	e := New(store, scorer, Config{QueueCapacity: 16, BatchSize: 1, BatchTimeout: time.Hour, CacheSize: 100, CacheTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Start(ctx))

	require.NoError(t, e.Enqueue("m1", "failing content"))

	time.Sleep(50 * time.Millisecond)
	_ = e.Stop()

	assert.Equal(t, 2, scorer.calls)
	_, ok := store.get("m1")
	assert.False(t, ok)
}

func TestEvaluator_TTLCacheSkipsRepeatedContent(t *testing.T) {
	store := newStubStore()
	scorer := &stubScorer{scores: []float32{0.5}}
	e := New(store, scorer, Config{QueueCapacity: 16, BatchSize: 1, BatchTimeout: time.Hour, CacheSize: 100, CacheTTL: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	require.NoError(t, e.Enqueue("m1", "repeat me"))
	assert.Eventually(t, func() bool {
		_, ok := store.get("m1")
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, e.Enqueue("m2", "repeat me"))
	time.Sleep(50 * time.Millisecond)
	_, ok := store.get("m2")
	assert.False(t, ok)
}

type assertErr struct{}

func (assertErr) Error() string { return "scoring unavailable" }
