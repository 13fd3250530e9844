package mcptools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/content"
	"github.com/JaimeStill/persistent-context/internal/coordinator"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/search"
	"github.com/JaimeStill/persistent-context/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errKind decodes the {error:{kind,message}} envelope off an errorResult
// CallToolResult, for asserting which domain.Kind a handler rejected with.
func errKind(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	return env.Error.Kind
}

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	pool := coordinator.NewPool(dir, embedder.NewHashProjection(16), llmscore.NewHeuristic(),
		search.Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32},
		cognitive.Config{QueueCapacity: 16, BatchSize: 4, BatchTimeout: 50 * time.Millisecond, CacheSize: 100, CacheTTL: time.Minute},
		decay.Config{Lambda: 0.1, Floor: 0.05, Interval: time.Hour},
		nil,
	)
	t.Cleanup(pool.ShutdownAll)

	sessions := session.New(content.NewResolver(nil, nil), session.Config{
		GCInterval:         time.Hour,
		CompletedRetention: time.Minute,
		FailedRetention:    time.Minute,
	}, nil)

	return New(pool, sessions, nil)
}

func TestHandleMemorize_RejectsEmptyLibrary(t *testing.T) {
	s := testServer(t)
	res, _, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindInvalidInput), errKind(t, res))
}

func TestHandleMemorize_RejectsTraversalLibraryName(t *testing.T) {
	s := testServer(t)
	res, _, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Library: "../../etc/evil", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindInvalidInput), errKind(t, res))
}

func TestHandleMemorize_StartsSessionAndCompletes(t *testing.T) {
	s := testServer(t)

	_, out, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Library: "novels", Content: "a sentence about dragons"})
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionID)
	assert.Equal(t, "IN_PROGRESS", out.Status)

	require.Eventually(t, func() bool {
		_, status, err := s.handleCheckStatus(context.Background(), nil, CheckStatusInput{SessionID: out.SessionID})
		return err == nil && status.Status == "COMPLETED"
	}, time.Second, 10*time.Millisecond)
}

func TestHandleCheckStatus_UnknownSessionErrors(t *testing.T) {
	s := testServer(t)
	res, _, err := s.handleCheckStatus(context.Background(), nil, CheckStatusInput{SessionID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindNotFound), errKind(t, res))
}

func TestHandleRecall_FindsMemorizedContent(t *testing.T) {
	s := testServer(t)

	_, out, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Library: "novels", Content: "the quick brown fox"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, status, err := s.handleCheckStatus(context.Background(), nil, CheckStatusInput{SessionID: out.SessionID})
		return err == nil && status.Status == "COMPLETED"
	}, time.Second, 10*time.Millisecond)

	_, recall, err := s.handleRecall(context.Background(), nil, RecallInput{Library: "novels", Context: "quick brown fox"})
	require.NoError(t, err)
	require.NotEmpty(t, recall.Memories)
	assert.Equal(t, "novels", recall.Library)
}

func TestHandleRecall_ZeroLimitReturnsEmptyWithoutError(t *testing.T) {
	s := testServer(t)

	_, out, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Library: "novels", Content: "the quick brown fox"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, status, err := s.handleCheckStatus(context.Background(), nil, CheckStatusInput{SessionID: out.SessionID})
		return err == nil && status.Status == "COMPLETED"
	}, time.Second, 10*time.Millisecond)

	zero := uint32(0)
	res, recall, err := s.handleRecall(context.Background(), nil, RecallInput{Library: "novels", Context: "quick brown fox", Limit: &zero})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Empty(t, recall.Memories)
	assert.Equal(t, 0, recall.Count)
}

func TestHandleRecall_RejectsOutOfRangeLimit(t *testing.T) {
	s := testServer(t)

	tooMany := uint32(domain.MaxRecallLimit + 1)
	res, _, err := s.handleRecall(context.Background(), nil, RecallInput{Library: "novels", Context: "x", Limit: &tooMany})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindInvalidInput), errKind(t, res))
}

func TestHandleRecall_RejectsTraversalLibraryName(t *testing.T) {
	s := testServer(t)
	res, _, err := s.handleRecall(context.Background(), nil, RecallInput{Library: "../escape", Context: "x"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindInvalidInput), errKind(t, res))
}

func TestHandleListLibraries_ReflectsCreatedLibraries(t *testing.T) {
	s := testServer(t)

	_, _, err := s.handleMemorize(context.Background(), nil, MemorizeInput{Library: "recipes", Content: "literal text content"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, out, err := s.handleListLibraries(context.Background(), nil, ListLibrariesInput{})
		return err == nil && out.Count == 1
	}, time.Second, 10*time.Millisecond)
}
