// Package mcptools binds the four memory tools onto an MCP server. The
// binding itself stays thin: every tool handler immediately delegates to
// the coordinator pool or session manager.
package mcptools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/JaimeStill/persistent-context/internal/coordinator"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wires the memory subsystem onto an *mcp.Server.
type Server struct {
	pool     *coordinator.Pool
	sessions *session.Manager
	logger   *slog.Logger
}

// New builds a Server bound to the given pool and session manager.
func New(pool *coordinator.Pool, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pool: pool, sessions: sessions, logger: logger}
}

// Register attaches all four tools to srv.
func (s *Server) Register(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "memory_memorize",
		Description: "Start storing content into a named memory library. Returns immediately with a session id to poll.",
	}, s.handleMemorize)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "memory_check_memorize_status",
		Description: "Check the progress of a memorize session.",
	}, s.handleCheckStatus)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "memory_recall",
		Description: "Search a memory library for content relevant to a query.",
	}, s.handleRecall)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "memory_list_libraries",
		Description: "List every memory library that has been created.",
	}, s.handleListLibraries)
}

// MemorizeInput is the argument shape for memory_memorize.
type MemorizeInput struct {
	Library string `json:"library" jsonschema:"the library to store content in"`
	Content string `json:"content" jsonschema:"a URL, path, glob, or literal text to store"`
}

// MemorizeOutput is the response shape for memory_memorize.
type MemorizeOutput struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Library   string `json:"library"`
	Message   string `json:"message"`
}

func (s *Server) handleMemorize(ctx context.Context, _ *mcp.CallToolRequest, in MemorizeInput) (*mcp.CallToolResult, MemorizeOutput, error) {
	if err := domain.ValidateLibraryName(in.Library); err != nil {
		return errorResult(err), MemorizeOutput{}, nil
	}
	if in.Content == "" {
		return errorResult(domain.NewError(domain.KindInvalidInput, "content must not be empty", nil)), MemorizeOutput{}, nil
	}

	c, err := s.pool.Get(ctx, in.Library)
	if err != nil {
		return errorResult(domain.NewError(domain.KindUnavailable, "opening library failed", err)), MemorizeOutput{}, nil
	}

	id := s.sessions.Start(context.Background(), in.Library, in.Content, c)

	return nil, MemorizeOutput{
		SessionID: id,
		Status:    string(domain.SessionInProgress),
		Library:   in.Library,
		Message:   "ingest started",
	}, nil
}

// CheckStatusInput is the argument shape for memory_check_memorize_status.
type CheckStatusInput struct {
	SessionID string `json:"session_id"`
}

// CheckStatusOutput is the response shape for memory_check_memorize_status.
type CheckStatusOutput struct {
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	Library   string          `json:"library"`
	Progress  domain.Progress `json:"progress"`
	RuntimeMS int64           `json:"runtime_ms"`
	MemoryID  string          `json:"memory_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (s *Server) handleCheckStatus(_ context.Context, _ *mcp.CallToolRequest, in CheckStatusInput) (*mcp.CallToolResult, CheckStatusOutput, error) {
	status, err := s.sessions.Status(in.SessionID)
	if err != nil {
		return errorResult(err), CheckStatusOutput{}, nil
	}

	return nil, CheckStatusOutput{
		SessionID: status.SessionID,
		Status:    string(status.Status),
		Library:   status.Library,
		Progress:  status.Progress,
		RuntimeMS: status.RuntimeMS,
		MemoryID:  status.MemoryID,
		Error:     status.Error,
	}, nil
}

// RecallInput is the argument shape for memory_recall. Limit is a pointer so
// an omitted limit (default 10) is distinguishable from an explicit 0, which
// the spec requires to return an empty result rather than the default.
type RecallInput struct {
	Library     string  `json:"library"`
	Context     string  `json:"context"`
	Limit       *uint32 `json:"limit,omitempty"`
	WithRelated bool    `json:"with_related,omitempty"`
}

// RecallOutput is the response shape for memory_recall.
type RecallOutput struct {
	Memories  []RecallMemory `json:"memories"`
	Library   string         `json:"library"`
	Count     int            `json:"count"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// RecallMemory is one ranked hit in a recall response.
type RecallMemory struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	CreatedAt  string   `json:"created_at"`
	Similarity float32  `json:"similarity"`
	Importance float32  `json:"importance"`
	Score      float32  `json:"score"`
	Rank       int      `json:"rank"`
	Related    []string `json:"related,omitempty"`
}

const defaultRecallLimit = 10

func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, in RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if err := domain.ValidateLibraryName(in.Library); err != nil {
		return errorResult(err), RecallOutput{}, nil
	}

	limit := defaultRecallLimit
	if in.Limit != nil {
		limit = int(*in.Limit)
	}
	if err := domain.ValidateRecallLimit(limit); err != nil {
		return errorResult(err), RecallOutput{}, nil
	}

	start := time.Now()

	c, err := s.pool.Get(ctx, in.Library)
	if err != nil {
		return errorResult(domain.NewError(domain.KindUnavailable, "opening library failed", err)), RecallOutput{}, nil
	}

	results, err := c.SearchMemories(ctx, in.Context, limit, in.WithRelated)
	if err != nil {
		return errorResult(domain.NewError(domain.KindInternal, "recall failed", err)), RecallOutput{}, nil
	}

	memories := make([]RecallMemory, len(results))
	for i, r := range results {
		var related []string
		for _, rel := range r.Related {
			related = append(related, rel.ID)
		}
		memories[i] = RecallMemory{
			ID:         r.ID,
			Content:    r.Content,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
			Similarity: r.Similarity,
			Importance: r.Importance,
			Score:      r.Score,
			Rank:       r.Rank,
			Related:    related,
		}
	}

	return nil, RecallOutput{
		Memories:  memories,
		Library:   in.Library,
		Count:     len(memories),
		ElapsedMS: time.Since(start).Milliseconds(),
	}, nil
}

// ListLibrariesInput is the (empty) argument shape for memory_list_libraries.
type ListLibrariesInput struct{}

// ListLibrariesOutput is the response shape for memory_list_libraries.
type ListLibrariesOutput struct {
	Libraries []string `json:"libraries"`
	Count     int      `json:"count"`
}

func (s *Server) handleListLibraries(_ context.Context, _ *mcp.CallToolRequest, _ ListLibrariesInput) (*mcp.CallToolResult, ListLibrariesOutput, error) {
	libs, err := s.pool.ListLibraries()
	if err != nil {
		return errorResult(domain.NewError(domain.KindInternal, "listing libraries failed", err)), ListLibrariesOutput{}, nil
	}
	return nil, ListLibrariesOutput{Libraries: libs, Count: len(libs)}, nil
}

// errorEnvelope is the {error:{kind,message}} payload the tool boundary
// serializes so callers see domain.Error's Kind instead of a flattened
// protocol-level error string.
type errorEnvelope struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorResult converts err into an IsError CallToolResult carrying the
// {error:{kind,message}} envelope as its text content. err is never also
// returned from the handler: a non-nil error return would let the SDK
// collapse it into a generic protocol error and drop the Kind.
func errorResult(err error) *mcp.CallToolResult {
	var env errorEnvelope
	env.Error.Kind = string(domain.KindOf(err))
	env.Error.Message = err.Error()

	body, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		body = []byte(`{"error":{"kind":"Internal","message":"failed to encode error"}}`)
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}
}
