// Package domain holds the core types shared by every memory subsystem
// package: the stored Memory, its relationships, and the derived shapes
// returned by recall.
package domain

import "time"

// MemoryType classifies the cognitive role of a stored memory.
type MemoryType string

const (
	TypeEpisodic   MemoryType = "episodic"
	TypeSemantic   MemoryType = "semantic"
	TypeProcedural MemoryType = "procedural"
	TypeWorking    MemoryType = "working"
	TypeLongTerm   MemoryType = "long_term"
)

// ValidMemoryType reports whether t is one of the known memory types.
func ValidMemoryType(t MemoryType) bool {
	switch t {
	case TypeEpisodic, TypeSemantic, TypeProcedural, TypeWorking, TypeLongTerm:
		return true
	default:
		return false
	}
}

// Memory is the atomic unit of storage: content plus its embedding and
// bookkeeping metadata. ContentHash is unique within a library and is the
// dedup key enforced by LibraryStore's unique index.
type Memory struct {
	ID             string
	Content        string
	ContentHash    int64
	MemoryType     MemoryType
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time
	Importance     float32
	Embedding      []float32
	Tags           []string
	Keywords       []string
	Custom         map[string]any
}

// RelationshipKind names the kind of a directed entanglement edge.
type RelationshipKind string

const (
	RelationshipEntangled RelationshipKind = "entangled"
	RelationshipCaused    RelationshipKind = "caused"
)

// EntanglementEdge is a directed edge between two memories in the same
// library. Strength is clamped to [0,1].
type EntanglementEdge struct {
	ID        string
	SourceID  string
	TargetID  string
	Kind      RelationshipKind
	Strength  float32
	CreatedAt time.Time
}

// QuantumSignature is the cognitive evaluator's 1:1 fingerprint of a memory.
type QuantumSignature struct {
	MemoryID        string
	Fingerprint     []float32
	Entropy         float32
	DecoherenceRate float32
}

// RecallResult is a single ranked hit returned by HybridSearch. Importance is
// the boosted (post-entanglement) value, per spec §9; Similarity is the raw
// cosine score from the vector index.
type RecallResult struct {
	ID         string
	Content    string
	CreatedAt  time.Time
	Similarity float32
	Importance float32
	Score      float32
	Rank       int
	Related    []*Memory
}

// SessionStatus is the lifecycle state of a MemorizeSession.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionFailed     SessionStatus = "FAILED"
)

// Progress tracks the ingest pipeline's reported stage.
type Progress struct {
	Stage          string
	FilesLoaded    int
	TotalSizeBytes int64
}

const (
	StageInitializing  = "Initializing"
	StageLoading       = "Loading content"
	StageEmbedding     = "Generating embeddings"
	StageStoring       = "Storing in database"
	StageCompleted     = "Completed"
	StageFailed        = "Failed"
)
