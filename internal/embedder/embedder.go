// Package embedder defines the capability the rest of the memory subsystem
// consumes for turning text into vectors, and a deterministic local
// implementation that needs no external model.
package embedder

import (
	"context"
	"crypto/sha256"
	"math"
)

// Task distinguishes how a string is embedded. Asymmetric embedding models
// produce different vectors for the same text depending on whether it's
// being indexed or being used to query an index.
type Task string

const (
	TaskDocument Task = "document"
	TaskQuery    Task = "query"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// Dim returns the dimension of vectors this embedder produces.
	Dim() int

	// Embed produces a vector for text under the given task.
	Embed(ctx context.Context, task Task, text string) ([]float32, error)
}

// HashProjection is a deterministic, model-free Embedder. It has no notion
// of semantic similarity: the vector is seeded from a SHA-256 of the whole
// task-prefixed text, so texts that share words or substrings get unrelated
// vectors. It is fully reproducible and requires no network access or GPU, which keeps the rest
// of the subsystem (storage, search, decay) exercisable without a live
// model behind it.
type HashProjection struct {
	dim int
}

// NewHashProjection builds a HashProjection producing vectors of size dim.
func NewHashProjection(dim int) *HashProjection {
	return &HashProjection{dim: dim}
}

func (h *HashProjection) Dim() int {
	return h.dim
}

func (h *HashProjection) Embed(_ context.Context, task Task, text string) ([]float32, error) {
	prefixed := string(task) + ":" + text
	vec := make([]float32, h.dim)

	seed := sha256.Sum256([]byte(prefixed))
	for i := range vec {
		b := seed[i%len(seed)]
		shift := seed[(i+1)%len(seed)]
		vec[i] = float32(int(b)-128) / 128.0 * float32(1+int(shift)%7)
	}

	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
