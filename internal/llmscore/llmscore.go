// Package llmscore defines the committee scoring oracle capability consumed
// by the cognitive evaluator, and a deterministic local implementation.
package llmscore

import (
	"context"
	"strings"
)

// Scorer assigns an importance score in [0,1] to each piece of content in a
// batch. Implementations may call out to an LLM committee; the evaluator
// only depends on this narrow contract.
type Scorer interface {
	// ScoreBatch returns one score per input, in the same order.
	ScoreBatch(ctx context.Context, contents []string) ([]float32, error)

	// HealthCheck reports whether the oracle is reachable.
	HealthCheck(ctx context.Context) error
}

// Heuristic is a deterministic Scorer with no external dependency. It scores
// content on crude signals (length, lexical variety) so the rest of the
// cognitive pipeline (batching, caching, retry-then-drop) is exercisable
// without a live LLM committee behind it.
type Heuristic struct{}

// NewHeuristic builds a Heuristic scorer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) ScoreBatch(_ context.Context, contents []string) ([]float32, error) {
	scores := make([]float32, len(contents))
	for i, c := range contents {
		scores[i] = score(c)
	}
	return scores, nil
}

func (h *Heuristic) HealthCheck(_ context.Context) error {
	return nil
}

func score(content string) float32 {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0.1
	}

	words := strings.Fields(trimmed)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}

	lengthSignal := float32(len(trimmed)) / 2000.0
	if lengthSignal > 0.6 {
		lengthSignal = 0.6
	}

	varietySignal := float32(0)
	if len(words) > 0 {
		varietySignal = float32(len(unique)) / float32(len(words)) * 0.4
	}

	s := 0.2 + lengthSignal + varietySignal
	if s > 1 {
		s = 1
	}
	if s < 0 {
		s = 0
	}
	return s
}
