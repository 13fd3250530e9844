package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SearchConfig tunes hybrid recall: how many ANN candidates are pulled
// before fusion, and how strongly entanglement boosts effective importance.
type SearchConfig struct {
	CandidateMultiplier int     `mapstructure:"candidate_multiplier"`
	MinCandidates       int     `mapstructure:"min_candidates"`
	EntanglementAlpha   float32 `mapstructure:"entanglement_alpha"`
}

func (c *SearchConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("search", c)
}

func (c *SearchConfig) ValidateConfig() error {
	if c.CandidateMultiplier <= 0 {
		return fmt.Errorf("search.candidate_multiplier must be positive")
	}
	if c.MinCandidates <= 0 {
		return fmt.Errorf("search.min_candidates must be positive")
	}
	if c.EntanglementAlpha < 0 {
		return fmt.Errorf("search.entanglement_alpha must not be negative")
	}
	return nil
}

func (c *SearchConfig) GetDefaults() map[string]any {
	return map[string]any{
		"search.candidate_multiplier": 4,
		"search.min_candidates":       32,
		"search.entanglement_alpha":   0.25,
	}
}
