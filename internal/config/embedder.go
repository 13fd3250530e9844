package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EmbedderConfig selects the embedding model and fixes the vector dimension
// the vec0 virtual tables are created with. Changing Dim after a library's
// database exists is a schema break, not a config reload.
type EmbedderConfig struct {
	Model string `mapstructure:"model"`
	Dim   int    `mapstructure:"dim"`
}

func (c *EmbedderConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("embedder", c)
}

func (c *EmbedderConfig) ValidateConfig() error {
	if c.Model == "" {
		return fmt.Errorf("embedder.model must not be empty")
	}
	if c.Dim <= 0 {
		return fmt.Errorf("embedder.dim must be positive")
	}
	return nil
}

func (c *EmbedderConfig) GetDefaults() map[string]any {
	return map[string]any{
		"embedder.model": "local-hash-projection",
		"embedder.dim":   384,
	}
}
