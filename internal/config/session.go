package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SessionConfig governs the memorize-session garbage collector: IN_PROGRESS
// sessions are never collected, COMPLETED/FAILED ones age out after their
// respective retention window.
type SessionConfig struct {
	GCInterval         time.Duration `mapstructure:"gc_interval"`
	CompletedRetention time.Duration `mapstructure:"completed_retention"`
	FailedRetention    time.Duration `mapstructure:"failed_retention"`
}

func (c *SessionConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("session", c)
}

func (c *SessionConfig) ValidateConfig() error {
	if c.GCInterval <= 0 {
		return fmt.Errorf("session.gc_interval must be positive")
	}
	if c.CompletedRetention <= 0 {
		return fmt.Errorf("session.completed_retention must be positive")
	}
	if c.FailedRetention <= 0 {
		return fmt.Errorf("session.failed_retention must be positive")
	}
	return nil
}

func (c *SessionConfig) GetDefaults() map[string]any {
	return map[string]any{
		"session.gc_interval":         60 * time.Second,
		"session.completed_retention": 30 * time.Second,
		"session.failed_retention":    300 * time.Second,
	}
}
