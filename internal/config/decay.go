package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DecayConfig governs the periodic exponential decay applied to importance:
// new_importance = max(Floor, old_importance * exp(-Lambda * hours_elapsed)).
type DecayConfig struct {
	Lambda   float64       `mapstructure:"lambda"`
	Floor    float32       `mapstructure:"floor"`
	Interval time.Duration `mapstructure:"interval"`
}

func (c *DecayConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("decay", c)
}

func (c *DecayConfig) ValidateConfig() error {
	if c.Lambda <= 0 {
		return fmt.Errorf("decay.lambda must be positive")
	}
	if c.Floor < 0 || c.Floor > 1 {
		return fmt.Errorf("decay.floor must be within [0,1]")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("decay.interval must be positive")
	}
	return nil
}

func (c *DecayConfig) GetDefaults() map[string]any {
	return map[string]any{
		"decay.lambda":   0.1,
		"decay.floor":    0.05,
		"decay.interval": time.Hour,
	}
}
