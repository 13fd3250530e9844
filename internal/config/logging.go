package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoggingConfig controls the structured logger's verbosity and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *LoggingConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("logging", c)
}

func (c *LoggingConfig) ValidateConfig() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Format)
	}
	return nil
}

func (c *LoggingConfig) GetDefaults() map[string]any {
	return map[string]any{
		"logging.level":  "info",
		"logging.format": "json",
	}
}
