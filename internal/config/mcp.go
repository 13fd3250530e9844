package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// MCPConfig identifies the tool server to connecting agents.
type MCPConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

func (c *MCPConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("mcp", c)
}

func (c *MCPConfig) ValidateConfig() error {
	if c.Name == "" {
		return fmt.Errorf("mcp.name must not be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("mcp.version must not be empty")
	}
	return nil
}

func (c *MCPConfig) GetDefaults() map[string]any {
	return map[string]any{
		"mcp.name":    "persistent-context",
		"mcp.version": "0.1.0",
	}
}
