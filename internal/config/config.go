// Package config loads and validates the service's configuration from
// environment variables and an optional config file, following the
// teacher's per-concern-struct viper pattern.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates every concern's configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Embedder  EmbedderConfig  `mapstructure:"embedder"`
	Decay     DecayConfig     `mapstructure:"decay"`
	Cognitive CognitiveConfig `mapstructure:"cognitive"`
	Session   SessionConfig   `mapstructure:"session"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	AdminHTTP AdminHTTPConfig `mapstructure:"admin_http"`
	MCP       MCPConfig       `mapstructure:"mcp"`
}

// subConfig is implemented by each per-concern config struct.
type subConfig interface {
	LoadConfig(v *viper.Viper) error
	ValidateConfig() error
	GetDefaults() map[string]any
}

// Load loads configuration from environment variables and an optional
// config file, validating every concern.
func Load() (*Config, error) {
	v := viper.New()

	cfg := &Config{}
	subs := []subConfig{
		&cfg.Data, &cfg.Embedder, &cfg.Decay, &cfg.Cognitive,
		&cfg.Session, &cfg.Search, &cfg.Logging, &cfg.AdminHTTP, &cfg.MCP,
	}

	for _, s := range subs {
		for key, val := range s.GetDefaults() {
			v.SetDefault(key, val)
		}
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/persistent-context/")
	_ = v.ReadInConfig()

	for _, s := range subs {
		if err := s.LoadConfig(v); err != nil {
			return nil, fmt.Errorf("failed to load config section: %w", err)
		}
	}

	for _, s := range subs {
		if err := s.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}
