package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AdminHTTPConfig configures the read-only gin observability server. This
// is separate from the tool-call transport, which runs over stdio.
type AdminHTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *AdminHTTPConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("admin_http", c)
}

func (c *AdminHTTPConfig) ValidateConfig() error {
	if c.Addr == "" {
		return fmt.Errorf("admin_http.addr must not be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("admin_http timeouts must be positive")
	}
	return nil
}

func (c *AdminHTTPConfig) GetDefaults() map[string]any {
	return map[string]any{
		"admin_http.addr":             ":8081",
		"admin_http.read_timeout":     5 * time.Second,
		"admin_http.write_timeout":    5 * time.Second,
		"admin_http.shutdown_timeout": 10 * time.Second,
	}
}
