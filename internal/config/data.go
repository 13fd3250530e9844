package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DataConfig locates the per-library database files on disk. Each library
// gets its own file at {Dir}/{name}.db; nothing is shared between them.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

func (c *DataConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("data", c)
}

func (c *DataConfig) ValidateConfig() error {
	if c.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	return nil
}

func (c *DataConfig) GetDefaults() map[string]any {
	return map[string]any{
		"data.dir": "/data/memory",
	}
}
