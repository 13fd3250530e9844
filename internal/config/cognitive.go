package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// CognitiveConfig tunes the committee scoring oracle's batching and caching.
type CognitiveConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

func (c *CognitiveConfig) LoadConfig(v *viper.Viper) error {
	return v.UnmarshalKey("cognitive", c)
}

func (c *CognitiveConfig) ValidateConfig() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("cognitive.batch_size must be positive")
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("cognitive.batch_timeout must be positive")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("cognitive.queue_capacity must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cognitive.cache_size must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cognitive.cache_ttl must be positive")
	}
	return nil
}

func (c *CognitiveConfig) GetDefaults() map[string]any {
	return map[string]any{
		"cognitive.batch_size":     16,
		"cognitive.batch_timeout":  2 * time.Second,
		"cognitive.queue_capacity": 256,
		"cognitive.cache_size":     10000,
		"cognitive.cache_ttl":      5 * time.Minute,
	}
}
