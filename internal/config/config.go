// Package config wraps Viper with nil-safe accessors for the
// fabriclens CLI configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is a read-only view over a Viper instance.
type Config struct {
	v *viper.Viper
}

// New wraps an existing Viper instance. A nil instance yields a Config
// that returns zero values for every key.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

// Load reads the configuration file at path. An empty path yields a
// Config with defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("paths.workers", 1)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	return New(v), nil
}

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the configuration subtree under key. Missing keys return
// an empty Config rather than nil.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the configuration into target.
func (c *Config) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}
