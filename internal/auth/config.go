package auth

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Secret   string `mapstructure:"SECRET"`
	TokenTTL string `mapstructure:"TOKEN_TTL"`
}

func NewConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config from %s: %w", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("SECRET is required")
	}
	if cfg.TokenTTL == "" {
		cfg.TokenTTL = "24h"
	}

	return &cfg, nil
}

func (c *Config) TTL() (time.Duration, error) {
	return time.ParseDuration(c.TokenTTL)
}
