package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
}

type ServerConfig struct {
	Port string `mapstructure:"Port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host"`
	Port     string `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name"`
	SSLMode  string `mapstructure:"SSLMode"`
}

// NewConfig читает env-файл по пути path; переменные окружения имеют
// приоритет над файлом, поэтому конфиг работает и без файла вовсе
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	bindings := map[string]string{
		"Server.Port":       "HTTP_PORT",
		"Database.Host":     "DATABASE_HOST",
		"Database.Port":     "DATABASE_PORT",
		"Database.User":     "DATABASE_USER",
		"Database.Password": "DATABASE_PASSWORD",
		"Database.Name":     "DATABASE_NAME",
		"Database.SSLMode":  "DATABASE_SSLMODE",
	}
	for key, env := range bindings {
		v.BindEnv(key, env)
	}

	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Database.SSLMode", "disable")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" || cfg.Database.Port == "" ||
		cfg.Database.User == "" || cfg.Database.Name == "" {
		return nil, fmt.Errorf("database configuration is incomplete: host=%q port=%q user=%q name=%q",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Name)
	}

	return &cfg, nil
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
