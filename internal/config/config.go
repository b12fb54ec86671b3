// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Inbox   InboxConfig   `mapstructure:"inbox"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// InboxConfig holds inbox watching configuration.
type InboxConfig struct {
	Paths    []string      `mapstructure:"paths"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ArchiveConfig holds archive storage configuration.
type ArchiveConfig struct {
	Root string `mapstructure:"root"`
}

// CatalogConfig holds product catalog configuration.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Inbox defaults
	viper.SetDefault("inbox.paths", []string{"./inbox"})
	viper.SetDefault("inbox.debounce", 500*time.Millisecond)

	// Archive defaults
	viper.SetDefault("archive.root", "./archive")

	// Catalog defaults
	viper.SetDefault("catalog.path", "./catalog.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	// Environment variable binding
	viper.SetEnvPrefix("S2ARCHIVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/s2archive")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Inbox.Paths) == 0 {
		return fmt.Errorf("at least one inbox path is required")
	}
	if c.Inbox.Debounce < 0 {
		return fmt.Errorf("invalid inbox debounce: %s", c.Inbox.Debounce)
	}

	if c.Archive.Root == "" {
		return fmt.Errorf("archive root is required")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown logging format: %s", c.Logging.Format)
	}

	return nil
}
