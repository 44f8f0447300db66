// Package config provides configuration management for the collection pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	apperrors "p2p-crisis-collector/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Collection CollectionConfig `mapstructure:"collection"`
	Rates      RatesConfig      `mapstructure:"rates"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// CollectionConfig holds collection-related configuration.
type CollectionConfig struct {
	Asset           string `mapstructure:"asset"` // default collected asset, e.g. USDT
	MaxPagesBinance int    `mapstructure:"max_pages_binance"`
	MaxPagesOKX     int    `mapstructure:"max_pages_okx"`
	ProfilesPath    string `mapstructure:"profiles_path"`
}

// RatesConfig holds exchange rate API configuration.
type RatesConfig struct {
	OpenExchangeRatesKey string `mapstructure:"openexchangerates_key"`
	FixerKey             string `mapstructure:"fixer_key"`
}

// StorageConfig holds data directory configuration.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/p2p-crisis-collector"
	}
	return filepath.Join(home, ".config", "p2p-crisis-collector")
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "p2p-crisis-collector")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("collection.asset", "USDT")
	v.SetDefault("collection.max_pages_binance", 5)
	v.SetDefault("collection.max_pages_okx", 3)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			if terr := createTemplateConfig(configDir); terr != nil {
				return terr
			}
		} else {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENEXCHANGERATES_API_KEY"); v != "" {
		cfg.Rates.OpenExchangeRatesKey = v
	}
	if v := os.Getenv("FIXER_API_KEY"); v != "" {
		cfg.Rates.FixerKey = v
	}
	if v := os.Getenv("P2P_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = DefaultDataDir()
	}
	if cfg.Collection.ProfilesPath == "" {
		cfg.Collection.ProfilesPath = filepath.Join(configDir, "countries.yml")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Collection.Asset == "" {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "collection asset must not be empty")
	}
	if c.Collection.MaxPagesBinance < 1 || c.Collection.MaxPagesBinance > 10 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max_pages_binance must be between 1 and 10")
	}
	if c.Collection.MaxPagesOKX < 1 || c.Collection.MaxPagesOKX > 10 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max_pages_okx must be between 1 and 10")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid log level: %s", c.Logging.Level)
	}
	return nil
}
