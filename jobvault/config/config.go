// Package config loads jobvault configuration with viper from a config
// file or environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/jobvault/jobvault/jobvault"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Runner RunnerConfig `mapstructure:"runner"`
}

// StoreConfig stores fingerprint-store backend details.
type StoreConfig struct {
	Backend      string     `mapstructure:"backend"`       // "libsql" or "memory"
	DatabasePath string     `mapstructure:"database_path"` // libsql file path
	Namespace    string     `mapstructure:"namespace"`     // entry collection scope
	Blob         BlobConfig `mapstructure:"blob"`
}

// BlobConfig stores blob-store backend details. An empty backend follows
// the document store's backend.
type BlobConfig struct {
	Backend     string `mapstructure:"backend"` // "", "libsql", "memory", "redis"
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// RunnerConfig stores batch execution settings.
type RunnerConfig struct {
	Concurrency int `mapstructure:"concurrency"` // max jobs fitted at once
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("store.backend", "libsql")
	viper.SetDefault("store.database_path", internal.DefaultDatabasePath)
	viper.SetDefault("store.namespace", internal.DefaultNamespace)
	viper.SetDefault("store.blob.backend", "")
	viper.SetDefault("store.blob.redis_addr", "localhost:6379")
	viper.SetDefault("store.blob.redis_db", 0)
	viper.SetDefault("store.blob.redis_prefix", "jobvault:blob:")

	viper.SetDefault("runner.concurrency", 4)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults apply.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
