// Package config loads tool configuration from config.yaml, environment
// variables and CLI flags.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// Aapt2Path is the resource optimizer binary invoked for density splits.
	Aapt2Path string `yaml:"aapt2_path"`
	// MaxThreads is the default split worker count; 0 uses all CPUs.
	MaxThreads int `yaml:"max_threads"`
	// KeystoreDir is searched for signing keys when --ks names a bare alias.
	KeystoreDir string `yaml:"keystore_dir"`
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := setupViper(configPath, rootCmd); err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:    viper.GetString("log_level"),
		Aapt2Path:   viper.GetString("aapt2_path"),
		MaxThreads:  viper.GetInt("max_threads"),
		KeystoreDir: viper.GetString("keystore_dir"),
	}, nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(configPath string, rootCmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("aapt2_path", "aapt2")
	viper.SetDefault("max_threads", 0)
	viper.SetDefault("keystore_dir", "")
}

// SetConfigValue sets a configuration value (used for CLI flags)
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}
