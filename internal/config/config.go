// Copyright 2024 Event Planner Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads service configuration from YAML files and the
// environment using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/openai"
	"github.com/your-org/event-planner-assistant/internal/resilience"
	"github.com/your-org/event-planner-assistant/internal/session"
)

// EnvPrefix prefixes environment overrides, e.g. EVENT_PLANNER_SERVER_PORT
const EnvPrefix = "EVENT_PLANNER"

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Server     ServerConfig     `mapstructure:"server"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Store      StoreConfig      `mapstructure:"store"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// OpenAIConfig contains the generation endpoint configuration
type OpenAIConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"apikey"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Referer     string  `mapstructure:"referer"`
	Title       string  `mapstructure:"title"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	HotReload      bool          `mapstructure:"hot_reload"`
}

// ResilienceConfig contains circuit breaker settings for generation
type ResilienceConfig struct {
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

// StoreConfig contains session store settings
type StoreConfig struct {
	Type            string        `mapstructure:"type"`
	DBPath          string        `mapstructure:"db_path"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CatalogConfig points at an optional fallback catalog override file
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TelemetryConfig contains tracing settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	found, err := setConfigFile(v, opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if found {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, err
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Generation defaults
	v.SetDefault("openai.enabled", true)
	v.SetDefault("openai.apikey", "")
	v.SetDefault("openai.endpoint", openai.DefaultEndpoint)
	v.SetDefault("openai.model", openai.DefaultModel)
	v.SetDefault("openai.temperature", openai.DefaultTemperature)
	v.SetDefault("openai.max_tokens", 0)
	v.SetDefault("openai.referer", "")
	v.SetDefault("openai.title", "Event Planner Assistant")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.hot_reload", false)

	// Circuit breaker defaults
	v.SetDefault("resilience.max_failures", 5)
	v.SetDefault("resilience.reset_timeout", "30s")

	// Store defaults
	v.SetDefault("store.type", string(session.SQLiteStorageType))
	v.SetDefault("store.db_path", "./planner.db")
	v.SetDefault("store.session_ttl", "720h")
	v.SetDefault("store.max_sessions", 1000)
	v.SetDefault("store.cleanup_interval", "5m")

	v.SetDefault("catalog.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "event-planner-assistant")
}

// setConfigFile selects the configuration file. An explicit path must exist;
// the default locations are optional. It reports whether a file will be read.
func setConfigFile(v *viper.Viper, configPath string) (bool, error) {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return false, fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return true, nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return false, fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return true, nil
	}

	for _, path := range []string{"./configs/config.yaml", "./config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			return true, nil
		}
	}

	return false, nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":  "openai.apikey",
		"OPENAI_ENDPOINT": "openai.endpoint",
		"OPENAI_MODEL":    "openai.model",
		"LOG_LEVEL":       "logging.level",
		"LOG_FORMAT":      "logging.format",
		"STORE_DB_PATH":   "store.db_path",
		"PORT":            "server.port",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig collects every validation error before failing
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.OpenAI.Enabled {
		if config.OpenAI.APIKey == "" {
			errs = append(errs, ValidationError{
				Field:   "openai.apikey",
				Message: "API key is required when generation is enabled. Set via config file or OPENAI_API_KEY environment variable",
			})
		}
		if config.OpenAI.Endpoint == "" {
			errs = append(errs, ValidationError{Field: "openai.endpoint", Message: "endpoint is required"})
		}
	}

	if config.OpenAI.Temperature < 0 || config.OpenAI.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "openai.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if config.OpenAI.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "openai.max_tokens",
			Message: "max_tokens must be greater than or equal to 0",
		})
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if config.Server.RequestTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout",
			Message: "request_timeout must be greater than 0",
		})
	}

	if config.Resilience.MaxFailures <= 0 {
		errs = append(errs, ValidationError{
			Field:   "resilience.max_failures",
			Message: "max_failures must be greater than 0",
		})
	}

	validStorageTypes := []string{string(session.MemoryStorageType), string(session.SQLiteStorageType)}
	if !contains(validStorageTypes, config.Store.Type) {
		errs = append(errs, ValidationError{
			Field:   "store.type",
			Message: fmt.Sprintf("storage type must be one of: %s", strings.Join(validStorageTypes, ", ")),
		})
	}

	if config.Store.Type == string(session.SQLiteStorageType) {
		if config.Store.DBPath == "" {
			errs = append(errs, ValidationError{Field: "store.db_path", Message: "database path is required for sqlite storage"})
		} else if err := validateDirectoryExists(filepath.Dir(config.Store.DBPath)); err != nil {
			errs = append(errs, ValidationError{
				Field:   "store.db_path",
				Message: fmt.Sprintf("database directory does not exist: %s", filepath.Dir(config.Store.DBPath)),
			})
		}
	}

	if config.Store.SessionTTL <= 0 {
		errs = append(errs, ValidationError{Field: "store.session_ttl", Message: "session_ttl must be greater than 0"})
	}

	if config.Catalog.Path != "" {
		if _, err := os.Stat(config.Catalog.Path); err != nil {
			errs = append(errs, ValidationError{
				Field:   "catalog.path",
				Message: fmt.Sprintf("catalog file does not exist: %s", config.Catalog.Path),
			})
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, err := range errs {
			messages[i] = err.Error()
		}
		return fmt.Errorf("%w:\n%s", ErrInvalidConfigValue, strings.Join(messages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c
	if masked.OpenAI.APIKey != "" {
		masked.OpenAI.APIKey = maskValue(masked.OpenAI.APIKey)
	}
	return &masked
}

// GenerationConfig returns the settings for the generation client
func (c *Config) GenerationConfig() openai.Config {
	return openai.Config{
		APIKey:      c.OpenAI.APIKey,
		Endpoint:    c.OpenAI.Endpoint,
		Model:       c.OpenAI.Model,
		Temperature: float32(c.OpenAI.Temperature),
		MaxTokens:   c.OpenAI.MaxTokens,
		Referer:     c.OpenAI.Referer,
		Title:       c.OpenAI.Title,
	}
}

// SessionConfig returns the session store settings
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		StorageType:     session.StorageType(c.Store.Type),
		DBPath:          c.Store.DBPath,
		DefaultTTL:      c.Store.SessionTTL,
		MaxSessions:     c.Store.MaxSessions,
		CleanupInterval: c.Store.CleanupInterval,
	}
}

// BreakerConfig returns the circuit breaker settings for generation
func (c *Config) BreakerConfig() resilience.CircuitBreakerConfig {
	config := resilience.DefaultCircuitBreakerConfig("generation")
	config.MaxFailures = c.Resilience.MaxFailures
	if c.Resilience.ResetTimeout > 0 {
		config.ResetTimeout = c.Resilience.ResetTimeout
	}
	return config
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateDirectoryExists checks if a directory exists
func validateDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return nil
}

// WatchConfig reloads the configuration whenever the file changes and hands
// every valid result to callback. Invalid edits are logged and ignored.
func WatchConfig(configPath string, logger *zap.Logger, callback func(*Config)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := viper.New()
	found, err := setConfigFile(v, configPath)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no config file to watch", ErrMissingRequiredField)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("Config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       v.ConfigFileUsed(),
			ValidateRequired: true,
		})
		if err != nil {
			logger.Warn("Failed to reload config", zap.Error(err))
			return
		}

		callback(config)
	})
	v.WatchConfig()

	return nil
}
