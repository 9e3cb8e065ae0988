package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete treefs configuration.
//
// This structure captures all configurable aspects of a treefs instance:
//   - Logging configuration
//   - Name canonicalization (case sensitivity, Unicode normalization)
//   - Directory table tuning
//   - Content selection and type-specific configuration
//   - Root directory names
//   - Metrics endpoint
//
// Configuration sources (in order of precedence):
//  1. Environment variables (TREEFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Content Configuration Pattern:
// Each content type defines its own configuration struct, decoded from the
// matching type-specific section (e.g. content.memory). Only the section
// matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Names controls how entry names are canonicalized
	Names NamesConfig `mapstructure:"names" yaml:"names"`

	// Tables tunes the hash tables backing directories
	Tables TablesConfig `mapstructure:"tables" yaml:"tables"`

	// Content specifies the content type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Roots lists the root directories created at startup (e.g. "/" or "C:")
	Roots []string `mapstructure:"roots" yaml:"roots" validate:"dive,required"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// NamesConfig lists the normalizations applied to entry names.
//
// Display normalizations produce the string a name is shown (and sorted) by.
// Canonical normalizations are applied on top of the display form and
// produce the string names are compared by. A case-insensitive filesystem
// sets canonical to [case_fold_unicode].
type NamesConfig struct {
	// Display normalizations
	// Valid values: none, nfc, nfd, case_fold_unicode, case_fold_ascii
	Display []string `mapstructure:"display" yaml:"display" validate:"dive,oneof=none nfc nfd case_fold_unicode case_fold_ascii"`

	// Canonical normalizations
	Canonical []string `mapstructure:"canonical" yaml:"canonical" validate:"dive,oneof=none nfc nfd case_fold_unicode case_fold_ascii"`
}

// TablesConfig tunes directory hash tables.
type TablesConfig struct {
	// InitialCapacity is the bucket count of a new directory (rounded up to a power of two)
	InitialCapacity int `mapstructure:"initial_capacity" yaml:"initial_capacity" validate:"gte=1,lte=1048576"`

	// LoadFactor is the entries/buckets ratio above which a table doubles
	LoadFactor float64 `mapstructure:"load_factor" yaml:"load_factor" validate:"gt=0,lte=4"`
}

// ContentConfig specifies regular file content configuration.
//
// The Type field determines which content implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content implementation to use
	// Valid values: memory
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the address of the /metrics endpoint
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required_if=Enabled true"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TREEFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use TREEFS_ prefix and underscores
	// Example: TREEFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("TREEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"content.type",
		"tables.initial_capacity", "tables.load_factor",
		"metrics.enabled", "metrics.listen",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/treefs/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicit path that does not exist is reported as a PathError
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "treefs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "treefs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
