package config

import (
	"strings"

	"github.com/marmos91/treefs/pkg/tree"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Content-specific defaults are handled by the content factory
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyNamesDefaults(&cfg.Names)
	applyTablesDefaults(&cfg.Tables)
	applyContentDefaults(&cfg.Content)
	applyMetricsDefaults(&cfg.Metrics)

	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"/"}
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyNamesDefaults normalizes the normalization lists. Empty lists mean a
// case-sensitive filesystem that compares names byte for byte.
func applyNamesDefaults(cfg *NamesConfig) {
	cfg.Display = lowerAll(cfg.Display)
	cfg.Canonical = lowerAll(cfg.Canonical)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

// applyTablesDefaults sets directory table defaults.
func applyTablesDefaults(cfg *TablesConfig) {
	if cfg.InitialCapacity == 0 {
		cfg.InitialCapacity = tree.DefaultInitialCapacity
	}
	if cfg.LoadFactor == 0 {
		cfg.LoadFactor = tree.DefaultLoadFactor
	}
}

// applyContentDefaults sets content defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}

	// 0 means unlimited
	if _, ok := cfg.Memory["max_file_size"]; !ok {
		cfg.Memory["max_file_size"] = int64(0)
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false
	if cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Content: ContentConfig{
			Memory: make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
