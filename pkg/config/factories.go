package config

import (
	"context"
	"fmt"

	"github.com/marmos91/treefs/internal/logger"
	"github.com/marmos91/treefs/pkg/filesystem"
	"github.com/marmos91/treefs/pkg/metrics"
	"github.com/marmos91/treefs/pkg/name"
	"github.com/marmos91/treefs/pkg/tree"
	"github.com/mitchellh/mapstructure"
)

// CreateCanonicalizer builds the name Canonicalizer from the names section.
func CreateCanonicalizer(cfg *NamesConfig) (*name.Canonicalizer, error) {
	canon, err := buildCanonicalizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonicalizer: %w", err)
	}
	return canon, nil
}

// CreateFactory creates the file factory based on configuration.
//
// The tables section sizes new directory tables. The content Type selects
// the regular file implementation and its type-specific section is decoded
// into the factory options.
//
// Supported content types:
//   - "memory": in-memory byte stores, optionally capped by max_file_size
func CreateFactory(cfg *Config) (*tree.Factory, error) {
	opts := tree.Options{
		InitialCapacity: cfg.Tables.InitialCapacity,
		LoadFactor:      cfg.Tables.LoadFactor,
	}

	switch cfg.Content.Type {
	case "memory":
		maxFileSize, err := decodeMemoryContent(cfg.Content.Memory)
		if err != nil {
			return nil, err
		}
		opts.MaxFileSize = maxFileSize
	default:
		return nil, fmt.Errorf("unknown content type: %q (supported: memory)", cfg.Content.Type)
	}

	return tree.NewFactory(opts), nil
}

// decodeMemoryContent decodes the content.memory section.
func decodeMemoryContent(options map[string]any) (int64, error) {
	type MemoryContentOptions struct {
		MaxFileSize int64 `mapstructure:"max_file_size"`
	}

	var contentOpts MemoryContentOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// Environment overrides arrive as strings
		WeaklyTypedInput: true,
		Result:           &contentOpts,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return 0, fmt.Errorf("failed to decode memory content options: %w", err)
	}

	if contentOpts.MaxFileSize < 0 {
		return 0, fmt.Errorf("memory content: max_file_size must not be negative")
	}
	return contentOpts.MaxFileSize, nil
}

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// TreeMetrics is the collector for filesystem operations (never nil, no-op if disabled)
	TreeMetrics metrics.TreeMetrics
}

// InitializeMetrics creates the metrics components based on configuration.
//
// If metrics are enabled, the global Prometheus registry is initialized and
// an HTTP server is created for it. Otherwise a nil server and no-op
// collectors are returned.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			TreeMetrics: metrics.NewTreeMetrics(nil),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:      metrics.NewServer(metrics.ServerConfig{Listen: cfg.Metrics.Listen}),
		TreeMetrics: metrics.NewTreeMetrics(metrics.GetRegistry()),
	}
}

// CreateFileSystem builds a FileSystem from configuration and creates every
// configured root.
//
// Parameters:
//   - ctx: Context for root creation
//   - cfg: The complete treefs configuration
//   - m: Metrics collector (nil disables metrics)
//
// Returns:
//   - *filesystem.FileSystem: FileSystem with all roots created
//   - error: Configuration or creation error
func CreateFileSystem(ctx context.Context, cfg *Config, m metrics.TreeMetrics) (*filesystem.FileSystem, error) {
	canon, err := CreateCanonicalizer(&cfg.Names)
	if err != nil {
		return nil, err
	}

	factory, err := CreateFactory(cfg)
	if err != nil {
		return nil, err
	}

	fs := filesystem.New(canon, factory, m)
	for _, root := range cfg.Roots {
		if _, err := fs.CreateRoot(ctx, root); err != nil {
			return nil, fmt.Errorf("failed to create root %q: %w", root, err)
		}
		logger.Info("Root created: %s", root)
	}

	return fs, nil
}
