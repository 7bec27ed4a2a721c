// Package config provides the unified configuration system for Treescan.
// It defines a single BaseConfig structure that relations are built from,
// organized into logical sections:
//   - Source: which files and tree to expose, and which columns to read
//   - Performance: buffer and batch sizing for row streaming
//   - Observability: logging and metrics settings
//
// Example usage:
//
//	cfg := config.NewBaseConfig("events", "root")
//	cfg.Source.Path = "/data/2024"
//	cfg.Source.Tree = "Events"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/ajitpratap0/treescan/pkg/errors"
)

// DefaultExtension is the file extension used to recognize input files
// when the configured path is a directory.
const DefaultExtension = ".root"

// BaseConfig is the single unified configuration structure for a relation.
type BaseConfig struct {
	// Name identifies the relation instance
	Name string `yaml:"name" json:"name"`
	// Type specifies the source type (currently always "root")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Source identifies the input files and tree
	Source SourceConfig `yaml:"source" json:"source"`

	// Performance settings control streaming behavior
	Performance PerformanceConfig `yaml:"performance" json:"performance"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// SourceConfig identifies the input files and the tree to expose.
type SourceConfig struct {
	// Path is a file or directory holding the input files (required)
	Path string `yaml:"path" json:"path"`
	// Tree is the name of the tree to read; empty means the first tree
	// found in each file's top-level directory
	Tree string `yaml:"tree" json:"tree"`
	// Columns restricts the scan to the named top-level branches;
	// empty means all branches (schema-discovery mode)
	Columns []string `yaml:"columns" json:"columns"`
	// Extension filters directory entries; defaults to ".root"
	Extension string `yaml:"extension" json:"extension"`
}

// PerformanceConfig contains performance-related settings.
type PerformanceConfig struct {
	// BatchSize controls the number of rows grouped per batch
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// BufferSize sets the row channel buffer for streaming scans
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// Workers defines the number of files scanned concurrently
	Workers int `yaml:"workers" json:"workers"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableLogging controls logging output
	EnableLogging bool `yaml:"enable_logging" json:"enable_logging"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewBaseConfig creates a BaseConfig with sensible defaults.
func NewBaseConfig(name, sourceType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    sourceType,
		Version: "1.0",
		Source: SourceConfig{
			Extension: DefaultExtension,
		},
		Performance: PerformanceConfig{
			BatchSize:  1000,
			BufferSize: 1000,
			Workers:    1,
		},
		Observability: ObservabilityConfig{
			EnableLogging: true,
			LogLevel:      "info",
		},
	}
}

// Validate checks the configuration for fatal errors. A missing source
// path aborts relation construction.
func (c *BaseConfig) Validate() error {
	if c.Source.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "source path is required")
	}
	if c.Source.Extension == "" {
		c.Source.Extension = DefaultExtension
	}
	if c.Performance.BufferSize <= 0 {
		c.Performance.BufferSize = 1000
	}
	if c.Performance.BatchSize <= 0 {
		c.Performance.BatchSize = 1000
	}
	if c.Performance.Workers <= 0 {
		c.Performance.Workers = 1
	}
	return nil
}
