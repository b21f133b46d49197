// Package config provides configuration loading and management for Maestro.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Maestro configuration
type Config struct {
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Detect     DetectConfig     `yaml:"detect"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Approval   ApprovalConfig   `yaml:"approval"`
	Store      StoreConfig      `yaml:"store"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// WorkspaceConfig configures the workspace settings
type WorkspaceConfig struct {
	// Root is the workspace root path (defaults to the current directory)
	Root string `yaml:"root"`
	// Dir is the name of the state directory inside the workspace root
	Dir string `yaml:"dir"`
}

// DetectConfig configures the stack detector
type DetectConfig struct {
	// MinCategories is the minimum number of detected categories required
	// before a profile is considered usable
	MinCategories int `yaml:"min_categories"`
	// SignatureTable is an optional path to a YAML signature table that
	// replaces the compiled-in rules
	SignatureTable string `yaml:"signature_table"`
}

// ThresholdsConfig holds the complexity band boundaries for the task
// classifier. Each value is the inclusive upper bound for its band; anything
// above the Complex bound is Critical.
type ThresholdsConfig struct {
	TrivialMaxLOC  int `yaml:"trivial_max_loc"`
	SimpleMaxLOC   int `yaml:"simple_max_loc"`
	ModerateMaxLOC int `yaml:"moderate_max_loc"`
	ComplexMaxLOC  int `yaml:"complex_max_loc"`

	TrivialMaxFiles  int `yaml:"trivial_max_files"`
	SimpleMaxFiles   int `yaml:"simple_max_files"`
	ModerateMaxFiles int `yaml:"moderate_max_files"`
	ComplexMaxFiles  int `yaml:"complex_max_files"`
}

// ApprovalConfig holds the closed approval vocabulary. Input that matches
// neither set is never treated as approval.
type ApprovalConfig struct {
	Approve []string `yaml:"approve"`
	Reject  []string `yaml:"reject"`
}

// StoreConfig selects the plan store backend
type StoreConfig struct {
	// Backend is "file" or "nats"
	Backend string `yaml:"backend"`
}

// NATSConfig configures the NATS connection for the KV-backed stores
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// MetricsConfig configures the optional metrics listener
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root: "", // Current directory
			Dir:  ".maestro",
		},
		Detect: DetectConfig{
			MinCategories: 2,
		},
		Thresholds: ThresholdsConfig{
			TrivialMaxLOC:    10,
			SimpleMaxLOC:     50,
			ModerateMaxLOC:   200,
			ComplexMaxLOC:    1000,
			TrivialMaxFiles:  1,
			SimpleMaxFiles:   2,
			ModerateMaxFiles: 5,
			ComplexMaxFiles:  20,
		},
		Approval: ApprovalConfig{
			Approve: []string{"yes", "y", "approve", "approved", "ok", "lgtm"},
			Reject:  []string{"no", "n", "reject", "rejected", "abort", "cancel"},
		},
		Store: StoreConfig{
			Backend: "file",
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Workspace.Dir == "" {
		return fmt.Errorf("workspace.dir is required")
	}
	if c.Detect.MinCategories < 0 {
		return fmt.Errorf("detect.min_categories must not be negative")
	}
	t := c.Thresholds
	if !(t.TrivialMaxLOC < t.SimpleMaxLOC && t.SimpleMaxLOC < t.ModerateMaxLOC && t.ModerateMaxLOC < t.ComplexMaxLOC) {
		return fmt.Errorf("thresholds: LOC bounds must be strictly increasing")
	}
	if !(t.TrivialMaxFiles < t.SimpleMaxFiles && t.SimpleMaxFiles < t.ModerateMaxFiles && t.ModerateMaxFiles < t.ComplexMaxFiles) {
		return fmt.Errorf("thresholds: file bounds must be strictly increasing")
	}
	if len(c.Approval.Approve) == 0 {
		return fmt.Errorf("approval.approve must not be empty")
	}
	if len(c.Approval.Reject) == 0 {
		return fmt.Errorf("approval.reject must not be empty")
	}
	switch c.Store.Backend {
	case "file", "nats":
	default:
		return fmt.Errorf("store.backend must be \"file\" or \"nats\", got %q", c.Store.Backend)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Workspace
	if other.Workspace.Root != "" {
		c.Workspace.Root = other.Workspace.Root
	}
	if other.Workspace.Dir != "" {
		c.Workspace.Dir = other.Workspace.Dir
	}

	// Detect
	if other.Detect.MinCategories != 0 {
		c.Detect.MinCategories = other.Detect.MinCategories
	}
	if other.Detect.SignatureTable != "" {
		c.Detect.SignatureTable = other.Detect.SignatureTable
	}

	// Thresholds
	if other.Thresholds != (ThresholdsConfig{}) {
		c.Thresholds = other.Thresholds
	}

	// Approval
	if len(other.Approval.Approve) > 0 {
		c.Approval.Approve = other.Approval.Approve
	}
	if len(other.Approval.Reject) > 0 {
		c.Approval.Reject = other.Approval.Reject
	}

	// Store
	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
