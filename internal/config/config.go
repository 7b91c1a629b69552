// Package config loads the layered YAML configuration for the indexer and
// query CLI: built-in defaults, an optional project file, then environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// configFileName is the project-local config file, checked for at the
// repo root (and any ancestor walked to by FindProjectRoot).
const configFileName = ".git-ai.yaml"

// PathsConfig configures which paths discovery walks and ignores.
type PathsConfig struct {
	// ScanRoot is the directory discovery walks, relative to the repo
	// root. "." scans the whole repo.
	ScanRoot string `yaml:"scan_root" json:"scan_root"`
	// Exclude lists additional glob patterns ignored on top of the
	// built-in excludes (internal/gitignore.BuiltinExcludes) and the scan
	// root's .gitignore/.aiignore files.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// EmbeddingsConfig configures the hash-embedding pipeline.
type EmbeddingsConfig struct {
	// Dim is the embedding dimensionality used for every indexing run
	// and query. Changing it invalidates an existing index (see
	// internal/checkindex).
	Dim int `yaml:"dim" json:"dim"`
}

// PerformanceConfig configures indexing concurrency.
type PerformanceConfig struct {
	// Workers bounds the parse stage's concurrency; 0 means
	// runtime.NumCPU().
	Workers int `yaml:"workers" json:"workers"`
}

// GraphConfig configures the AST graph store backend.
type GraphConfig struct {
	// Backend selects the graph store implementation: "auto" (default,
	// prefer the cgo sqlite3 backend and fall back to an in-memory
	// store when cgo is unavailable), "sqlite3", or "memory".
	Backend string `yaml:"backend" json:"backend"`
}

// LoggingConfig mirrors internal/logging.Config for YAML/env wiring.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// Config is the complete layered configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Graph       GraphConfig       `yaml:"graph" json:"graph"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			ScanRoot: ".",
			Exclude:  nil,
		},
		Embeddings: EmbeddingsConfig{
			Dim: 256,
		},
		Performance: PerformanceConfig{
			Workers: 0,
		},
		Graph: GraphConfig{
			Backend: "auto",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load builds a Config for repoRoot: built-in defaults, then
// <repoRoot>/.git-ai.yaml if present, then GITAI_* environment overrides.
// The result is validated before being returned.
func Load(repoRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(repoRoot, configFileName)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile parses path as YAML and merges its non-zero fields onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Paths.ScanRoot != "" {
		c.Paths.ScanRoot = other.Paths.ScanRoot
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Embeddings.Dim != 0 {
		c.Embeddings.Dim = other.Embeddings.Dim
	}
	if other.Performance.Workers != 0 {
		c.Performance.Workers = other.Performance.Workers
	}
	if other.Graph.Backend != "" {
		c.Graph.Backend = other.Graph.Backend
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
	if other.Logging.WriteToStderr {
		c.Logging.WriteToStderr = other.Logging.WriteToStderr
	}
}

// applyEnvOverrides applies GITAI_* environment variable overrides, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GITAI_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.Dim = n
		}
	}
	if v := os.Getenv("GITAI_SCAN_ROOT"); v != "" {
		c.Paths.ScanRoot = v
	}
	if v := os.Getenv("GITAI_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Performance.Workers = n
		}
	}
	if v := os.Getenv("GITAI_GRAPH_BACKEND"); v != "" {
		c.Graph.Backend = v
	}
	if v := os.Getenv("GITAI_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GITAI_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Embeddings.Dim <= 0 {
		return fmt.Errorf("embeddings.dim must be positive, got %d", c.Embeddings.Dim)
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must be non-negative, got %d", c.Performance.Workers)
	}
	switch strings.ToLower(c.Graph.Backend) {
	case "auto", "sqlite3", "memory":
	default:
		return fmt.Errorf("graph.backend must be 'auto', 'sqlite3', or 'memory', got %q", c.Graph.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a .git directory or
// a .git-ai.yaml file, returning the first match. If neither is found by
// the time the filesystem root is reached, the absolute form of startDir
// is returned unchanged.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("config: absolute path of %s: %w", startDir, err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		if fileExists(filepath.Join(dir, configFileName)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
