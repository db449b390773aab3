// Package config loads bootdb settings from defaults, an optional YAML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/illarion/bootdb/internal/logging"
)

const (
	DefaultPath      = "node.bootdb"
	ArchiveSuffix    = ".archive"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Environment variables
const (
	EnvConfig   = "BOOTDB_CONFIG"
	EnvPath     = "BOOTDB_PATH"
	EnvArchive  = "BOOTDB_ARCHIVE"
	EnvLogLevel = "BOOTDB_LOG_LEVEL"
	EnvPassword = "BOOTDB_PASSWORD"
)

// Config holds bootdb settings
type Config struct {
	Path       string `yaml:"path"`           // Database file
	Archive    string `yaml:"archive"`        // Snapshot archive, defaults to Path + ".archive"
	LogLevel   string `yaml:"log_level"`      // debug, info, warn, error
	LogFormat  string `yaml:"log_format"`     // text or json
	Iterations int    `yaml:"kdf_iterations"` // PBKDF2 iterations for sealed records, 0 = default
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Path:      DefaultPath,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load builds a configuration. file may be empty, in which case BOOTDB_CONFIG
// is consulted; a missing file named only by the environment is ignored.
func Load(file string) (*Config, error) {
	cfg := Default()

	explicit := file != ""
	if !explicit {
		file = os.Getenv(EnvConfig)
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", file, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvArchive); v != "" {
		c.Archive = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Iterations < 0 {
		return fmt.Errorf("kdf_iterations must not be negative")
	}
	if int64(c.Iterations) > math.MaxUint32 {
		return fmt.Errorf("kdf_iterations must not exceed %d", uint32(math.MaxUint32))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ArchivePath returns the snapshot archive location
func (c *Config) ArchivePath() string {
	if c.Archive != "" {
		return c.Archive
	}
	return c.Path + ArchiveSuffix
}

// Logger builds the logger described by the configuration
func (c *Config) Logger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level, c.LogFormat, os.Stderr)
}
