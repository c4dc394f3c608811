// Package config handles configuration loading and validation for
// latticelock tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root configuration for pattern generation and
// verification.
type Config struct {
	Version int           `toml:"version" yaml:"version" json:"version"`
	Pattern PatternConfig `toml:"pattern" yaml:"pattern" json:"pattern"`
	Signing SigningConfig `toml:"signing" yaml:"signing" json:"signing"`
	Storage StorageConfig `toml:"storage" yaml:"storage" json:"storage"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
}

// PatternConfig controls pattern generation defaults.
type PatternConfig struct {
	Algorithm string `toml:"algorithm" yaml:"algorithm" json:"algorithm"`
	GridSize  int    `toml:"grid_size" yaml:"grid_size" json:"grid_size"`
	NumInks   int    `toml:"num_inks" yaml:"num_inks" json:"num_inks"`
}

// SigningConfig locates the signing key material.
type SigningConfig struct {
	KeyPath        string `toml:"key_path" yaml:"key_path" json:"key_path"`
	ManufacturerID string `toml:"manufacturer_id" yaml:"manufacturer_id" json:"manufacturer_id"`
}

// StorageConfig controls the pattern registry database.
type StorageConfig struct {
	Path   string `toml:"path" yaml:"path" json:"path"`
	Secure bool   `toml:"secure" yaml:"secure" json:"secure"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// DataDir returns the base data directory, honoring the
// LATTICELOCK_DATA_DIR override.
func DataDir() string {
	if dir := os.Getenv("LATTICELOCK_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".latticelock"
	}
	return filepath.Join(home, ".latticelock")
}

// ConfigPath returns the default configuration file location.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Version: Version,
		Pattern: PatternConfig{
			Algorithm: "multistage",
			GridSize:  8,
			NumInks:   5,
		},
		Signing: SigningConfig{
			KeyPath: filepath.Join(dir, "signing.key"),
		},
		Storage: StorageConfig{
			Path:   filepath.Join(dir, "registry.db"),
			Secure: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnvOverrides applies LATTICELOCK_ environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LATTICELOCK_ALGORITHM"); v != "" {
		c.Pattern.Algorithm = v
	}
	if v := os.Getenv("LATTICELOCK_GRID_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pattern.GridSize = n
		}
	}
	if v := os.Getenv("LATTICELOCK_NUM_INKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pattern.NumInks = n
		}
	}
	if v := os.Getenv("LATTICELOCK_SIGNING_KEY_PATH"); v != "" {
		c.Signing.KeyPath = v
	}
	if v := os.Getenv("LATTICELOCK_MANUFACTURER_ID"); v != "" {
		c.Signing.ManufacturerID = v
	}
	if v := os.Getenv("LATTICELOCK_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("LATTICELOCK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LATTICELOCK_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Pattern.Algorithm == "" {
		return fmt.Errorf("%w: pattern.algorithm is required", ErrInvalidConfig)
	}
	if c.Pattern.GridSize < 2 || c.Pattern.GridSize > 32 {
		return fmt.Errorf("%w: pattern.grid_size %d out of range [2,32]", ErrInvalidConfig, c.Pattern.GridSize)
	}
	if c.Pattern.NumInks < 2 || c.Pattern.NumInks > 10 {
		return fmt.Errorf("%w: pattern.num_inks %d out of range [2,10]", ErrInvalidConfig, c.Pattern.NumInks)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	}
	return nil
}

// Save writes the configuration as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
