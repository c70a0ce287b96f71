// Package config loads repository configuration from .tracerepo/config.yaml
// and merges CLI flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/schema"
)

// ConfigDir is the repository-local configuration directory.
const ConfigDir = ".tracerepo"

// Config represents tracerepo configuration options.
type Config struct {
	// Database is the path to the index file, relative to the repo root.
	Database string `yaml:"database"`

	// Workers is the validation worker count (0 = number of CPUs).
	Workers int `yaml:"workers"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Driver is the default export driver.
	Driver string `yaml:"driver"`

	// ReportDir is where validation run reports are written.
	ReportDir string `yaml:"report_dir"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database:  schema.DatabaseCSV,
		Workers:   0, // NumCPU
		LogLevel:  "info",
		Driver:    string(geoio.DriverGeoJSON),
		ReportDir: filepath.Join(ConfigDir, "reports"),
	}
}

// LoadConfig loads configuration from the specified file path. A missing
// file yields the defaults without error; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from the file over the defaults.
	if fileCfg.Database != "" {
		cfg.Database = fileCfg.Database
	}
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.Driver != "" {
		cfg.Driver = fileCfg.Driver
	}
	if fileCfg.ReportDir != "" {
		cfg.ReportDir = fileCfg.ReportDir
	}

	return cfg, nil
}

// LoadConfigFromDir loads .tracerepo/config.yaml from the given repository
// root, falling back to defaults when absent.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ConfigDir, "config.yaml"))
}

// MergeWithFlags merges CLI flag overrides into the configuration. Non-nil
// flag values take precedence over config file settings.
func (c *Config) MergeWithFlags(database *string, workers *int, logLevel *string, driver *string) {
	if database != nil {
		c.Database = *database
	}
	if workers != nil {
		c.Workers = *workers
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if driver != nil {
		c.Driver = *driver
	}
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if _, err := geoio.Driver(c.Driver).Extension(); err != nil {
		return err
	}
	return nil
}
