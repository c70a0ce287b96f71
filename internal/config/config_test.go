package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/schema"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database != schema.DatabaseCSV {
		t.Errorf("Database = %q, want %q", cfg.Database, schema.DatabaseCSV)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Driver != string(geoio.DriverGeoJSON) {
		t.Errorf("Driver = %q, want %q", cfg.Driver, geoio.DriverGeoJSON)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("missing config file should yield defaults: %v", err)
	}
	if cfg.Database != schema.DatabaseCSV {
		t.Errorf("Database = %q, want default", cfg.Database)
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "workers: 8\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Unset keys keep their defaults.
	if cfg.Database != schema.DatabaseCSV {
		t.Errorf("Database = %q, want default", cfg.Database)
	}
	if cfg.Driver != string(geoio.DriverGeoJSON) {
		t.Errorf("Driver = %q, want default", cfg.Driver)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: [not an int"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed config should fail to load")
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("driver: GPKG\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(root)
	if err != nil {
		t.Fatalf("LoadConfigFromDir: %v", err)
	}
	if cfg.Driver != string(geoio.DriverGPKG) {
		t.Errorf("Driver = %q, want GPKG", cfg.Driver)
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	workers := 4
	logLevel := "error"

	cfg.MergeWithFlags(nil, &workers, &logLevel, nil)
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.Database != schema.DatabaseCSV {
		t.Errorf("nil flag should not override Database")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty database", mutate: func(c *Config) { c.Database = "" }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "ESRI Shapefile" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
