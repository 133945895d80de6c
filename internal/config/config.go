// Package config loads and saves the complyd workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace config file name.
const FileName = "complyd.yml"

// Config is the on-disk workspace configuration.
type Config struct {
	// Database is the SQLite database path, relative to the config dir
	// unless absolute.
	Database string `yaml:"database"`

	// DefaultTenant is used when no --tenant flag is given.
	DefaultTenant string `yaml:"default_tenant,omitempty"`

	// Actor is recorded on audit events. Defaults to $USER at load time
	// when empty.
	Actor string `yaml:"actor,omitempty"`

	// AuditLog is the JSONL audit log path. Empty disables audit logging.
	AuditLog string `yaml:"audit_log,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Database:      "complyd.db",
		DefaultTenant: "default",
		AuditLog:      "audit.jsonl",
	}
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the config from dir. A missing file returns (nil, nil) so
// callers can distinguish "not initialized" from a read error.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Database == "" {
		cfg.Database = Default().Database
	}
	if cfg.Actor == "" {
		cfg.Actor = os.Getenv("USER")
	}
	return cfg, nil
}

// Save writes the config to dir, creating it if needed.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0o640); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DatabasePath resolves the database path relative to the config dir.
func (c *Config) DatabasePath(dir string) string {
	if c.Database == ":memory:" || filepath.IsAbs(c.Database) {
		return c.Database
	}
	return filepath.Join(dir, c.Database)
}

// AuditLogPath resolves the audit log path relative to the config dir.
// Returns "" when audit logging is disabled.
func (c *Config) AuditLogPath(dir string) string {
	if c.AuditLog == "" {
		return ""
	}
	if filepath.IsAbs(c.AuditLog) {
		return c.AuditLog
	}
	return filepath.Join(dir, c.AuditLog)
}
