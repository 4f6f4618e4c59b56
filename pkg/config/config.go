/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

// Config represents the uniclass service and tool configuration
type Config struct {
	DataDir   string   `yaml:"data_dir"`
	TablesDir string   `yaml:"tables_dir"`
	Port      int      `yaml:"port"`
	Bind      string   `yaml:"bind"`
	Security  Security `yaml:"security"`
	Logging   Logging  `yaml:"logging"`
	Catalog   Catalog  `yaml:"catalog"`
}

// Security contains security-related configuration
type Security struct {
	// APIKey protects the HTTP API when non-empty.
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Catalog controls how table files are loaded
type Catalog struct {
	Malformed    string `yaml:"malformed"`  // abort or skip
	Duplicates   string `yaml:"duplicates"` // error, keep-first or keep-last
	Trailing     string `yaml:"trailing"`   // reject or ignore
	Source       string `yaml:"source"`     // store, tables or snapshot
	SnapshotPath string `yaml:"snapshot_path"`
}

// Catalog sources for the serve command.
const (
	SourceStore    = "store"
	SourceTables   = "tables"
	SourceSnapshot = "snapshot"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:   "./data",
		TablesDir: "./uniclass_tables",
		Port:      8080,
		Bind:      "127.0.0.1",
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Catalog: Catalog{
			Malformed:  "abort",
			Duplicates: "error",
			Trailing:   "reject",
			Source:     SourceStore,
		},
	}
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that every enumerated setting has a known value.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	switch c.Catalog.Source {
	case "", SourceStore, SourceTables:
	case SourceSnapshot:
		if c.Catalog.SnapshotPath == "" {
			errs = append(errs, errors.New("catalog source snapshot requires snapshot_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog source %q", c.Catalog.Source))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Policy converts the catalog section into a load policy.
func (c *Config) Policy() (catalog.Policy, error) {
	var policy catalog.Policy
	var err error

	if c.Catalog.Duplicates != "" {
		if policy.Duplicates, err = catalog.ParseDuplicatePolicy(c.Catalog.Duplicates); err != nil {
			return catalog.Policy{}, err
		}
	}
	if c.Catalog.Malformed != "" {
		if policy.Malformed, err = catalog.ParseMalformedPolicy(c.Catalog.Malformed); err != nil {
			return catalog.Policy{}, err
		}
	}
	switch c.Catalog.Trailing {
	case "", "reject":
	case "ignore":
		policy.Parse = uniclass.ParseOptions{IgnoreTrailing: true}
	default:
		return catalog.Policy{}, fmt.Errorf("unknown trailing segment policy %q", c.Catalog.Trailing)
	}
	return policy, nil
}

// NewLogger builds the process logger described by the logging section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown logging level %q", s)
	}
	return level, nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration. When withAPIKey is set a random
// API key is generated to protect the HTTP API.
func BootstrapConfig(configPath string, dataDir string, withAPIKey bool) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	if withAPIKey {
		apiKey, err := GenerateSecureKey(32) // 256 bits
		if err != nil {
			return nil, fmt.Errorf("failed to generate API key: %w", err)
		}
		config.Security.APIKey = apiKey
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./uniclass.yaml"
	}

	// For Linux/macOS, use ~/.config/uniclass/config.yaml
	configDir := filepath.Join(homeDir, ".config", "uniclass")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
