// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/oswc/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Driver names accepted by service.driver.
const (
	DriverLocal   = "local"
	DriverGateway = "gateway"
)

// Config represents the complete oswc configuration.
type Config struct {
	// Service facade configuration
	Service ServiceConfig `toml:"service"`

	// Terminal configuration
	UI UIConfig `toml:"ui"`

	// Log file configuration
	Log LogConfig `toml:"log"`
}

// ServiceConfig selects and tunes the service driver.
type ServiceConfig struct {
	// Driver is "local" (SQLite loopback) or "gateway" (WebSocket)
	Driver string `toml:"driver"`
	// DefaultPort is used when connect is given no port
	DefaultPort int `toml:"default_port"`
	// ClientTag is the resource name sent on login
	ClientTag string `toml:"client_tag"`
	// DataDir holds the loopback databases (empty = ~/.oswc/data)
	DataDir string `toml:"data_dir"`
	// GatewayPath is the WebSocket endpoint path on the gateway
	GatewayPath string `toml:"gateway_path"`
	// RateLimit bounds gateway requests per second (0 = unlimited)
	RateLimit float64 `toml:"rate_limit"`
	// Compression requests transport compression
	Compression bool `toml:"compression"`
	// Reconnect asks the transport to resume dropped sessions
	Reconnect bool `toml:"reconnect"`
}

// UIConfig contains terminal settings.
type UIConfig struct {
	// HistoryFile stores input history (empty = ~/.oswc/history)
	HistoryFile string `toml:"history_file"`
	// Colors enables styled output
	Colors bool `toml:"colors"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File is the JSON log path (empty = ~/.oswc/oswc.log)
	File string `toml:"file"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Driver:      DriverLocal,
			DefaultPort: 5222,
			ClientTag:   "console",
			GatewayPath: "/v1/osw",
			RateLimit:   20,
			Compression: false,
			Reconnect:   true,
		},
		UI: UIConfig{
			Colors: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the oswc configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".oswc"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// resolvePath expands a leading ~ and falls back to name inside ConfigDir.
func resolvePath(path, name string) string {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return name
		}
		return filepath.Join(dir, name)
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// DataDir returns the resolved loopback data directory.
func (c *Config) DataDir() string {
	return resolvePath(c.Service.DataDir, "data")
}

// HistoryPath returns the resolved input history file.
func (c *Config) HistoryPath() string {
	return resolvePath(c.UI.HistoryFile, "history")
}

// LogPath returns the resolved log file.
func (c *Config) LogPath() string {
	return resolvePath(c.Log.File, "oswc.log")
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.oswc/config.toml. On first run the defaults are written there
// so the settings can be discovered and edited. Environment overrides are
// applied last and never saved.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			return LoadFromPath(path)
		case os.IsNotExist(statErr):
			if err := Save(Default()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write default config: %v\n", err)
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return fillDefaults(cfg, md)
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any value the file did not define.
func fillDefaults(cfg *Config, md toml.MetaData) error {
	defaults := Default()

	if cfg.Service.Driver == "" {
		cfg.Service.Driver = defaults.Service.Driver
	}
	if cfg.Service.DefaultPort == 0 {
		cfg.Service.DefaultPort = defaults.Service.DefaultPort
	}
	if cfg.Service.ClientTag == "" {
		cfg.Service.ClientTag = defaults.Service.ClientTag
	}
	if cfg.Service.GatewayPath == "" {
		cfg.Service.GatewayPath = defaults.Service.GatewayPath
	}
	if !md.IsDefined("service", "rate_limit") {
		cfg.Service.RateLimit = defaults.Service.RateLimit
	}
	if !md.IsDefined("service", "reconnect") {
		cfg.Service.Reconnect = defaults.Service.Reconnect
	}
	if !md.IsDefined("ui", "colors") {
		cfg.UI.Colors = defaults.UI.Colors
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.oswc/config.toml.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes the configuration with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# oswc configuration file\n")
	buf.WriteString("# Generated by oswc - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Service.Driver {
	case DriverLocal, DriverGateway:
	default:
		errs = append(errs, ValidationError{
			Field:   "service.driver",
			Message: fmt.Sprintf("invalid driver '%s', must be one of: local, gateway", c.Service.Driver),
		})
	}

	if c.Service.DefaultPort < 1 || c.Service.DefaultPort > 65535 {
		errs = append(errs, ValidationError{
			Field:   "service.default_port",
			Message: fmt.Sprintf("port %d out of range 1-65535", c.Service.DefaultPort),
		})
	}

	if strings.TrimSpace(c.Service.ClientTag) == "" {
		errs = append(errs, ValidationError{Field: "service.client_tag", Message: "cannot be empty"})
	}

	if !strings.HasPrefix(c.Service.GatewayPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "service.gateway_path",
			Message: fmt.Sprintf("path '%s' must start with /", c.Service.GatewayPath),
		})
	}

	if c.Service.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "service.rate_limit", Message: "cannot be negative"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//   - OSWC_DRIVER: overrides service.driver
//   - OSWC_DATA_DIR: overrides service.data_dir
//   - OSWC_GATEWAY_PATH: overrides service.gateway_path
//   - OSWC_DEFAULT_PORT: overrides service.default_port
//   - OSWC_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if driver := os.Getenv("OSWC_DRIVER"); driver != "" {
		c.Service.Driver = strings.ToLower(driver)
	}
	if dir := os.Getenv("OSWC_DATA_DIR"); dir != "" {
		c.Service.DataDir = dir
	}
	if path := os.Getenv("OSWC_GATEWAY_PATH"); path != "" {
		c.Service.GatewayPath = path
	}
	if port := os.Getenv("OSWC_DEFAULT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Service.DefaultPort = p
		}
	}
	if level := os.Getenv("OSWC_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}
