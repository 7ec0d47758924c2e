// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	History HistoryConfig `toml:"history" json:"history"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// ServerConfig contains the assistant API connection settings.
type ServerConfig struct {
	// URL is the base URL of the assistant server
	URL string `toml:"url" json:"url"`
	// RequestTimeoutSecs bounds each request; 0 waits indefinitely
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// MaxUploadMB is the largest document the client will upload
	MaxUploadMB int `toml:"max_upload_mb" json:"max_upload_mb"`
}

// UIConfig contains user interface settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// ModelLabel is shown in the header
	ModelLabel     string `toml:"model_label" json:"model_label"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
	RenderMarkdown bool   `toml:"render_markdown" json:"render_markdown"`
	AltScreen      bool   `toml:"alt_screen" json:"alt_screen"`
}

// HistoryConfig contains REPL input history settings.
type HistoryConfig struct {
	// File is the history file (empty = default ~/.ragchat/chat_history)
	File       string `toml:"file" json:"file"`
	MaxEntries int    `toml:"max_entries" json:"max_entries"`
}

// LogConfig contains diagnostic log settings.
type LogConfig struct {
	// File is the log file (empty = default ~/.ragchat/ragchat.log, "-" = off)
	File       string `toml:"file" json:"file"`
	Level      string `toml:"level" json:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
	Compress   bool   `toml:"compress" json:"compress"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultServerURL   = "http://127.0.0.1:5000"
	DefaultMaxUploadMB = 50
	MaxUploadMBLimit   = 1024
	DefaultModelLabel  = "Azure OpenAI"
	DefaultTheme       = "auto"
	DefaultLogLevel    = "info"
	DefaultMaxHistory  = 500

	// LogDisabled as log.file turns file logging off.
	LogDisabled = "-"
)

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:                DefaultServerURL,
			RequestTimeoutSecs: 0,
			MaxUploadMB:        DefaultMaxUploadMB,
		},
		UI: UIConfig{
			Theme:          DefaultTheme,
			ModelLabel:     DefaultModelLabel,
			ShowTimestamps: true,
			RenderMarkdown: true,
			AltScreen:      true,
		},
		History: HistoryConfig{
			MaxEntries: DefaultMaxHistory,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// RequestTimeout returns the per-request timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.Server.RequestTimeoutSecs) * time.Second
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// HistoryPath returns the REPL history file path.
func (c *Config) HistoryPath() string {
	if c.History.File != "" {
		return c.History.File
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

// LogPath returns the log file path, or "" when file logging is off.
func (c *Config) LogPath() string {
	switch c.Log.File {
	case LogDisabled:
		return ""
	case "":
		dir, err := ConfigDir()
		if err != nil {
			return ""
		}
		return filepath.Join(dir, "ragchat.log")
	default:
		return c.Log.File
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
// RAGCHAT_HOME overrides the default ~/.ragchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RAGCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads ./.env into the process environment. Variables that are
// already set win. A missing file is not an error.
func LoadDotEnv() error {
	return LoadDotEnvFile(".env")
}

// LoadDotEnvFile is LoadDotEnv for an explicit path.
func LoadDotEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads the default config file, falling back to defaults when it does
// not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
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
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "# ragchat configuration file")
	fmt.Fprintln(&buf, "# Generated by ragchat - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err.Error()
	}
	return buf.String()
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server
	if u, err := url.Parse(c.Server.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.Server.URL),
		})
	}
	if c.Server.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: "cannot be negative",
		})
	}
	if c.Server.MaxUploadMB < 1 || c.Server.MaxUploadMB > MaxUploadMBLimit {
		errs = append(errs, ValidationError{
			Field:   "server.max_upload_mb",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxUploadMBLimit, c.Server.MaxUploadMB),
		})
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	// History
	if c.History.MaxEntries < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_entries",
			Message: "cannot be negative",
		})
	}

	// Log
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "log",
			Message: "rotation limits cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields with defaults and normalizes values.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaults.Server.MaxUploadMB
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.UI.ModelLabel == "" {
		c.UI.ModelLabel = defaults.UI.ModelLabel
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_SERVER_URL: overrides server.url
//   - RAGCHAT_TIMEOUT: overrides server.request_timeout_secs (seconds or a duration like "90s")
//   - RAGCHAT_MODEL_LABEL: overrides ui.model_label
//   - RAGCHAT_THEME: overrides ui.theme
//   - RAGCHAT_LOG_FILE: overrides log.file
//   - RAGCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("RAGCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}

	if v := os.Getenv("RAGCHAT_TIMEOUT"); v != "" {
		secs, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_TIMEOUT: %w", err)
		}
		c.Server.RequestTimeoutSecs = secs
	}

	if v := os.Getenv("RAGCHAT_MODEL_LABEL"); v != "" {
		c.UI.ModelLabel = v
	}

	if v := os.Getenv("RAGCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}

	if v := os.Getenv("RAGCHAT_LOG_FILE"); v != "" {
		c.Log.File = v
	}

	if v := os.Getenv("RAGCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// parseSeconds accepts whole seconds ("30") or a Go duration ("1m30s").
func parseSeconds(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	return int(d / time.Second), nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
