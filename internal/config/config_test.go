// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points RAGCHAT_HOME at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RAGCHAT_HOME", dir)
	for _, k := range []string{
		"RAGCHAT_SERVER_URL", "RAGCHAT_TIMEOUT", "RAGCHAT_MODEL_LABEL",
		"RAGCHAT_THEME", "RAGCHAT_LOG_FILE", "RAGCHAT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != "http://127.0.0.1:5000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.RequestTimeout() != 0 {
		t.Errorf("RequestTimeout() = %v, want none", cfg.RequestTimeout())
	}
	if cfg.MaxUploadBytes() != 50<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.UI.ModelLabel != "Azure OpenAI" {
		t.Errorf("UI.ModelLabel = %q", cfg.UI.ModelLabel)
	}
	if !cfg.UI.ShowTimestamps || !cfg.UI.RenderMarkdown {
		t.Error("display toggles should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q, want default", cfg.Server.URL)
	}
}

func TestLoad_FileValues(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
url = "http://rag.internal:8080/"
request_timeout_secs = 45

[ui]
theme = "Dark"
show_timestamps = false
`)

	cfg, err := Load()
	require.NoError(t, err)

	if cfg.Server.URL != "http://rag.internal:8080" {
		t.Errorf("Server.URL = %q, want trailing slash trimmed", cfg.Server.URL)
	}
	if cfg.RequestTimeout() != 45*time.Second {
		t.Errorf("RequestTimeout() = %v", cfg.RequestTimeout())
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q, want lowercased", cfg.UI.Theme)
	}
	if cfg.UI.ShowTimestamps {
		t.Error("UI.ShowTimestamps = true, want file value false")
	}
	// Keys absent from the file keep defaults.
	if !cfg.UI.RenderMarkdown || cfg.Server.MaxUploadMB != DefaultMaxUploadMB {
		t.Error("absent keys lost their defaults")
	}
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "[server]\nurll = \"http://x\"\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "server.urll") {
		t.Errorf("LoadFromPath() err = %v, want unknown key error", err)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"server":{"url":"https://rag.example.com"},"log":{"level":"debug"}}`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	if cfg.Server.URL != "https://rag.example.com" || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvOverridesBeatFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
url = "http://from-file:5000"
[ui]
model_label = "File Label"
`)
	t.Setenv("RAGCHAT_SERVER_URL", "http://from-env:5000")
	t.Setenv("RAGCHAT_MODEL_LABEL", "Env Label")
	t.Setenv("RAGCHAT_TIMEOUT", "1m30s")
	t.Setenv("RAGCHAT_LOG_LEVEL", "WARN")

	cfg, err := Load()
	require.NoError(t, err)

	if cfg.Server.URL != "http://from-env:5000" {
		t.Errorf("Server.URL = %q, want env value", cfg.Server.URL)
	}
	if cfg.UI.ModelLabel != "Env Label" {
		t.Errorf("UI.ModelLabel = %q, want env value", cfg.UI.ModelLabel)
	}
	if cfg.Server.RequestTimeoutSecs != 90 {
		t.Errorf("RequestTimeoutSecs = %d, want 90", cfg.Server.RequestTimeoutSecs)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_InvalidTimeoutEnv(t *testing.T) {
	isolate(t)
	t.Setenv("RAGCHAT_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Error("Load() with RAGCHAT_TIMEOUT=soon should fail")
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	isolate(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	writeFile(t, envPath, "RAGCHAT_MODEL_LABEL=From Dotenv\n")
	// Unset so the .env value can take effect; restored by t.Setenv cleanup.
	os.Unsetenv("RAGCHAT_MODEL_LABEL")

	require.NoError(t, LoadDotEnvFile(envPath))
	cfg, err := Load()
	require.NoError(t, err)

	if cfg.UI.ModelLabel != "From Dotenv" {
		t.Errorf("UI.ModelLabel = %q, want .env value", cfg.UI.ModelLabel)
	}

	if err := LoadDotEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.Server.URL = "localhost:5000" }, "server.url"},
		{"ftp url", func(c *Config) { c.Server.URL = "ftp://host" }, "server.url"},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeoutSecs = -1 }, "server.request_timeout_secs"},
		{"upload too big", func(c *Config) { c.Server.MaxUploadMB = 4096 }, "server.max_upload_mb"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"negative history", func(c *Config) { c.History.MaxEntries = -5 }, "history.max_entries"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tc.field {
				t.Errorf("Validate() = %v, want one error on %s", verrs, tc.field)
			}
		})
	}
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Server.URL = "http://saved:5000"
	cfg.UI.AltScreen = false
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if !strings.HasPrefix(string(data), "# ragchat configuration file") {
		t.Errorf("missing header comment: %q", string(data)[:40])
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	if loaded.Server.URL != "http://saved:5000" || loaded.UI.AltScreen {
		t.Errorf("loaded = %+v", loaded)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %o, want 600", info.Mode().Perm())
		}
	}
}

func TestPaths(t *testing.T) {
	dir := isolate(t)

	path, err := ConfigPath()
	require.NoError(t, err)
	if path != filepath.Join(dir, "config.toml") {
		t.Errorf("ConfigPath() = %q", path)
	}

	cfg := Default()
	if cfg.HistoryPath() != filepath.Join(dir, "chat_history") {
		t.Errorf("HistoryPath() = %q", cfg.HistoryPath())
	}
	if cfg.LogPath() != filepath.Join(dir, "ragchat.log") {
		t.Errorf("LogPath() = %q", cfg.LogPath())
	}
	cfg.Log.File = LogDisabled
	if cfg.LogPath() != "" {
		t.Errorf("LogPath() with %q = %q, want empty", LogDisabled, cfg.LogPath())
	}
}

// =============================================================================
// DOT-NOTATION KEYS
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("server.max_upload_mb", "10"))
	require.NoError(t, cfg.Set("ui.show_timestamps", "off"))
	require.NoError(t, cfg.Set("UI.Model_Label", "Local"))

	if v, _ := cfg.Get("server.max_upload_mb"); v != 10 {
		t.Errorf("Get(server.max_upload_mb) = %v", v)
	}
	if cfg.UI.ShowTimestamps {
		t.Error("ui.show_timestamps still true")
	}
	if cfg.UI.ModelLabel != "Local" {
		t.Errorf("ui.model_label = %q", cfg.UI.ModelLabel)
	}

	for _, bad := range []string{"server", "server.nope", "nope.url", "server.url.extra"} {
		if _, err := cfg.Get(bad); err == nil {
			t.Errorf("Get(%q) should fail", bad)
		}
	}
	if err := cfg.Set("server.request_timeout_secs", "ten"); err == nil {
		t.Error("Set with non-integer should fail")
	}
}

func TestAllKeys(t *testing.T) {
	keys := AllKeys()
	cfg := Default()
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("AllKeys() returned %q but Get fails: %v", k, err)
		}
	}
	if len(keys) < 15 {
		t.Errorf("AllKeys() len = %d", len(keys))
	}
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestSetGlobalBeforeFirstUse(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	custom := Default()
	custom.UI.ModelLabel = "Pinned"
	SetGlobal(custom)

	if Global().UI.ModelLabel != "Pinned" {
		t.Errorf("Global() replaced the config set by SetGlobal")
	}
}
