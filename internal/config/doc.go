// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ragchat.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: assistant API address, request timeout, upload limit
//   - UIConfig: theme, model label and display toggles
//   - HistoryConfig: REPL input history file
//   - LogConfig: diagnostic log file and rotation
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the caller)
//   - Environment variables (RAGCHAT_*), including values from ./.env
//   - $RAGCHAT_HOME/config.toml (default ~/.ragchat/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(&api.ClientConfig{
//	    BaseURL: cfg.Server.URL,
//	    Timeout: cfg.RequestTimeout(),
//	})
//
// Watch the file for edits:
//
//	reloads, err := config.Watch(ctx, path)
//	for r := range reloads { ... }
package config
