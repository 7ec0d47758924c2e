// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/api"
	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// APP
// =============================================================================

// App carries what every command needs once flags and config are resolved.
type App struct {
	Config *config.Config
	// ConfigPath is the file the config was read from (it may not exist).
	ConfigPath string
	Logger     *logging.Logger
	Theme      styles.Mode

	API    *api.Client
	Client *chatclient.Client

	closed bool
}

// globalFlags are the persistent root flags.
type globalFlags struct {
	server     string
	configPath string
	verbose    bool
}

// newApp resolves configuration and builds the logger and API client.
// Console logging is only added for line-oriented commands; the chat view
// owns the terminal.
func newApp(flags *globalFlags, consoleLog bool, errOut io.Writer) (*App, error) {
	// A missing .env is fine; a malformed one is not.
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	var (
		cfg  *config.Config
		path = flags.configPath
		err  error
	)
	if path != "" {
		// An explicit file must exist.
		cfg, err = config.LoadFromPath(path)
	} else {
		path, _ = config.ConfigPath()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.server != "" {
		cfg.Server.URL = flags.server
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	theme, err := styles.ParseMode(cfg.UI.Theme)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flags.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		File:          cfg.LogPath(),
		Level:         level,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxBackups:    cfg.Log.MaxBackups,
		MaxAgeDays:    cfg.Log.MaxAgeDays,
		Compress:      cfg.Log.Compress,
		Console:       consoleLog && flags.verbose,
		ConsoleWriter: errOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	config.SetGlobal(cfg)

	apiClient := api.NewClient(&api.ClientConfig{
		BaseURL:        cfg.Server.URL,
		Timeout:        cfg.RequestTimeout(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger.Logger,
	})

	logger.Debug("configuration loaded",
		zap.String("config", path),
		zap.String("server", apiClient.BaseURL()),
		zap.Duration("timeout", cfg.RequestTimeout()),
	)

	return &App{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Theme:      theme,
		API:        apiClient,
		Client: chatclient.New(apiClient, session.NewState(cfg.UI.ModelLabel),
			chatclient.WithLogger(logger.Logger)),
	}, nil
}

// Close flushes the logger. It is safe to call more than once.
func (a *App) Close() {
	if a == nil || a.closed {
		return
	}
	a.closed = true
	_ = a.Logger.Close()
}

// statusTimeout bounds the reachability probe of the status command.
const statusTimeout = 10 * time.Second
