// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// runTUI runs the full-screen chat view until the user quits.
func runTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := chat.New(chat.Options{
		Client:         app.Client,
		Theme:          styles.NewTheme(app.Theme),
		Logger:         app.Logger.Logger,
		Context:        ctx,
		Reloads:        watchConfig(ctx, app),
		ShowTimestamps: app.Config.UI.ShowTimestamps,
		RenderMarkdown: app.Config.UI.RenderMarkdown,
	})

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	}
	if app.Config.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	app.Logger.Info("chat view started", zap.String("server", app.API.BaseURL()))
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat view: %w", err)
	}
	app.Logger.Info("chat view closed", zap.Int("messages", app.Client.State().MessageCount()))
	return nil
}

// watchConfig starts live reload of the config file. Live reload is best
// effort: when the directory is missing or cannot be watched it is off.
func watchConfig(ctx context.Context, app *App) <-chan config.Reload {
	if app.ConfigPath == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Dir(app.ConfigPath)); err != nil {
		return nil
	}
	ch, err := config.Watch(ctx, app.ConfigPath)
	if err != nil {
		app.Logger.Warn("config watch disabled", zap.Error(err))
		return nil
	}
	return ch
}
