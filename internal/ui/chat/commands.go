// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/export"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

// noticeTTL is how long a transient notice stays on screen.
const noticeTTL = 4 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SendCmd runs the network call of a send.
func SendCmd(ctx context.Context, client *chatclient.Client, req chatclient.SendRequest) tea.Cmd {
	return func() tea.Msg {
		return SendDoneMsg{Result: client.DeliverSend(ctx, req)}
	}
}

// ClearCmd runs the network call of a clear.
func ClearCmd(ctx context.Context, client *chatclient.Client) tea.Cmd {
	return func() tea.Msg {
		return ClearDoneMsg{Result: client.DeliverClear(ctx)}
	}
}

// ToggleCmd runs the network call of a toggle.
func ToggleCmd(ctx context.Context, client *chatclient.Client, req chatclient.ToggleRequest) tea.Cmd {
	return func() tea.Msg {
		return ToggleDoneMsg{Result: client.DeliverToggle(ctx, req)}
	}
}

// UploadCmd runs the network call of an upload.
func UploadCmd(ctx context.Context, client *chatclient.Client, req chatclient.UploadRequest) tea.Cmd {
	return func() tea.Msg {
		return UploadDoneMsg{Result: client.DeliverUpload(ctx, req)}
	}
}

// ExportCmd writes the committed messages of snap to path.
func ExportCmd(snap session.Snapshot, path string) tea.Cmd {
	return func() tea.Msg {
		written, err := export.ToFile(export.FromSnapshot(snap), path, nil)
		return ExportDoneMsg{Path: written, Error: err}
	}
}

// WaitForReload blocks on the next config reload.
func WaitForReload(ch <-chan config.Reload) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return configWatchClosedMsg{}
		}
		return ConfigReloadMsg{Reload: r}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashCommand is a parsed "/name arg" input line.
type slashCommand struct {
	Name string
	Arg  string
}

// parseSlash splits an input line that starts with "/". Names are
// case-insensitive; the argument keeps its case and inner spaces.
func parseSlash(input string) (slashCommand, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || len(input) == 1 {
		return slashCommand{}, false
	}
	name, arg, _ := strings.Cut(input[1:], " ")
	return slashCommand{
		Name: strings.ToLower(name),
		Arg:  strings.TrimSpace(arg),
	}, true
}

// slashHelp is shown by /help.
const slashHelp = "/clear  /rag [on|off]  /upload [path]  /export [file.md|file.json]  /help  /quit"
