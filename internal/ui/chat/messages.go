// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
)

// =============================================================================
// ACTION RESULTS
// =============================================================================

// SendDoneMsg carries a settled send back to Update.
type SendDoneMsg struct {
	Result chatclient.SendResult
}

// ClearDoneMsg carries a settled clear back to Update.
type ClearDoneMsg struct {
	Result chatclient.ClearResult
}

// ToggleDoneMsg carries a settled toggle back to Update.
type ToggleDoneMsg struct {
	Result chatclient.ToggleResult
}

// UploadDoneMsg carries a settled upload back to Update.
type UploadDoneMsg struct {
	Result chatclient.UploadResult
}

// ExportDoneMsg reports the result of writing the transcript to disk.
type ExportDoneMsg struct {
	Path  string
	Error error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadMsg delivers a re-read of the config file.
type ConfigReloadMsg struct {
	Reload config.Reload
}

// configWatchClosedMsg signals that the reload channel was closed.
type configWatchClosedMsg struct{}

// =============================================================================
// UI MESSAGES
// =============================================================================

// noticeExpiredMsg clears the notice line if it is still the one shown.
type noticeExpiredMsg struct {
	seq int
}
