// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for the ragchat TUI.

The view is a Bubble Tea model driving a chatclient.Client. Every action
runs in three steps: the Begin step mutates the session immediately (user
entry, pending indicator, upload status), the Deliver step runs the HTTP
call inside a tea.Cmd, and the Finish step folds the result back into the
session when its message arrives in Update.

# Layout

  - Header with the model label and the retrieval badge
  - Transcript viewport (Markdown replies rendered with glamour)
  - Upload status / notice line
  - Message input
  - Status bar with the retrieval toggle and key hints

# Key Bindings

	enter      send message (or run a /command)
	ctrl+l     clear transcript
	ctrl+r     toggle retrieval
	ctrl+o     pick a document to upload
	pgup/pgdn  scroll
	?          help (when the input is empty)
	ctrl+c     quit

# Slash Commands

	/clear  /rag [on|off]  /upload [path]  /export [path]  /help  /quit

Failures of clear and toggle open a blocking alert that is dismissed with
enter or esc. Send failures appear in the transcript as system entries.
*/
package chat
