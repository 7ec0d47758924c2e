// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chat TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on light
and dark terminals. The theme can follow terminal detection ("auto") or be
forced with "dark" / "light".

# Colors (colors.go)

  - Purple - assistant messages, selections
  - Cyan - brand, user highlights, key hints
  - Emerald - success, retrieval enabled
  - Amber - warnings, uploads in progress
  - Rose - errors and alerts

Status helpers (RenderSuccess, RenderError, ...) prefix text with ASCII
indicators so state is readable without color.

# Theme (theme.go)

	theme := styles.NewTheme(styles.ModeAuto)
	header := theme.Header.Render("Azure OpenAI")
*/
package styles
