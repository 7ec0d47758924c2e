// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the ragchat packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width truncation for terminal cells
//   - OneLine: collapse whitespace for single-line previews
//
// # Usage
//
//	// Write the exported transcript without leaving partial files behind
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit a preview into a status bar
//	preview := util.TruncateWidth(util.OneLine(text), 40)
package util
