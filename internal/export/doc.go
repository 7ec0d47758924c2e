// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a copy of the current chat transcript to disk.
//
// Only committed messages are exported; pending indicators never reach
// the output. The format is chosen from the file extension:
//
//   - .md / .markdown: human-readable Markdown with YAML frontmatter
//   - .json: machine-readable document with full entry metadata
//
// # Usage
//
//	doc := export.FromSnapshot(state.Snapshot())
//	path, err := export.ToFile(doc, "chat.md", nil)
package export
