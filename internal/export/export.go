// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// ErrNoMessages is returned when there is nothing to export.
var ErrNoMessages = errors.New("transcript has no messages")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the exportable view of a session.
type Document struct {
	ModelLabel string
	RAGEnabled bool
	ExportedAt time.Time
	Messages   []model.Entry
}

// FromSnapshot builds a Document from a session snapshot, dropping pending
// indicators.
func FromSnapshot(snap session.Snapshot) *Document {
	msgs := make([]model.Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if e.Pending {
			continue
		}
		msgs = append(msgs, e)
	}
	return &Document{
		ModelLabel: snap.ModelLabel,
		RAGEnabled: snap.RAGEnabled,
		ExportedAt: time.Now(),
		Messages:   msgs,
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a document to the target format.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the canonical file extension (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata writes the frontmatter / header block.
	IncludeMetadata bool

	// IncludeTimestamps writes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForPath picks an exporter from the file extension.
func ForPath(path string, opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), nil
	case ".json":
		return NewJSONExporter(opts), nil
	case "":
		return nil, fmt.Errorf("export path %q has no extension (use .md or .json)", path)
	default:
		return nil, fmt.Errorf("unsupported export format %q (use .md or .json)", filepath.Ext(path))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile renders doc with the exporter matching path and writes it
// atomically. Returns the absolute output path.
func ToFile(doc *Document, path string, opts *Options) (string, error) {
	if doc == nil || len(doc.Messages) == 0 {
		return "", ErrNoMessages
	}

	exporter, err := ForPath(path, opts)
	if err != nil {
		return "", err
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// DefaultFilename returns a timestamped file name such as
// "chat_Azure_OpenAI_20250124_143052.md" for the given label and extension.
func DefaultFilename(label, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("chat_%s_%s%s", sanitizeFilename(label), now.Format("20060102_150405"), ext)
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename removes characters that are invalid in file names and
// folds accented letters to their base form.
func sanitizeFilename(name string) string {
	if name == "" {
		return "untitled"
	}

	name = foldAccents(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	name = replacer.Replace(name)
	name = strings.Trim(name, "._")
	name = util.TruncateRunes(name, 50)
	if name == "" {
		return "untitled"
	}
	return name
}

// foldAccents decomposes name and drops the combining marks, so "Café"
// becomes "Cafe".
func foldAccents(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// formatTimestamp formats a timestamp for export metadata.
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
