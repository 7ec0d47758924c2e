// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// jsonDocument is the on-disk JSON layout.
type jsonDocument struct {
	Model      string        `json:"model,omitempty"`
	RAGEnabled bool          `json:"rag_enabled"`
	ExportedAt string        `json:"exported_at,omitempty"`
	Count      int           `json:"message_count"`
	Messages   []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// JSONExporter exports transcripts to JSON format.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	out := jsonDocument{
		Count:    len(doc.Messages),
		Messages: make([]jsonMessage, 0, len(doc.Messages)),
	}
	if e.options.IncludeMetadata {
		out.Model = doc.ModelLabel
		out.RAGEnabled = doc.RAGEnabled
		if !doc.ExportedAt.IsZero() {
			out.ExportedAt = formatTimestamp(doc.ExportedAt)
		}
	}
	for _, m := range doc.Messages {
		jm := jsonMessage{ID: m.ID, Role: m.Role, Text: m.Text}
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			ts := m.Timestamp
			jm.Timestamp = &ts
		}
		out.Messages = append(out.Messages, jm)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
