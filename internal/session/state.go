// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

// DefaultModelLabel is shown in the header when no label is configured.
const DefaultModelLabel = "Azure OpenAI"

// Retrieval flag labels.
const (
	LabelEnabled  = "Enabled"
	LabelDisabled = "Disabled"
)

// =============================================================================
// TOGGLE VARIANT
// =============================================================================

// ToggleVariant is the presentation of the retrieval toggle control.
type ToggleVariant int

const (
	ToggleOff ToggleVariant = iota
	ToggleOn
)

// String returns the variant name.
func (v ToggleVariant) String() string {
	if v == ToggleOn {
		return "on"
	}
	return "off"
}

// Label returns the toggle control text for this variant.
func (v ToggleVariant) Label() string {
	return "[" + v.String() + "] Switch RAG"
}

// =============================================================================
// UPLOAD STATUS
// =============================================================================

// UploadPhase is the lifecycle of the most recent document upload.
type UploadPhase int

const (
	UploadIdle UploadPhase = iota
	UploadInProgress
	UploadSucceeded
	UploadFailed
)

// String returns the phase name.
func (p UploadPhase) String() string {
	switch p {
	case UploadInProgress:
		return "uploading"
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Upload status texts.
const (
	UploadingText     = "Uploading..."
	UploadSuccessText = "Document uploaded successfully!"
)

// UploadStatus is the indicator shown next to the upload control.
type UploadStatus struct {
	Phase  UploadPhase
	Detail string
}

// Text returns the indicator text for the status.
func (s UploadStatus) Text() string {
	switch s.Phase {
	case UploadInProgress:
		return UploadingText
	case UploadSucceeded:
		return UploadSuccessText
	case UploadFailed:
		return s.Detail
	default:
		return ""
	}
}

// =============================================================================
// STATE
// =============================================================================

// State is the client-side state of one chat session.
// All methods are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	transcript *model.Transcript
	ragEnabled bool
	modelLabel string
	upload     UploadStatus
}

// NewState creates an empty session with retrieval disabled.
func NewState(modelLabel string) *State {
	if modelLabel == "" {
		modelLabel = DefaultModelLabel
	}
	return &State{
		transcript: model.NewTranscript(),
		modelLabel: modelLabel,
	}
}

// RAGEnabled reports the retrieval flag.
func (s *State) RAGEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ragEnabled
}

// SetRAGEnabled sets the retrieval flag. Callers do this only after the
// server has acknowledged the change.
func (s *State) SetRAGEnabled(enabled bool) {
	s.mu.Lock()
	s.ragEnabled = enabled
	s.mu.Unlock()
}

// RAGLabel returns "Enabled" or "Disabled".
func (s *State) RAGLabel() string {
	return ragLabel(s.RAGEnabled())
}

// ToggleVariant returns the toggle presentation for the current flag.
func (s *State) ToggleVariant() ToggleVariant {
	return toggleVariant(s.RAGEnabled())
}

// ToggleLabel returns the toggle control text for the current flag.
func (s *State) ToggleLabel() string {
	return s.ToggleVariant().Label()
}

// ModelLabel returns the model label shown in the header.
func (s *State) ModelLabel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelLabel
}

// SetModelLabel replaces the model label; empty resets to the default.
func (s *State) SetModelLabel(label string) {
	if label == "" {
		label = DefaultModelLabel
	}
	s.mu.Lock()
	s.modelLabel = label
	s.mu.Unlock()
}

// UploadStatus returns the current upload status.
func (s *State) UploadStatus() UploadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upload
}

// SetUploadStatus replaces the upload status.
func (s *State) SetUploadStatus(phase UploadPhase, detail string) {
	s.mu.Lock()
	s.upload = UploadStatus{Phase: phase, Detail: detail}
	s.mu.Unlock()
}

// UploadStatusText returns the upload indicator text.
func (s *State) UploadStatusText() string {
	return s.UploadStatus().Text()
}

// =============================================================================
// TRANSCRIPT ACCESS
// =============================================================================

// Append adds a settled entry and returns a copy of it.
func (s *State) Append(role model.Role, text string) model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.transcript.Append(role, text)
}

// AppendPending adds a pending indicator and returns a copy of it.
func (s *State) AppendPending() model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.transcript.AppendPending()
}

// RemovePending removes the pending indicator with the given ID.
func (s *State) RemovePending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.RemovePending(id)
}

// ClearTranscript empties the transcript.
func (s *State) ClearTranscript() {
	s.mu.Lock()
	s.transcript.Clear()
	s.mu.Unlock()
}

// Entries returns all entries including pending indicators.
func (s *State) Entries() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.Entries()
}

// Messages returns the settled entries.
func (s *State) Messages() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.Messages()
}

// MessageCount returns the number of settled entries.
func (s *State) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.Len()
}

// IsEmpty reports whether no settled entry has been recorded.
func (s *State) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.IsEmpty()
}

// LastMessage returns the most recent settled entry.
func (s *State) LastMessage() (model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.transcript.Last(); e != nil {
		return *e, true
	}
	return model.Entry{}, false
}

// PendingCount returns the number of sends awaiting a reply.
func (s *State) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.PendingCount()
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a consistent copy of the state taken under one lock.
type Snapshot struct {
	Entries     []model.Entry
	RAGEnabled  bool
	RAGLabel    string
	Toggle      ToggleVariant
	ModelLabel  string
	Upload      UploadStatus
	PendingSend int
}

// Snapshot returns a copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Entries:     s.transcript.Entries(),
		RAGEnabled:  s.ragEnabled,
		RAGLabel:    ragLabel(s.ragEnabled),
		Toggle:      toggleVariant(s.ragEnabled),
		ModelLabel:  s.modelLabel,
		Upload:      s.upload,
		PendingSend: s.transcript.PendingCount(),
	}
}

func ragLabel(enabled bool) string {
	if enabled {
		return LabelEnabled
	}
	return LabelDisabled
}

func toggleVariant(enabled bool) ToggleVariant {
	if enabled {
		return ToggleOn
	}
	return ToggleOff
}
