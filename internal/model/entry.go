// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// PendingText is the text of the transient entry shown while a reply is awaited.
const PendingText = "AI is thinking"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a single line of the transcript.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Pending marks the transient "thinking" indicator. Never exported.
	Pending bool `json:"-"`
}

// NewEntry creates an entry with a fresh ID stamped with the current time.
func NewEntry(role Role, text string) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewPendingEntry creates the indicator shown while a send is in flight.
func NewPendingEntry() *Entry {
	e := NewEntry(RoleAssistant, PendingText)
	e.Pending = true
	return e
}

// IsUser returns true if this is a user entry.
func (e *Entry) IsUser() bool {
	return e.Role == RoleUser
}

// IsAssistant returns true if this is a settled assistant entry.
func (e *Entry) IsAssistant() bool {
	return e.Role == RoleAssistant && !e.Pending
}

// IsSystem returns true if this is a system entry.
func (e *Entry) IsSystem() bool {
	return e.Role == RoleSystem
}

// FormatTime renders the timestamp the way the chat view shows it.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("15:04:05")
}
