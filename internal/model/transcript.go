// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript holds the entries of the current session in append order.
// It lives only in memory.
type Transcript struct {
	entries []*Entry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]*Entry, 0)}
}

// Append adds a settled entry at the end and returns it.
func (t *Transcript) Append(role Role, text string) *Entry {
	e := NewEntry(role, text)
	t.entries = append(t.entries, e)
	return e
}

// AppendPending adds a pending indicator at the end and returns it.
func (t *Transcript) AppendPending() *Entry {
	e := NewPendingEntry()
	t.entries = append(t.entries, e)
	return e
}

// RemovePending removes the pending entry with the given ID.
// Returns false when no such pending entry exists, for example because the
// transcript was cleared while the request was in flight.
func (t *Transcript) RemovePending(id string) bool {
	for i, e := range t.entries {
		if e.ID == id && e.Pending {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every entry, pending ones included.
func (t *Transcript) Clear() {
	t.entries = t.entries[:0]
}

// Entries returns a copy of all entries including pending indicators.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Messages returns a copy of the settled entries only.
func (t *Transcript) Messages() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if !e.Pending {
			out = append(out, *e)
		}
	}
	return out
}

// PendingCount returns the number of in-flight indicators.
func (t *Transcript) PendingCount() int {
	n := 0
	for _, e := range t.entries {
		if e.Pending {
			n++
		}
	}
	return n
}

// Len returns the number of settled entries.
func (t *Transcript) Len() int {
	return len(t.entries) - t.PendingCount()
}

// IsEmpty returns true if there are no settled entries.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// Last returns the most recent settled entry, or nil.
func (t *Transcript) Last() *Entry {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if !t.entries[i].Pending {
			e := *t.entries[i]
			return &e
		}
	}
	return nil
}
