// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the transcript data structures shown by every
// front end.
//
// # Key Types
//
//   - Role: sender of an entry (user, assistant, system)
//   - Entry: one displayed transcript line with ID, text and timestamp
//   - Transcript: ordered entries in append order, including transient
//     pending indicators
//
// # Usage
//
//	tr := model.NewTranscript()
//	tr.Append(model.RoleUser, "What does the handbook say about leave?")
//	pending := tr.AppendPending()
//	// ... reply arrives ...
//	tr.RemovePending(pending.ID)
//	tr.Append(model.RoleAssistant, reply)
//
// A Transcript is not safe for concurrent use; session.State guards it.
package model
