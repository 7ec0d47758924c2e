// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatclient implements the four chat actions on top of the API
// client and the session state.
//
// Each action maps one user event to one request and one state update.
// Actions come in two forms:
//
//   - phased: Begin* applies the immediate effect, Deliver* performs the
//     single network call (on any goroutine), Finish* applies the result.
//     The TUI runs Begin/Finish inside its update loop and Deliver inside a
//     command.
//   - one-call: SubmitMessage, ClearTranscript, ToggleRetrieval,
//     SetRetrieval and UploadDocument compose the phases for sequential
//     callers such as the REPL and one-shot commands.
//
// Finish* never returns an error. Failures are folded into an Outcome whose
// Text is what the user sees; Alert marks outcomes that front ends show as a
// blocking notification rather than inline.
//
// Overlapping sends are independent. Each owns its pending indicator and its
// reply is appended when its Finish runs, so replies land in arrival order.
package chatclient
