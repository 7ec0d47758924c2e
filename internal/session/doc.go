// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the UI-local state of one chat session.
//
// State owns the transcript, the retrieval (RAG) flag, the model label and
// the upload status. The retrieval flag is a plain boolean changed only when
// the server confirms a toggle or an upload; every label the front ends show
// is derived from it.
//
// # Key Types
//
//   - State: mutex-guarded session state
//   - UploadStatus: phase plus detail text of the last document upload
//   - ToggleVariant: on/off presentation of the retrieval toggle
//   - Snapshot: consistent copy of State for rendering
//
// # Usage
//
//	st := session.NewState("Azure OpenAI")
//	st.SetRAGEnabled(true)
//	fmt.Println(st.RAGLabel())    // Enabled
//	fmt.Println(st.ToggleLabel()) // [on] Switch RAG
package session
