// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Endpoint paths.
const (
	EndpointSendMessage    = "/api/send-message"
	EndpointClearChat      = "/api/clear-chat"
	EndpointToggleRAG      = "/api/toggle-rag"
	EndpointUploadDocument = "/api/upload-document"
)

// UploadField is the multipart field carrying the document.
const UploadField = "file"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SendMessageRequest is the request body for /api/send-message.
type SendMessageRequest struct {
	Message string `json:"message"`
	UseRAG  bool   `json:"use_rag"`
}

// ClearChatRequest is the (empty) request body for /api/clear-chat.
type ClearChatRequest struct{}

// ToggleRAGRequest is the request body for /api/toggle-rag.
type ToggleRAGRequest struct {
	EnableRAG bool `json:"enable_rag"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// StatusResponse is the envelope every endpoint answers with.
type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r *StatusResponse) status() *StatusResponse { return r }

// SendMessageResponse is the response body for /api/send-message.
type SendMessageResponse struct {
	StatusResponse
	Response string `json:"response,omitempty"`
}

// enveloped is implemented by every response type.
type enveloped interface {
	status() *StatusResponse
}
