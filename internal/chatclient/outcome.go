// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatclient

import (
	"github.com/jeranaias/ragchat-tui/internal/api"
)

// User-facing texts.
const (
	EmptyStateText = "Start a conversation with your AI assistant!"

	unknownError         = "Unknown error"
	unknownErrorSentence = "Unknown error."

	sendServerError   = "Server error while sending message."
	clearServerError  = "Server error clearing chat."
	toggleServerError = "Server error toggling RAG."
)

// OutcomeKind classifies how an action ended.
type OutcomeKind int

const (
	// Skipped means the precondition failed; nothing was sent.
	Skipped OutcomeKind = iota
	// Succeeded means the server confirmed the action.
	Succeeded
	// Failed means a transport, protocol or application failure.
	Failed
)

// String returns the kind name.
func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// Outcome is the rendered result of an action.
type Outcome struct {
	Kind OutcomeKind
	// Text is what the user sees: the reply, a status line or an error.
	Text string
	// Alert marks failures shown as a blocking notification.
	Alert bool
	Err   error
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool {
	return o.Kind == Succeeded
}

func skipped() Outcome {
	return Outcome{Kind: Skipped}
}

func succeeded(text string) Outcome {
	return Outcome{Kind: Succeeded, Text: text}
}

func failed(text string, err error) Outcome {
	return Outcome{Kind: Failed, Text: text, Err: err}
}

func alert(text string, err error) Outcome {
	return Outcome{Kind: Failed, Text: text, Alert: true, Err: err}
}

// =============================================================================
// ERROR TEXT
// =============================================================================

// classify splits err into its kind and API error. Errors that did not come
// from the API client are treated as transport failures.
func classify(err error) (api.ErrorKind, *api.Error) {
	if apiErr, ok := api.AsError(err); ok {
		return apiErr.Kind, apiErr
	}
	return api.KindTransport, nil
}

// transportDetail is the cause text of a transport failure.
func transportDetail(err error, apiErr *api.Error) string {
	if apiErr != nil {
		return apiErr.Detail()
	}
	return err.Error()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// sendErrorText renders a failed send as a system entry.
func sendErrorText(err error) string {
	kind, apiErr := classify(err)
	switch kind {
	case api.KindApplication:
		return "Error: " + orDefault(apiErr.Message, unknownError)
	case api.KindProtocol:
		return sendServerError
	default:
		return "Network error: " + transportDetail(err, apiErr)
	}
}

// alertDetail renders the detail of a failed clear or toggle. serverError is
// used for non-2xx answers.
func alertDetail(err error, serverError string) string {
	kind, apiErr := classify(err)
	switch kind {
	case api.KindApplication:
		return orDefault(apiErr.Message, unknownErrorSentence)
	case api.KindProtocol:
		if apiErr.StatusCode < 200 || apiErr.StatusCode > 299 {
			return serverError
		}
		return apiErr.Message
	default:
		return transportDetail(err, apiErr)
	}
}

// uploadErrorText renders a failed upload for the status indicator.
func uploadErrorText(err error) string {
	kind, apiErr := classify(err)
	switch kind {
	case api.KindApplication:
		return "Upload failed: " + orDefault(apiErr.Message, unknownError)
	case api.KindProtocol:
		return "Upload error: " + apiErr.Message
	default:
		return "Upload error: " + transportDetail(err, apiErr)
	}
}
