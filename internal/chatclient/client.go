// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatclient

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

// API is the subset of *api.Client the chat actions need.
type API interface {
	SendMessage(ctx context.Context, message string, useRAG bool) (string, error)
	ClearChat(ctx context.Context) error
	ToggleRAG(ctx context.Context, enable bool) error
	UploadDocument(ctx context.Context, path string) error
}

// Client runs chat actions against an API and records their effects in a
// session.State. It is safe for concurrent use.
type Client struct {
	api    API
	state  *session.State
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client. A nil state starts a fresh session.
func New(apiClient API, state *session.State, opts ...Option) *Client {
	if state == nil {
		state = session.NewState("")
	}
	c := &Client{
		api:    apiClient,
		state:  state,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("chat")
	return c
}

// State returns the session state the client mutates.
func (c *Client) State() *session.State {
	return c.state
}

// NormalizeInput trims surrounding whitespace. The rest of the text is sent
// byte for byte.
func NormalizeInput(text string) string {
	return strings.TrimSpace(text)
}

func (c *Client) logOutcome(op string, o Outcome, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Stringer("outcome", o.Kind))
	if o.Err != nil {
		kind, _ := classify(o.Err)
		c.logger.Warn("action failed", append(fields, zap.Stringer("kind", kind), zap.Error(o.Err))...)
		return
	}
	c.logger.Debug("action finished", fields...)
}

// =============================================================================
// SEND MESSAGE
// =============================================================================

// SendRequest is an in-flight send.
type SendRequest struct {
	Text      string
	UseRAG    bool
	UserEntry model.Entry
	PendingID string
}

// SendResult is the settled network call of a send.
type SendResult struct {
	Request SendRequest
	Reply   string
	Err     error
}

// BeginSend records the user entry and a pending indicator, and captures the
// current retrieval flag. It returns false when text is blank, in which
// case nothing is recorded.
func (c *Client) BeginSend(text string) (SendRequest, bool) {
	text = NormalizeInput(text)
	if text == "" {
		return SendRequest{}, false
	}

	useRAG := c.state.RAGEnabled()
	user := c.state.Append(model.RoleUser, text)
	pending := c.state.AppendPending()

	return SendRequest{
		Text:      text,
		UseRAG:    useRAG,
		UserEntry: user,
		PendingID: pending.ID,
	}, true
}

// DeliverSend performs the network call of a send.
func (c *Client) DeliverSend(ctx context.Context, req SendRequest) SendResult {
	reply, err := c.api.SendMessage(ctx, req.Text, req.UseRAG)
	return SendResult{Request: req, Reply: reply, Err: err}
}

// FinishSend removes the pending indicator and appends the reply, or a
// system entry describing the failure.
func (c *Client) FinishSend(res SendResult) Outcome {
	c.state.RemovePending(res.Request.PendingID)

	var o Outcome
	if res.Err != nil {
		o = failed(sendErrorText(res.Err), res.Err)
		c.state.Append(model.RoleSystem, o.Text)
	} else {
		o = succeeded(res.Reply)
		c.state.Append(model.RoleAssistant, res.Reply)
	}

	c.logOutcome("send-message", o, zap.Bool("use_rag", res.Request.UseRAG))
	return o
}

// SubmitMessage sends text and waits for the reply.
func (c *Client) SubmitMessage(ctx context.Context, text string) Outcome {
	req, ok := c.BeginSend(text)
	if !ok {
		return skipped()
	}
	return c.FinishSend(c.DeliverSend(ctx, req))
}

// =============================================================================
// CLEAR TRANSCRIPT
// =============================================================================

// ClearResult is the settled network call of a clear.
type ClearResult struct {
	Err error
}

// DeliverClear asks the server to reset its history.
func (c *Client) DeliverClear(ctx context.Context) ClearResult {
	return ClearResult{Err: c.api.ClearChat(ctx)}
}

// FinishClear empties the transcript on success. On failure the transcript
// is left untouched and the outcome is an alert.
func (c *Client) FinishClear(res ClearResult) Outcome {
	var o Outcome
	if res.Err != nil {
		o = alert("Error clearing chat: "+alertDetail(res.Err, clearServerError), res.Err)
	} else {
		c.state.ClearTranscript()
		o = succeeded(EmptyStateText)
	}
	c.logOutcome("clear-chat", o)
	return o
}

// ClearTranscript clears server and local history.
func (c *Client) ClearTranscript(ctx context.Context) Outcome {
	return c.FinishClear(c.DeliverClear(ctx))
}

// =============================================================================
// TOGGLE RETRIEVAL
// =============================================================================

// ToggleRequest is a requested retrieval flag change.
type ToggleRequest struct {
	Enable bool
}

// ToggleResult is the settled network call of a toggle.
type ToggleResult struct {
	Request ToggleRequest
	Err     error
}

// BeginToggle requests the opposite of the current flag.
func (c *Client) BeginToggle() ToggleRequest {
	return ToggleRequest{Enable: !c.state.RAGEnabled()}
}

// DeliverToggle performs the network call of a toggle.
func (c *Client) DeliverToggle(ctx context.Context, req ToggleRequest) ToggleResult {
	return ToggleResult{Request: req, Err: c.api.ToggleRAG(ctx, req.Enable)}
}

// FinishToggle sets the flag to the requested value on success. On failure
// nothing changes and the outcome is an alert.
func (c *Client) FinishToggle(res ToggleResult) Outcome {
	var o Outcome
	if res.Err != nil {
		o = alert("Error toggling RAG: "+alertDetail(res.Err, toggleServerError), res.Err)
	} else {
		c.state.SetRAGEnabled(res.Request.Enable)
		o = succeeded("RAG " + c.state.RAGLabel())
	}
	c.logOutcome("toggle-rag", o, zap.Bool("enable_rag", res.Request.Enable))
	return o
}

// ToggleRetrieval flips the retrieval flag.
func (c *Client) ToggleRetrieval(ctx context.Context) Outcome {
	return c.FinishToggle(c.DeliverToggle(ctx, c.BeginToggle()))
}

// SetRetrieval sets the retrieval flag to enable, whatever its current value.
func (c *Client) SetRetrieval(ctx context.Context, enable bool) Outcome {
	return c.FinishToggle(c.DeliverToggle(ctx, ToggleRequest{Enable: enable}))
}

// =============================================================================
// UPLOAD DOCUMENT
// =============================================================================

// UploadRequest is an in-flight upload.
type UploadRequest struct {
	Path string
}

// UploadResult is the settled network call of an upload.
type UploadResult struct {
	Request UploadRequest
	Err     error
}

// BeginUpload marks the upload as in progress. It returns false when no
// file was selected.
func (c *Client) BeginUpload(path string) (UploadRequest, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return UploadRequest{}, false
	}
	c.state.SetUploadStatus(session.UploadInProgress, "")
	return UploadRequest{Path: path}, true
}

// DeliverUpload performs the network call of an upload.
func (c *Client) DeliverUpload(ctx context.Context, req UploadRequest) UploadResult {
	return UploadResult{Request: req, Err: c.api.UploadDocument(ctx, req.Path)}
}

// FinishUpload records the upload status. Success forces retrieval on;
// failure never touches the flag.
func (c *Client) FinishUpload(res UploadResult) Outcome {
	var o Outcome
	if res.Err != nil {
		o = failed(uploadErrorText(res.Err), res.Err)
		c.state.SetUploadStatus(session.UploadFailed, o.Text)
	} else {
		c.state.SetUploadStatus(session.UploadSucceeded, "")
		c.state.SetRAGEnabled(true)
		o = succeeded(session.UploadSuccessText)
	}
	c.logOutcome("upload-document", o, zap.String("path", res.Request.Path))
	return o
}

// UploadDocument uploads the file at path.
func (c *Client) UploadDocument(ctx context.Context, path string) Outcome {
	req, ok := c.BeginUpload(path)
	if !ok {
		return skipped()
	}
	return c.FinishUpload(c.DeliverUpload(ctx, req))
}
