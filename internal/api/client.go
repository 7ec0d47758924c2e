// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is the address the assistant server listens on by default.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// DefaultMaxUploadBytes bounds document uploads (50 MiB).
	DefaultMaxUploadBytes int64 = 50 << 20

	// DefaultUserAgent identifies the client to the server.
	DefaultUserAgent = "ragchat"

	// maxResponseBytes bounds how much of a response body is decoded.
	maxResponseBytes = 8 << 20
)

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the server base URL (default: http://127.0.0.1:5000)
	BaseURL string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// MaxUploadBytes bounds document size (default: 50 MiB)
	MaxUploadBytes int64

	// UserAgent is sent with every request (default: "ragchat")
	UserAgent string

	// Logger receives one entry per request. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        DefaultBaseURL,
		MaxUploadBytes: DefaultMaxUploadBytes,
		UserAgent:      DefaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the assistant API.
//
// The Client is safe for concurrent use; overlapping calls are independent
// requests with no ordering between them.
//
// Example:
//
//	client := api.NewClient(&api.ClientConfig{BaseURL: "http://localhost:5000"})
//	if err := client.ToggleRAG(ctx, true); err != nil {
//	    return err
//	}
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new API client. Zero values in config are filled with
// defaults; a nil config means DefaultConfig().
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Fill in defaults for any zero values
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: &cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("api"),
	}
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Ping verifies that the server is reachable. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	const op = "ping"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return transportError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := transportError(op, err)
		c.logResult(op, "/", start, apiErr)
		return apiErr
	}
	drainAndClose(resp.Body)

	c.logResult(op, "/", start, nil, zap.Int("status", resp.StatusCode))
	return nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendMessage posts a message and returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, message string, useRAG bool) (string, error) {
	var out SendMessageResponse
	err := c.postJSON(ctx, "send-message", EndpointSendMessage,
		SendMessageRequest{Message: message, UseRAG: useRAG}, &out,
		zap.Bool("use_rag", useRAG), zap.Int("bytes", len(message)))
	if err != nil {
		return "", err
	}
	return out.Response, nil
}

// ClearChat resets the server-side conversation history.
func (c *Client) ClearChat(ctx context.Context) error {
	var out StatusResponse
	return c.postJSON(ctx, "clear-chat", EndpointClearChat, ClearChatRequest{}, &out)
}

// ToggleRAG sets server-side retrieval mode to enable.
func (c *Client) ToggleRAG(ctx context.Context, enable bool) error {
	var out StatusResponse
	return c.postJSON(ctx, "toggle-rag", EndpointToggleRAG,
		ToggleRAGRequest{EnableRAG: enable}, &out, zap.Bool("enable_rag", enable))
}

// =============================================================================
// DOCUMENT UPLOAD
// =============================================================================

// UploadDocument reads the file at path and uploads it as a multipart form.
// Local read failures and the size limit are reported as transport errors:
// the request never completed.
func (c *Client) UploadDocument(ctx context.Context, path string) error {
	const op = "upload-document"
	if path == "" {
		return transportError(op, ErrNoDocument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return transportError(op, err)
	}
	if info.IsDir() {
		return transportError(op, fmt.Errorf("%s is a directory", path))
	}
	if info.Size() > c.config.MaxUploadBytes {
		return transportError(op, fmt.Errorf("%w (%d > %d bytes)", ErrDocumentTooLarge, info.Size(), c.config.MaxUploadBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return transportError(op, err)
	}
	return c.UploadBytes(ctx, filepath.Base(path), data)
}

// UploadBytes uploads data under the given file name.
func (c *Client) UploadBytes(ctx context.Context, name string, data []byte) error {
	const op = "upload-document"
	if int64(len(data)) > c.config.MaxUploadBytes {
		return transportError(op, fmt.Errorf("%w (%d > %d bytes)", ErrDocumentTooLarge, len(data), c.config.MaxUploadBytes))
	}

	body, contentType, err := encodeUpload(name, data)
	if err != nil {
		return transportError(op, fmt.Errorf("failed to encode upload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+EndpointUploadDocument, body)
	if err != nil {
		return transportError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	var out StatusResponse
	return c.do(req, op, EndpointUploadDocument, &out,
		zap.String("file", name), zap.Int("bytes", len(data)))
}

// encodeUpload builds the multipart body. The part's content type is
// detected from the data, not the file extension.
func encodeUpload(name string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     UploadField,
		"filename": name,
	}))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) postJSON(ctx context.Context, op, endpoint string, in any, out enveloped, fields ...zap.Field) error {
	body, err := json.Marshal(in)
	if err != nil {
		return transportError(op, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return transportError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, endpoint, out, fields...)
}

// do sends req and classifies the outcome. A nil return means the server
// answered 2xx with a JSON body whose success flag is true.
func (c *Client) do(req *http.Request, op, endpoint string, out enveloped, fields ...zap.Field) (err error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	status := 0
	defer func() {
		c.logResult(op, endpoint, start, err, append(fields, zap.Int("status", status))...)
	}()

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return transportError(op, doErr)
	}
	defer drainAndClose(resp.Body)
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode)
	}

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return transportError(op, fmt.Errorf("failed to read response: %w", readErr))
	}
	if decErr := decodeEnvelope(data, out); decErr != nil {
		return decodeError(op, resp.StatusCode, decErr)
	}

	if env := out.status(); !env.Success {
		return applicationError(op, resp.StatusCode, env.Error)
	}
	return nil
}

// decodeEnvelope parses a whole response body into out. The body must be
// exactly one JSON object; trailing data, null, and non-object values are
// rejected.
func decodeEnvelope(data []byte, out enveloped) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("response body is not a JSON object")
	}
	return json.Unmarshal(trimmed, out)
}

func (c *Client) logResult(op, endpoint string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("op", op),
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
	)
	if err == nil {
		c.logger.Debug("request succeeded", fields...)
		return
	}
	if apiErr, ok := AsError(err); ok {
		fields = append(fields, zap.Stringer("kind", apiErr.Kind))
	}
	c.logger.Warn("request failed", append(fields, zap.Error(err))...)
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
