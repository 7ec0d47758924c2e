// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package apitest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/api"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxUploadSize is the largest multipart body the server parses.
	MaxUploadSize = 64 << 20

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 << 20

	// Banner is returned by GET /.
	Banner = "ragchat mock server\n"
)

// ============================================================================
// FAILURE SCRIPTING
// ============================================================================

// FailureMode selects how a scripted failure is delivered.
type FailureMode int

const (
	// FailApplication answers 200 with success=false and Message.
	FailApplication FailureMode = iota
	// FailStatus answers with Status (default 500) and a JSON body.
	FailStatus
	// FailInvalidJSON answers 200 with a body that is not JSON.
	FailInvalidJSON
	// FailDrop closes the connection without answering.
	FailDrop
	// FailBody answers Status (default 200) with Body written verbatim as
	// application/json.
	FailBody
)

// Failure is a scripted failure for one endpoint.
type Failure struct {
	Mode    FailureMode
	Message string
	Status  int
	Body    string
	// Times limits how many requests fail; zero means every request.
	Times int
}

// Upload describes an accepted document.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
}

// ============================================================================
// SERVER
// ============================================================================

// Server is an in-memory assistant API.
type Server struct {
	router *http.ServeMux
	logger *zap.Logger

	mu         sync.Mutex
	ragEnabled bool
	history    []string
	messages   []api.SendMessageRequest
	toggles    []bool
	uploads    []Upload
	calls      map[string]int
	failures   map[string]*Failure
	gates      map[string]chan struct{}

	ts *httptest.Server
}

// NewServer creates a server with retrieval disabled and no history.
func NewServer() *Server {
	s := &Server{
		router:   http.NewServeMux(),
		logger:   zap.NewNop(),
		calls:    make(map[string]int),
		failures: make(map[string]*Failure),
		gates:    make(map[string]chan struct{}),
	}
	s.setupRoutes()
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TB is the subset of testing.TB that Start uses. It keeps the testing
// package out of binaries that only serve the mock API.
type TB interface {
	Helper()
	Cleanup(func())
}

// Start runs a new Server on a loopback httptest listener that is closed
// when the test ends.
func Start(t TB) *Server {
	t.Helper()
	s := NewServer()
	s.ts = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

// URL returns the base URL of a server created with Start.
func (s *Server) URL() string {
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// Close releases held requests and stops the httptest listener.
func (s *Server) Close() {
	s.ReleaseAll()
	if s.ts != nil {
		s.ts.Close()
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.router.ServeHTTP(rw, r)
	s.logger.Info("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rw.status),
		zap.Duration("duration", time.Since(start)),
	)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.ReleaseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ============================================================================
// SCRIPTING
// ============================================================================

// Fail scripts a failure for endpoint.
func (s *Server) Fail(endpoint string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = &f
}

// Recover removes any scripted failure for endpoint.
func (s *Server) Recover(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, endpoint)
}

// Hold makes requests to endpoint block until Release is called.
func (s *Server) Hold(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gates[endpoint]; !ok {
		s.gates[endpoint] = make(chan struct{})
	}
}

// Release unblocks every request held on endpoint.
func (s *Server) Release(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gate, ok := s.gates[endpoint]; ok {
		close(gate)
		delete(s.gates, endpoint)
	}
}

// ReleaseAll unblocks every held request.
func (s *Server) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for endpoint, gate := range s.gates {
		close(gate)
		delete(s.gates, endpoint)
	}
}

// SetRAGEnabled sets the server-side retrieval flag.
func (s *Server) SetRAGEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ragEnabled = enabled
}

// ============================================================================
// INSPECTION
// ============================================================================

// RAGEnabled reports the server-side retrieval flag.
func (s *Server) RAGEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ragEnabled
}

// History returns the messages accepted since the last clear.
func (s *Server) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Messages returns every send-message request received.
func (s *Server) Messages() []api.SendMessageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.SendMessageRequest(nil), s.messages...)
}

// Toggles returns the enable_rag value of every toggle request received.
func (s *Server) Toggles() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.toggles...)
}

// Uploads returns every accepted document.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Calls returns how many requests reached endpoint, failed ones included.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.HandleFunc("POST "+api.EndpointSendMessage, s.handleSendMessage)
	s.router.HandleFunc("POST "+api.EndpointClearChat, s.handleClearChat)
	s.router.HandleFunc("POST "+api.EndpointToggleRAG, s.handleToggleRAG)
	s.router.HandleFunc("POST "+api.EndpointUploadDocument, s.handleUploadDocument)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, Banner)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, r, api.EndpointSendMessage) {
		return
	}

	var req api.SendMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Error: "No message provided"})
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, req)
	s.history = append(s.history, req.Message)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, api.SendMessageResponse{
		StatusResponse: api.StatusResponse{Success: true},
		Response:       EchoReply(req.Message, req.UseRAG),
	})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, r, api.EndpointClearChat) {
		return
	}

	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
}

func (s *Server) handleToggleRAG(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, r, api.EndpointToggleRAG) {
		return
	}

	var req api.ToggleRAGRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.toggles = append(s.toggles, req.EnableRAG)
	s.ragEnabled = req.EnableRAG
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, r, api.EndpointUploadDocument) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.StatusResponse{Error: "failed to parse form: " + err.Error()})
		return
	}

	file, header, err := r.FormFile(api.UploadField)
	if err != nil {
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Error: "No file provided"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Error: "No file selected"})
		return
	}

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, api.StatusResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
	})
	s.ragEnabled = true
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
}

// EchoReply is the reply the server gives to message.
func EchoReply(message string, useRAG bool) string {
	if useRAG {
		return "[RAG] Echo: " + message
	}
	return "Echo: " + message
}

// ============================================================================
// HELPERS
// ============================================================================

// intercept counts the call, waits on any hold, and applies a scripted
// failure. Returns true when the response has been written.
func (s *Server) intercept(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	s.mu.Lock()
	s.calls[endpoint]++
	gate := s.gates[endpoint]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return true
		}
	}

	s.mu.Lock()
	f, ok := s.failures[endpoint]
	var failure Failure
	if ok {
		failure = *f
		if f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				delete(s.failures, endpoint)
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	switch failure.Mode {
	case FailStatus:
		status := failure.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		s.writeJSON(w, status, api.StatusResponse{Error: failure.Message})
	case FailInvalidJSON:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "<html><body>Internal Server Error</body></html>")
	case FailBody:
		status := failure.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, failure.Body)
	case FailDrop:
		hj, ok := w.(http.Hijacker)
		if !ok {
			s.writeJSON(w, http.StatusInternalServerError, api.StatusResponse{Error: "cannot drop connection"})
			return true
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	default:
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Error: failure.Message})
	}
	return true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.StatusResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusWriter captures the status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack exposes the underlying connection so FailDrop works through the
// logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	return hj.Hijack()
}
