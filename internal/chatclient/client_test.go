// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatclient

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/api"
	"github.com/jeranaias/ragchat-tui/internal/apitest"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// recordingAPI counts calls and returns canned errors.
type recordingAPI struct {
	mu        sync.Mutex
	sends     []string
	clears    int
	toggles   []bool
	uploads   []string
	reply     string
	sendErr   error
	clearErr  error
	toggleErr error
	uploadErr error
}

func (r *recordingAPI) SendMessage(_ context.Context, message string, _ bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, message)
	return r.reply, r.sendErr
}

func (r *recordingAPI) ClearChat(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	return r.clearErr
}

func (r *recordingAPI) ToggleRAG(_ context.Context, enable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles = append(r.toggles, enable)
	return r.toggleErr
}

func (r *recordingAPI) UploadDocument(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, path)
	return r.uploadErr
}

func newLive(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.Start(t)
	return New(api.NewClient(&api.ClientConfig{BaseURL: srv.URL()}), nil), srv
}

func roles(entries []model.Entry) []model.Role {
	out := make([]model.Role, len(entries))
	for i, e := range entries {
		out[i] = e.Role
	}
	return out
}

// =============================================================================
// SEND MESSAGE TESTS
// =============================================================================

func TestSubmitMessage_BlankIsSkipped(t *testing.T) {
	fake := &recordingAPI{}
	c := New(fake, nil)

	for _, text := range []string{"", "   ", "\n\t "} {
		o := c.SubmitMessage(context.Background(), text)
		if o.Kind != Skipped {
			t.Errorf("SubmitMessage(%q).Kind = %v, want skipped", text, o.Kind)
		}
	}
	if len(c.State().Entries()) != 0 {
		t.Errorf("transcript has %d entries, want 0", len(c.State().Entries()))
	}
	if len(fake.sends) != 0 {
		t.Errorf("network calls = %d, want 0", len(fake.sends))
	}
}

func TestSend_PhasesOnSuccess(t *testing.T) {
	c, _ := newLive(t)

	req, ok := c.BeginSend("  hello  ")
	require.True(t, ok)
	if req.Text != "hello" {
		t.Errorf("Text = %q, want trimmed", req.Text)
	}

	// Between begin and finish: one user entry and the pending indicator.
	entries := c.State().Entries()
	require.Len(t, entries, 2)
	if entries[0].Role != model.RoleUser || entries[0].Text != "hello" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if !entries[1].Pending {
		t.Error("entries[1] is not the pending indicator")
	}

	o := c.FinishSend(c.DeliverSend(context.Background(), req))
	if !o.OK() || o.Text != apitest.EchoReply("hello", false) {
		t.Fatalf("outcome = %+v", o)
	}

	entries = c.State().Entries()
	require.Len(t, entries, 2)
	if entries[0].Role != model.RoleUser || entries[1].Role != model.RoleAssistant {
		t.Errorf("roles = %v, want [user assistant]", roles(entries))
	}
	if c.State().PendingCount() != 0 {
		t.Error("pending indicator still present")
	}
}

func TestSend_UsesCurrentFlag(t *testing.T) {
	c, srv := newLive(t)
	c.State().SetRAGEnabled(true)

	o := c.SubmitMessage(context.Background(), "with docs")
	require.True(t, o.OK())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	if !msgs[0].UseRAG {
		t.Error("use_rag = false, want the current flag (true)")
	}
}

func TestSend_TrimsButKeepsBytes(t *testing.T) {
	fake := &recordingAPI{reply: "ok"}
	c := New(fake, nil)

	c.SubmitMessage(context.Background(), "  cafe\u0301\n")
	require.Len(t, fake.sends, 1)
	if fake.sends[0] != "cafe\u0301" {
		t.Errorf("sent %q, want the trimmed text unchanged", fake.sends[0])
	}
}

func TestSend_FailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		failure apitest.Failure
		want    string
	}{
		{"application", apitest.Failure{Mode: apitest.FailApplication, Message: "quota exceeded"}, "Error: quota exceeded"},
		{"application without text", apitest.Failure{Mode: apitest.FailApplication}, "Error: Unknown error"},
		{"non-2xx", apitest.Failure{Mode: apitest.FailStatus, Status: http.StatusInternalServerError}, "Server error while sending message."},
		{"invalid json", apitest.Failure{Mode: apitest.FailInvalidJSON}, "Server error while sending message."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newLive(t)
			srv.Fail(api.EndpointSendMessage, tc.failure)

			o := c.SubmitMessage(context.Background(), "hi")
			if o.Kind != Failed || o.Text != tc.want {
				t.Fatalf("outcome = %+v, want failed %q", o, tc.want)
			}

			entries := c.State().Entries()
			require.Len(t, entries, 2)
			if entries[0].Role != model.RoleUser || entries[1].Role != model.RoleSystem {
				t.Errorf("roles = %v, want [user system]", roles(entries))
			}
			if entries[1].Text != tc.want {
				t.Errorf("system entry = %q, want %q", entries[1].Text, tc.want)
			}
		})
	}
}

func TestSend_TransportFailure(t *testing.T) {
	c := New(api.NewClient(&api.ClientConfig{BaseURL: "http://127.0.0.1:1"}), nil)

	o := c.SubmitMessage(context.Background(), "anyone there?")
	if o.Kind != Failed {
		t.Fatalf("Kind = %v, want failed", o.Kind)
	}
	if !strings.HasPrefix(o.Text, "Network error: ") || o.Text == "Network error: " {
		t.Errorf("Text = %q, want Network error prefix", o.Text)
	}
	msgs := c.State().Messages()
	require.Len(t, msgs, 2)
	if msgs[1].Role != model.RoleSystem {
		t.Errorf("second entry role = %v, want system", msgs[1].Role)
	}
}

func TestSend_PlainErrorIsTransport(t *testing.T) {
	c := New(&recordingAPI{sendErr: errors.New("socket closed")}, nil)

	o := c.SubmitMessage(context.Background(), "hi")
	if o.Text != "Network error: socket closed" {
		t.Errorf("Text = %q", o.Text)
	}
}

func TestSend_OverlappingRepliesInArrivalOrder(t *testing.T) {
	c, _ := newLive(t)
	ctx := context.Background()

	first, _ := c.BeginSend("first")
	second, _ := c.BeginSend("second")
	if c.State().PendingCount() != 2 {
		t.Fatalf("PendingCount() = %d, want 2", c.State().PendingCount())
	}

	r1 := c.DeliverSend(ctx, first)
	r2 := c.DeliverSend(ctx, second)

	// The second reply arrives first.
	c.FinishSend(r2)
	if c.State().PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1 (first still waiting)", c.State().PendingCount())
	}
	c.FinishSend(r1)

	msgs := c.State().Messages()
	require.Len(t, msgs, 4)
	want := []string{"first", "second", apitest.EchoReply("second", false), apitest.EchoReply("first", false)}
	for i, w := range want {
		if msgs[i].Text != w {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Text, w)
		}
	}
}

func TestSend_ConcurrentDeliveries(t *testing.T) {
	c, srv := newLive(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SubmitMessage(ctx, "parallel")
		}()
	}
	wg.Wait()

	if got := c.State().MessageCount(); got != 20 {
		t.Errorf("MessageCount() = %d, want 20", got)
	}
	if c.State().PendingCount() != 0 {
		t.Error("pending indicators left behind")
	}
	if len(srv.Messages()) != 10 {
		t.Errorf("server saw %d sends, want 10", len(srv.Messages()))
	}
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestClearTranscript_Success(t *testing.T) {
	c, _ := newLive(t)
	ctx := context.Background()
	for _, m := range []string{"a", "b", "c"} {
		c.SubmitMessage(ctx, m)
	}
	require.Equal(t, 6, c.State().MessageCount())

	o := c.ClearTranscript(ctx)
	if !o.OK() || o.Text != EmptyStateText {
		t.Fatalf("outcome = %+v", o)
	}
	if c.State().MessageCount() != 0 {
		t.Errorf("MessageCount() = %d, want 0", c.State().MessageCount())
	}
}

func TestClearTranscript_Failures(t *testing.T) {
	tests := []struct {
		name    string
		failure apitest.Failure
		want    string
	}{
		{"application", apitest.Failure{Mode: apitest.FailApplication, Message: "history locked"}, "Error clearing chat: history locked"},
		{"application without text", apitest.Failure{Mode: apitest.FailApplication}, "Error clearing chat: Unknown error."},
		{"non-2xx", apitest.Failure{Mode: apitest.FailStatus}, "Error clearing chat: Server error clearing chat."},
		{"invalid json", apitest.Failure{Mode: apitest.FailInvalidJSON}, "Error clearing chat: Invalid JSON response from server."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newLive(t)
			c.SubmitMessage(context.Background(), "keep me")
			srv.Fail(api.EndpointClearChat, tc.failure)

			o := c.ClearTranscript(context.Background())
			if o.Kind != Failed || !o.Alert {
				t.Fatalf("outcome = %+v, want failed alert", o)
			}
			if o.Text != tc.want {
				t.Errorf("Text = %q, want %q", o.Text, tc.want)
			}
			if c.State().MessageCount() != 2 {
				t.Errorf("MessageCount() = %d, want transcript untouched", c.State().MessageCount())
			}
		})
	}
}

func TestClear_DuringSendDoesNotResurrectPending(t *testing.T) {
	c, _ := newLive(t)
	ctx := context.Background()

	req, _ := c.BeginSend("in flight")
	res := c.DeliverSend(ctx, req)

	require.True(t, c.ClearTranscript(ctx).OK())
	c.FinishSend(res)

	if c.State().PendingCount() != 0 {
		t.Error("pending indicator came back after clear")
	}
	msgs := c.State().Messages()
	require.Len(t, msgs, 1)
	if msgs[0].Role != model.RoleAssistant {
		t.Errorf("late reply role = %v, want assistant", msgs[0].Role)
	}
}

// =============================================================================
// TOGGLE TESTS
// =============================================================================

func TestToggleRetrieval_Success(t *testing.T) {
	c, srv := newLive(t)
	st := c.State()
	require.Equal(t, session.LabelDisabled, st.RAGLabel())

	o := c.ToggleRetrieval(context.Background())
	require.True(t, o.OK())

	if st.RAGLabel() != "Enabled" {
		t.Errorf("RAGLabel() = %q, want Enabled", st.RAGLabel())
	}
	if st.ToggleVariant() != session.ToggleOn || st.ToggleLabel() != "[on] Switch RAG" {
		t.Errorf("toggle = %v %q, want on", st.ToggleVariant(), st.ToggleLabel())
	}
	if got := srv.Toggles(); len(got) != 1 || !got[0] {
		t.Errorf("server toggles = %v, want [true]", got)
	}

	require.True(t, c.ToggleRetrieval(context.Background()).OK())
	if st.RAGEnabled() {
		t.Error("second toggle did not disable")
	}
}

func TestToggleRetrieval_FailureLeavesState(t *testing.T) {
	tests := []struct {
		name    string
		failure apitest.Failure
		want    string
	}{
		{"application", apitest.Failure{Mode: apitest.FailApplication, Message: "no index"}, "Error toggling RAG: no index"},
		{"non-2xx", apitest.Failure{Mode: apitest.FailStatus, Status: http.StatusBadGateway}, "Error toggling RAG: Server error toggling RAG."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newLive(t)
			srv.Fail(api.EndpointToggleRAG, tc.failure)

			o := c.ToggleRetrieval(context.Background())
			if o.Kind != Failed || !o.Alert || o.Text != tc.want {
				t.Fatalf("outcome = %+v, want alert %q", o, tc.want)
			}
			st := c.State()
			if st.RAGLabel() != "Disabled" || st.ToggleVariant() != session.ToggleOff {
				t.Errorf("state changed on failure: %q %v", st.RAGLabel(), st.ToggleVariant())
			}
		})
	}
}

func TestSetRetrieval_Explicit(t *testing.T) {
	fake := &recordingAPI{}
	c := New(fake, nil)

	require.True(t, c.SetRetrieval(context.Background(), true).OK())
	require.True(t, c.SetRetrieval(context.Background(), true).OK())

	if len(fake.toggles) != 2 || !fake.toggles[0] || !fake.toggles[1] {
		t.Errorf("toggles = %v, want [true true]", fake.toggles)
	}
	if !c.State().RAGEnabled() {
		t.Error("RAGEnabled() = false")
	}
}

// =============================================================================
// UPLOAD TESTS
// =============================================================================

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("Leave policy: 25 days.\n"), 0644))
	return path
}

func TestUploadDocument_NoFileIsSkipped(t *testing.T) {
	fake := &recordingAPI{}
	c := New(fake, nil)

	if o := c.UploadDocument(context.Background(), ""); o.Kind != Skipped {
		t.Errorf("Kind = %v, want skipped", o.Kind)
	}
	if len(fake.uploads) != 0 {
		t.Error("upload sent without a file")
	}
	if c.State().UploadStatus().Phase != session.UploadIdle {
		t.Error("status changed for a skipped upload")
	}
}

func TestUploadDocument_SuccessForcesRetrievalOn(t *testing.T) {
	c, srv := newLive(t)
	st := c.State()
	require.False(t, st.RAGEnabled())

	req, ok := c.BeginUpload(writeDoc(t))
	require.True(t, ok)
	if st.UploadStatusText() != "Uploading..." {
		t.Errorf("status during upload = %q", st.UploadStatusText())
	}

	o := c.FinishUpload(c.DeliverUpload(context.Background(), req))
	require.True(t, o.OK())

	if st.UploadStatusText() != "Document uploaded successfully!" {
		t.Errorf("status = %q", st.UploadStatusText())
	}
	if st.RAGLabel() != "Enabled" {
		t.Errorf("RAGLabel() = %q, want Enabled without any toggle", st.RAGLabel())
	}
	if len(srv.Toggles()) != 0 {
		t.Error("upload must not call toggle")
	}
}

func TestUploadDocument_Failures(t *testing.T) {
	tests := []struct {
		name    string
		failure apitest.Failure
		want    string
	}{
		{"application", apitest.Failure{Mode: apitest.FailApplication, Message: "unsupported format"}, "Upload failed: unsupported format"},
		{"application without text", apitest.Failure{Mode: apitest.FailApplication}, "Upload failed: Unknown error"},
		{"non-2xx", apitest.Failure{Mode: apitest.FailStatus, Status: http.StatusRequestEntityTooLarge}, "Upload error: Server error: 413"},
		{"invalid json", apitest.Failure{Mode: apitest.FailInvalidJSON}, "Upload error: Invalid JSON response from server."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newLive(t)
			srv.Fail(api.EndpointUploadDocument, tc.failure)

			o := c.UploadDocument(context.Background(), writeDoc(t))
			if o.Kind != Failed || o.Text != tc.want {
				t.Fatalf("outcome = %+v, want %q", o, tc.want)
			}
			st := c.State()
			if st.UploadStatus().Phase != session.UploadFailed || st.UploadStatusText() != tc.want {
				t.Errorf("status = %v %q", st.UploadStatus().Phase, st.UploadStatusText())
			}
			if st.RAGEnabled() {
				t.Error("failed upload changed the retrieval flag")
			}
		})
	}
}

func TestUploadDocument_FailureKeepsEnabledFlag(t *testing.T) {
	c := New(&recordingAPI{uploadErr: errors.New("disk error")}, nil)
	c.State().SetRAGEnabled(true)

	o := c.UploadDocument(context.Background(), "/tmp/whatever.pdf")
	if o.Text != "Upload error: disk error" {
		t.Errorf("Text = %q", o.Text)
	}
	if !c.State().RAGEnabled() {
		t.Error("failed upload disabled retrieval")
	}
}

func TestUploadDocument_MissingFile(t *testing.T) {
	c, srv := newLive(t)

	o := c.UploadDocument(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	if o.Kind != Failed || !strings.HasPrefix(o.Text, "Upload error: ") {
		t.Errorf("outcome = %+v", o)
	}
	if srv.Calls(api.EndpointUploadDocument) != 0 {
		t.Error("missing file reached the server")
	}
}
