// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/api"
	"github.com/jeranaias/ragchat-tui/internal/apitest"
	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

// =============================================================================
// HELPERS
// =============================================================================

type result struct {
	stdout string
	stderr string
	err    error
}

// isolate points config, logs and colors at test-local settings.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("RAGCHAT_HOME", home)
	t.Setenv("RAGCHAT_LOG_FILE", config.LogDisabled)
	t.Setenv("RAGCHAT_SERVER_URL", "")
	t.Setenv("RAGCHAT_MODEL_LABEL", "")
	t.Setenv("NO_COLOR", "1")
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	cmd, st := newRoot()
	t.Cleanup(func() { st.app.Close() })

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func runAgainst(t *testing.T, srv *apitest.Server, stdin string, args ...string) result {
	t.Helper()
	return run(t, stdin, append([]string{"--server", srv.URL()}, args...)...)
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "ask", "hello", "there")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, apitest.EchoReply("hello there", false))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].UseRAG)
}

func TestAsk_RAGFlag(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "ask", "--rag", "what is in the report?")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "[RAG] Echo:")

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].UseRAG)
}

func TestAsk_ReadsStdin(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "  piped question\n", "ask")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Echo: piped question")
}

func TestAsk_EmptyMessage(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "   \n", "ask")
	require.Error(t, r.err)
	assert.Equal(t, 0, srv.Calls(api.EndpointSendMessage))
}

func TestAsk_ApplicationFailure(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)
	srv.Fail(api.EndpointSendMessage, apitest.Failure{Mode: apitest.FailApplication, Message: "model unavailable"})

	r := runAgainst(t, srv, "", "ask", "hi")
	require.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, "Error: model unavailable")
	assert.Empty(t, r.stdout)
}

// =============================================================================
// CLEAR / RAG / UPLOAD / STATUS
// =============================================================================

func TestClear(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "clear")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Chat cleared")
	assert.Equal(t, 1, srv.Calls(api.EndpointClearChat))
}

func TestClear_Failure(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)
	srv.Fail(api.EndpointClearChat, apitest.Failure{Mode: apitest.FailApplication, Message: "locked"})

	r := runAgainst(t, srv, "", "clear")
	require.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, "Error clearing chat: locked")
}

func TestRAG_OnOff(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "rag", "on")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "RAG Enabled")
	assert.True(t, srv.RAGEnabled())

	r = runAgainst(t, srv, "", "rag", "off")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "RAG Disabled")
	assert.False(t, srv.RAGEnabled())

	assert.Equal(t, []bool{true, false}, srv.Toggles())
}

func TestRAG_RejectsOtherValues(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "rag", "toggle")
	require.Error(t, r.err)
	assert.Equal(t, 0, srv.Calls(api.EndpointToggleRAG))
}

func TestUpload(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	doc := filepath.Join(t.TempDir(), "handbook.txt")
	require.NoError(t, os.WriteFile(doc, []byte("leave policy"), 0644))

	r := runAgainst(t, srv, "", "upload", doc)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, session.UploadSuccessText)
	assert.Contains(t, r.stdout, "RAG Enabled")

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "handbook.txt", uploads[0].Name)
	assert.True(t, srv.RAGEnabled())
}

func TestUpload_MissingFile(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "upload", filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, "Upload error")
	assert.Equal(t, 0, srv.Calls(api.EndpointUploadDocument))
}

func TestStatus(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "", "status")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, srv.URL())
	assert.Contains(t, r.stdout, "Server is up")
}

func TestStatus_Unreachable(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)
	url := srv.URL()
	srv.Close()

	r := run(t, "", "--server", url, "status")
	require.ErrorIs(t, r.err, errReported)
	assert.Contains(t, r.stderr, "Server unreachable")
}

// =============================================================================
// CONFIG / VERSION
// =============================================================================

func TestConfig_SetThenGet(t *testing.T) {
	home := isolate(t)

	r := run(t, "", "config", "set", "ui.model_label", "Local Llama")
	require.NoError(t, r.err)

	data, err := os.ReadFile(filepath.Join(home, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Local Llama")

	r = run(t, "", "config", "get", "ui.model_label")
	require.NoError(t, r.err)
	assert.Equal(t, "Local Llama\n", r.stdout)
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	home := isolate(t)

	r := run(t, "", "config", "set", "server.max_upload_mb", "not-a-number")
	require.Error(t, r.err)
	_, err := os.Stat(filepath.Join(home, "config.toml"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "config file must not be written")

	r = run(t, "", "config", "set", "no.such_key", "1")
	require.Error(t, r.err)
}

func TestConfig_InitRefusesOverwrite(t *testing.T) {
	isolate(t)

	r := run(t, "", "config", "init")
	require.NoError(t, r.err)

	r = run(t, "", "config", "init")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "--force")

	r = run(t, "", "config", "init", "--force")
	require.NoError(t, r.err)
}

func TestConfig_PathAndServerOverride(t *testing.T) {
	home := isolate(t)

	r := run(t, "", "config", "path")
	require.NoError(t, r.err)
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", r.stdout)

	r = run(t, "", "--server", "http://10.0.0.5:8080", "config", "get", "server.url")
	require.NoError(t, r.err)
	assert.Equal(t, "http://10.0.0.5:8080\n", r.stdout)
}

func TestConfig_ExplicitFileMustExist(t *testing.T) {
	isolate(t)

	r := run(t, "", "--config", filepath.Join(t.TempDir(), "nope.toml"), "config", "show")
	require.Error(t, r.err)
}

func TestVersion(t *testing.T) {
	isolate(t)
	// A broken config must not stop version.
	t.Setenv("RAGCHAT_THEME", "neon")

	r := run(t, "", "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "ragchat "+Version)
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_Script(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	script := strings.Join([]string{
		"hello",
		"/rag on",
		"second",
		"/history",
		"/quit",
		"never sent",
	}, "\n")

	r := runAgainst(t, srv, script, "repl")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Echo: hello")
	assert.Contains(t, r.stdout, "RAG Enabled")
	assert.Contains(t, r.stdout, "[RAG] Echo: second")

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].UseRAG)
	assert.True(t, msgs[1].UseRAG)
}

func TestREPL_StatusPreviewAndEmptyHistory(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "/history\nline one\n/status\n", "repl")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, chatclient.EmptyStateText)
	assert.Contains(t, r.stdout, "Last:     Assistant: Echo: line one")
}

func TestREPL_RootFallsBackWhenPiped(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)

	r := runAgainst(t, srv, "ping\n")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Echo: ping")
}

func TestREPL_FailuresDoNotStopSession(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)
	srv.Fail(api.EndpointSendMessage, apitest.Failure{Mode: apitest.FailStatus, Times: 1})

	r := runAgainst(t, srv, "first\nsecond\n/bogus\n/upload\n", "repl")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "Server error while sending message.")
	assert.Contains(t, r.stdout, "Echo: second")
	assert.Contains(t, r.stderr, "Unknown command /bogus")
	assert.Contains(t, r.stderr, "Usage: /upload <file>")
}

func TestREPL_ClearAndExport(t *testing.T) {
	isolate(t)
	srv := apitest.Start(t)
	out := filepath.Join(t.TempDir(), "chat.json")

	script := "/export " + out + "\nquestion\n/export " + out + "\n/clear\n/history\n"
	r := runAgainst(t, srv, script, "repl")
	require.NoError(t, r.err)

	assert.Contains(t, r.stderr, "Nothing to export yet")
	assert.Contains(t, r.stdout, "Exported to "+out)
	assert.Contains(t, r.stdout, "Chat cleared")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "question"`)
	assert.Equal(t, 1, srv.Calls(api.EndpointClearChat))
}

func TestTrimHistory(t *testing.T) {
	data := []byte("one\ntwo\nthree\n")

	assert.Equal(t, "two\nthree\n", string(trimHistory(data, 2)))
	assert.Equal(t, string(data), string(trimHistory(data, 3)))
	assert.Equal(t, string(data), string(trimHistory(data, 0)))
}

func TestCompleteSlash(t *testing.T) {
	assert.Equal(t, []string{"/history", "/help"}, completeSlash("/h"))
	assert.Equal(t, []string{"/rag"}, completeSlash("/R"))
	assert.Nil(t, completeSlash("hello"))
	assert.Nil(t, completeSlash("/rag o"))
}
