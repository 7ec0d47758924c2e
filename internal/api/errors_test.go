// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"application", applicationError("toggle-rag", 200, "index offline"), "toggle-rag: index offline"},
		{"application empty", applicationError("clear-chat", 200, ""), "clear-chat: application error"},
		{"status", statusError("send-message", 500), "send-message: Server error: 500"},
		{"transport", transportError("ping", errors.New("connection refused")), "ping: request failed: connection refused"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_Detail(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	if got := transportError("x", cause).Detail(); got != cause.Error() {
		t.Errorf("transport Detail() = %q, want cause", got)
	}
	if got := decodeError("x", 200, cause).Detail(); got != InvalidJSONMessage {
		t.Errorf("decode Detail() = %q, want %q", got, InvalidJSONMessage)
	}
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("clear transcript: %w", statusError("clear-chat", 503))

	if !IsProtocol(wrapped) {
		t.Error("IsProtocol(wrapped) = false")
	}
	if IsTransport(wrapped) || IsApplication(wrapped) {
		t.Error("wrapped protocol error matched another kind")
	}
	if IsTransport(errors.New("plain")) {
		t.Error("IsTransport(plain error) = true")
	}
}

func TestErrorKind_String(t *testing.T) {
	if KindTransport.String() != "transport" || KindProtocol.String() != "protocol" || KindApplication.String() != "application" {
		t.Error("ErrorKind.String() mismatch")
	}
}
