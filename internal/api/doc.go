// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the retrieval-augmented
// assistant API.
//
// The server exposes four JSON endpoints:
//
//	POST /api/send-message     {message, use_rag}   -> {success, response, error}
//	POST /api/clear-chat       {}                   -> {success, error}
//	POST /api/toggle-rag       {enable_rag}         -> {success, error}
//	POST /api/upload-document  multipart field file -> {success, error}
//
// Every failure is returned as *Error with one of three kinds:
//
//   - KindTransport: the request never completed (dial, DNS, reset, context)
//   - KindProtocol: non-2xx status, or a body that is not JSON
//   - KindApplication: the body parsed but reported success=false
//
// The client performs exactly one request per call. It never retries.
//
// # Usage
//
//	client := api.NewClient(api.DefaultConfig())
//	reply, err := client.SendMessage(ctx, "What is in the report?", true)
//	if api.IsApplication(err) {
//	    // server-supplied error text in err.(*api.Error).Message
//	}
package api
