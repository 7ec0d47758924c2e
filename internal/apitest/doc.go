// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory implementation of the assistant API.
//
// Server answers the four chat endpoints with echo replies, keeps a
// retrieval flag and a list of accepted uploads, and records every request.
// Failures can be scripted per endpoint so callers can exercise transport,
// protocol and application errors:
//
//	srv := apitest.Start(t)
//	srv.Fail(api.EndpointToggleRAG, apitest.Failure{Mode: apitest.FailApplication, Message: "index offline"})
//	client := api.NewClient(&api.ClientConfig{BaseURL: srv.URL()})
//
// It also backs the "ragchat mock-server" command for local development.
// It is not a real assistant.
package apitest
