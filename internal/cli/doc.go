// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ragchat command line.
//
// Running ragchat with no subcommand opens the full-screen chat view when
// stdin and stdout are terminals, and a line-oriented REPL otherwise.
//
// Commands:
//
//	ragchat                     chat view (or REPL when not a terminal)
//	ragchat repl                line-oriented chat with input history
//	ragchat ask [--rag] MSG     send one message and print the reply
//	ragchat clear               reset the server conversation
//	ragchat rag on|off          set the retrieval flag on the server
//	ragchat upload FILE         upload a document for retrieval
//	ragchat status              check that the server answers
//	ragchat config ...          show, init, get or set configuration
//	ragchat mock-server         run a local in-memory assistant server
//	ragchat version             print version information
//
// Global flags:
//
//	--server URL   override server.url
//	--config PATH  read configuration from PATH
//	-v, --verbose  debug logging, echoed to stderr for one-shot commands
package cli
