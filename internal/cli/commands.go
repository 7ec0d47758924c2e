// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/apitest"
	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
)

// =============================================================================
// ONE-SHOT CHAT COMMANDS
// =============================================================================

func newAskCmd(st *rootState) *cobra.Command {
	var useRAG bool

	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: "Send one message and print the reply",
		Long: `Send a single message and print the assistant's reply.

With no arguments the message is read from standard input.`,
		Example: `  ragchat ask "What does the handbook say about leave?"
  ragchat ask --rag "Summarise the uploaded report"
  echo "hello" | ragchat ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				text = string(data)
			}
			if chatclient.NormalizeInput(text) == "" {
				return errors.New("message is empty")
			}

			app := st.app
			// The one-shot process has no view of the server flag; the
			// request carries what the user asked for.
			app.Client.State().SetRAGEnabled(useRAG)

			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.Theme)
			o := app.Client.SubmitMessage(cmd.Context(), text)
			if !o.OK() {
				p.Errorf("%s", o.Text)
				return errReported
			}
			p.Reply(o.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useRAG, "rag", false, "answer from uploaded documents")
	return cmd
}

func newClearCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the server conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme)
			o := st.app.Client.ClearTranscript(cmd.Context())
			if !o.OK() {
				p.Errorf("%s", o.Text)
				return errReported
			}
			p.Successf("Chat cleared")
			return nil
		},
	}
}

func newRAGCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:       "rag on|off",
		Short:     "Switch retrieval on or off on the server",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enable := strings.EqualFold(args[0], "on")

			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme)
			o := st.app.Client.SetRetrieval(cmd.Context(), enable)
			if !o.OK() {
				p.Errorf("%s", o.Text)
				return errReported
			}
			p.Successf("%s", o.Text)
			return nil
		},
	}
}

func newUploadCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for retrieval",
		Long: `Upload a document to the assistant. On success the server enables
retrieval, so later questions are answered from the document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme)
			o := st.app.Client.UploadDocument(cmd.Context(), args[0])
			if !o.OK() {
				p.Errorf("%s", o.Text)
				return errReported
			}
			p.Successf("%s", o.Text)
			p.Infof("RAG %s", st.app.Client.State().RAGLabel())
			return nil
		},
	}
}

func newStatusCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the assistant server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := st.app
			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.Theme)

			p.Infof("Server: %s", app.API.BaseURL())
			p.Infof("Model:  %s", app.Config.UI.ModelLabel)

			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()
			if err := app.API.Ping(ctx); err != nil {
				p.Errorf("Server unreachable: %v", err)
				return errReported
			}
			p.Successf("Server is up")
			return nil
		},
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCmd(st *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), st.app.Config.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), st.app.ConfigPath)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := st.app.ConfigPath
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
			if err := config.SaveTOML(config.Default(), target); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme).Successf("Wrote %s", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	get := &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.AllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := st.app.Config.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value in the config file",
		Long: `Change one value in the config file. Environment variables and
flags are not written; only the file's own values are kept.

Keys: ` + strings.Join(config.AllKeys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := st.app.ConfigPath
			cfg, err := readConfigFile(target)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveTOML(cfg, target); err != nil {
				return err
			}
			st.app.Logger.Info("config updated", zap.String("key", args[0]), zap.String("path", target))
			newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme).Successf("%s = %s", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, path, initCmd, get, set)
	return cmd
}

// readConfigFile reads path without environment overrides. A missing file
// yields the defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		return nil, errors.New("config set only edits TOML files")
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// =============================================================================
// MOCK SERVER
// =============================================================================

func newMockServerCmd(st *rootState) *cobra.Command {
	var addr string
	var rag bool

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory assistant server for local testing",
		Long: `Serve the assistant API from memory. Replies echo the message,
prefixed with [RAG] when retrieval is on. Uploads are accepted and
enable retrieval. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := apitest.NewServer().WithLogger(st.app.Logger.Logger)
			srv.SetRAGEnabled(rag)

			p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), st.app.Theme)
			p.Infof("Mock assistant listening on http://%s", addr)
			if err := srv.ListenAndServe(cmd.Context(), addr); err != nil {
				return fmt.Errorf("mock server: %w", err)
			}
			p.Dim(fmt.Sprintf("Stopped after %d messages, %d uploads.", len(srv.Messages()), len(srv.Uploads())))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().BoolVar(&rag, "rag", false, "start with retrieval enabled")
	return cmd
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipAppAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragchat %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
