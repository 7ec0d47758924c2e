// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// Version information, set by main from -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipAppAnnotation marks commands that run without config or logger.
const skipAppAnnotation = "ragchat/skip-app"

// errReported is returned by commands that already printed their failure.
// Execute maps it to exit status 1 without printing again.
var errReported = errors.New("failure already reported")

// rootState is shared by the root command and its subcommands.
type rootState struct {
	flags globalFlags
	app   *App
}

// NewRootCommand builds the ragchat command tree.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *rootState) {
	st := &rootState{}

	root := &cobra.Command{
		Use:   "ragchat",
		Short: "Terminal client for a retrieval-augmented chat assistant",
		Long: `ragchat talks to a RAG assistant server: send messages, clear the
conversation, switch retrieval on or off, and upload documents for the
assistant to search.

Run without arguments to open the chat view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipAppAnnotation] != "" {
				return nil
			}
			// The chat view owns the terminal, so console logging is only
			// wired for line-oriented commands.
			console := cmd != cmd.Root() || !interactive(cmd.InOrStdin(), cmd.OutOrStdout())
			app, err := newApp(&st.flags, console, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			st.app.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return runTUI(cmd.Context(), st.app)
			}
			return runREPL(cmd, st.app)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.flags.server, "server", "", "assistant server URL (overrides server.url)")
	pf.StringVar(&st.flags.configPath, "config", "", "config file (default ~/.ragchat/config.toml)")
	pf.BoolVarP(&st.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newReplCmd(st),
		newAskCmd(st),
		newClearCmd(st),
		newRAGCmd(st),
		newUploadCmd(st),
		newStatusCmd(st),
		newConfigCmd(st),
		newMockServerCmd(st),
		newVersionCmd(),
	)
	return root, st
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, st := newRoot()
	err := root.ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails.
	st.app.Close()

	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		newPrinter(root.OutOrStdout(), root.ErrOrStderr(), styles.ModeAuto).Errorf("%v", err)
	}
	return 1
}
