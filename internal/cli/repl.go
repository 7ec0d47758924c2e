// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/export"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

const replHelp = `Commands:
  /clear             clear the conversation
  /rag [on|off]      switch retrieval (no argument toggles)
  /upload <file>     upload a document and enable retrieval
  /export [file]     save the transcript (.md or .json)
  /status            show server, model and retrieval state
  /history           print the transcript
  /help              show this help
  /quit              leave (also /exit, Ctrl+D)`

// statusPreviewWidth bounds the last-message preview in /status.
const statusPreviewWidth = 60

func newReplCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-oriented chat with input history",
		Long: `Chat one line at a time. Lines starting with / are commands; type
/help to list them. Input history is kept in ~/.ragchat/chat_history.

Standard input that is not a terminal is read line by line, so a script
of messages can be piped in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, st.app)
		},
	}
}

// =============================================================================
// LINE SOURCES
// =============================================================================

// lineSource yields input lines. Prompt returns io.EOF when input ends.
type lineSource interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerSource reads from the terminal with line editing and history.
type linerSource struct {
	line        *liner.State
	historyFile string
	maxEntries  int
}

func newLinerSource(historyFile string, maxEntries int) *linerSource {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	s := &linerSource{
		line:        line,
		historyFile: historyFile,
		maxEntries:  maxEntries,
	}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			s.line.ReadHistory(f)
			f.Close()
		}
	}
	return s
}

func (s *linerSource) Prompt(prompt string) (string, error) {
	input, err := s.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		s.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the newest maxEntries history lines, owner-only.
func (s *linerSource) Close() error {
	defer s.line.Close()
	if s.historyFile == "" {
		return nil
	}

	var buf bytes.Buffer
	if _, err := s.line.WriteHistory(&buf); err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(s.historyFile, trimHistory(buf.Bytes(), s.maxEntries), 0600, 0700)
}

var slashNames = []string{"/clear", "/rag", "/upload", "/export", "/status", "/history", "/help", "/quit", "/exit"}

// completeSlash completes command names on Tab.
func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, name := range slashNames {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}
	return out
}

// trimHistory keeps the last max lines of a history file.
func trimHistory(data []byte, max int) []byte {
	if max <= 0 {
		return data
	}
	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) <= max {
		return data
	}
	return []byte(strings.Join(lines[len(lines)-max:], ""))
}

// scannerSource reads lines from a non-terminal reader.
type scannerSource struct {
	sc *bufio.Scanner
}

func newScannerSource(r io.Reader) *scannerSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &scannerSource{sc: sc}
}

func (s *scannerSource) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerSource) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// repl is one line-oriented chat session.
type repl struct {
	app      *App
	client   *chatclient.Client
	out      *printer
	src      lineSource
	terminal bool
}

func runREPL(cmd *cobra.Command, app *App) error {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	terminal := interactive(in, out)

	var src lineSource
	if terminal {
		src = newLinerSource(app.Config.HistoryPath(), app.Config.History.MaxEntries)
	} else {
		src = newScannerSource(in)
	}

	r := &repl{
		app:      app,
		client:   app.Client,
		out:      newPrinter(out, cmd.ErrOrStderr(), app.Theme),
		src:      src,
		terminal: terminal,
	}
	defer func() {
		if err := src.Close(); err != nil {
			app.Logger.Warn("failed to save input history", zap.Error(err))
		}
	}()
	return r.run(cmd.Context())
}

func (r *repl) run(ctx context.Context) error {
	if r.terminal {
		r.out.Infof("Connected to %s (%s). Type /help for commands.", r.app.API.BaseURL(), r.client.State().ModelLabel())
	}

	for ctx.Err() == nil {
		line, err := r.src.Prompt(r.out.Prompt("you> "))
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !r.command(ctx, line) {
				break
			}
			continue
		}
		r.send(ctx, line)
	}

	if r.terminal {
		r.out.Dim(fmt.Sprintf("Goodbye. %d messages this session.", r.client.State().MessageCount()))
	}
	return nil
}

func (r *repl) send(ctx context.Context, text string) {
	if r.terminal {
		r.out.Dim(model.PendingText + "...")
	}
	o := r.client.SubmitMessage(ctx, text)
	switch o.Kind {
	case chatclient.Succeeded:
		r.out.Reply(o.Text)
	case chatclient.Failed:
		r.out.Errorf("%s", o.Text)
	}
}

// command runs a slash command. It returns false to leave the REPL.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return false

	case "help", "?":
		r.out.Plain(replHelp)

	case "clear":
		o := r.client.ClearTranscript(ctx)
		if !o.OK() {
			r.out.Errorf("%s", o.Text)
			break
		}
		r.out.Successf("Chat cleared")

	case "rag":
		var o chatclient.Outcome
		switch strings.ToLower(arg) {
		case "", "toggle":
			o = r.client.ToggleRetrieval(ctx)
		case "on":
			o = r.client.SetRetrieval(ctx, true)
		case "off":
			o = r.client.SetRetrieval(ctx, false)
		default:
			r.out.Warnf("Usage: /rag [on|off]")
			return true
		}
		r.printOutcome(o)

	case "upload":
		if arg == "" {
			r.out.Warnf("Usage: /upload <file>")
			break
		}
		r.out.Dim(session.UploadingText)
		o := r.client.UploadDocument(ctx, arg)
		r.printOutcome(o)
		if o.OK() {
			r.out.Infof("RAG %s", r.client.State().RAGLabel())
		}

	case "export":
		r.export(arg)

	case "status":
		snap := r.client.State().Snapshot()
		r.out.Infof("Server:   %s", r.app.API.BaseURL())
		r.out.Infof("Model:    %s", snap.ModelLabel)
		r.out.Infof("RAG:      %s", snap.RAGLabel)
		r.out.Infof("Messages: %d", r.client.State().MessageCount())
		if last, ok := r.client.State().LastMessage(); ok {
			preview := util.TruncateWidth(util.OneLine(last.Text), statusPreviewWidth)
			r.out.Infof("Last:     %s: %s", last.Role.DisplayName(), preview)
		}
		if text := snap.Upload.Text(); text != "" {
			r.out.Infof("Upload:   %s", text)
		}

	case "history":
		if r.client.State().IsEmpty() {
			r.out.Dim(chatclient.EmptyStateText)
			break
		}
		for _, e := range r.client.State().Messages() {
			r.out.Entry(e, r.app.Config.UI.ShowTimestamps)
		}

	default:
		r.out.Warnf("Unknown command /%s. Try /help", name)
	}
	return true
}

func (r *repl) export(path string) {
	snap := r.client.State().Snapshot()
	if path == "" {
		path = export.DefaultFilename(snap.ModelLabel, ".md", time.Now())
	}
	abs, err := export.ToFile(export.FromSnapshot(snap), path, export.DefaultOptions())
	switch {
	case errors.Is(err, export.ErrNoMessages):
		r.out.Warnf("Nothing to export yet")
	case err != nil:
		r.out.Errorf("Export failed: %v", err)
	default:
		r.out.Successf("Exported to %s", abs)
	}
}

func (r *repl) printOutcome(o chatclient.Outcome) {
	switch o.Kind {
	case chatclient.Succeeded:
		r.out.Successf("%s", o.Text)
	case chatclient.Failed:
		r.out.Errorf("%s", o.Text)
	}
}
