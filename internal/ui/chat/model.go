// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/export"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Client is required.
	Client *chatclient.Client
	Theme  *styles.Theme
	Logger *zap.Logger

	// Context bounds every request started from the view.
	Context context.Context

	// Reloads delivers config file changes; nil disables live reload.
	Reloads <-chan config.Reload

	ShowTimestamps bool
	RenderMarkdown bool

	// StartDir is where the document picker opens (default: working dir).
	StartDir string
	// UploadTypes limits the picker to these extensions; empty allows all.
	UploadTypes []string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	client *chatclient.Client
	theme  *styles.Theme
	logger *zap.Logger
	keyMap KeyMap

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	picker   filepicker.Model

	// Overlays
	showHelp   bool
	pickerOpen bool
	alert      string

	// Notice line
	notice    string
	noticeErr bool
	noticeSeq int

	// inflight counts clear and toggle requests; sends and uploads are
	// tracked by the session itself.
	inflight int
	spinning bool

	// Rendering
	showTimestamps bool
	renderMarkdown bool
	md             *glamour.TermRenderer
	mdWidth        int
	cache          *renderCache

	reloads <-chan config.Reload
}

// New creates a new chat model.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ModeAuto)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 8192
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.PlaceholderStyle = opts.Theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 18)

	// ASCII frames render on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = opts.Theme.Spinner

	h := help.New()
	h.Styles.ShortKey = opts.Theme.ShortcutKey
	h.Styles.ShortDesc = opts.Theme.ShortcutDesc
	h.Styles.FullKey = opts.Theme.ShortcutKey
	h.Styles.FullDesc = opts.Theme.ShortcutDesc

	fp := filepicker.New()
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	fp.AllowedTypes = opts.UploadTypes
	fp.AutoHeight = false
	// esc closes the picker instead of walking up a directory
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))

	m := Model{
		ctx:            opts.Context,
		client:         opts.Client,
		theme:          opts.Theme,
		logger:         opts.Logger.Named("tui"),
		keyMap:         DefaultKeyMap(),
		width:          80,
		height:         24,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		help:           h,
		picker:         fp,
		showTimestamps: opts.ShowTimestamps,
		renderMarkdown: opts.RenderMarkdown,
		reloads:        opts.Reloads,
		cache:          newRenderCache(),
	}
	m.layout()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if cmd := WaitForReload(m.reloads); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case SendDoneMsg:
		m.client.FinishSend(msg.Result)
		m.refresh()
		return m, nil

	case ClearDoneMsg:
		m.inflight--
		o := m.client.FinishClear(msg.Result)
		if o.Alert {
			m.alert = o.Text
		}
		m.refresh()
		return m, nil

	case ToggleDoneMsg:
		m.inflight--
		o := m.client.FinishToggle(msg.Result)
		if o.Alert {
			m.alert = o.Text
			return m, nil
		}
		cmd := m.setNotice(o.Text, false)
		return m, cmd

	case UploadDoneMsg:
		m.client.FinishUpload(msg.Result)
		m.refresh()
		return m, nil

	case ExportDoneMsg:
		if msg.Error != nil {
			cmd := m.setNotice("Export failed: "+msg.Error.Error(), true)
			return m, cmd
		}
		cmd := m.setNotice("Exported to "+msg.Path, false)
		return m, cmd

	case ConfigReloadMsg:
		cmd := m.applyReload(msg.Reload)
		return m, tea.Batch(cmd, WaitForReload(m.reloads))

	case configWatchClosedMsg:
		m.reloads = nil
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// Only pending sends draw the spinner inside the transcript; the
		// status line and bar pick up the new frame in View.
		if m.client.State().PendingCount() > 0 {
			m.refresh()
		}
		return m, cmd
	}

	// Directory listings for the picker and cursor blinks for the input
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the model.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.layout()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// A blocking alert swallows everything until dismissed
	if m.alert != "" {
		if key.Matches(msg, m.keyMap.Dismiss) {
			m.alert = ""
		}
		return m, nil
	}

	if m.pickerOpen {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Clear):
		cmd := m.startClear()
		return m, cmd

	case key.Matches(msg, m.keyMap.ToggleRAG):
		cmd := m.startToggle(m.client.BeginToggle())
		return m, cmd

	case key.Matches(msg, m.keyMap.Upload):
		cmd := m.openPicker()
		return m, cmd

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Help) && m.input.Value() == "":
		m.showHelp = !m.showHelp
		m.layout()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc || key.Matches(msg, m.keyMap.Upload) {
		m.pickerOpen = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.pickerOpen = false
		upload := m.startUpload(path)
		return m, tea.Batch(cmd, upload)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		notice := m.setNotice("Unsupported file type: "+filepath.Base(path), true)
		return m, tea.Batch(cmd, notice)
	}
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	if sc, ok := parseSlash(value); ok {
		m.input.Reset()
		return m.runSlash(sc)
	}

	req, ok := m.client.BeginSend(value)
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.logger.Debug("send started", zap.Bool("use_rag", req.UseRAG), zap.Int("length", len(req.Text)))
	m.refreshToBottom()
	spin := m.startSpinner()
	return m, tea.Batch(SendCmd(m.ctx, m.client, req), spin)
}

func (m Model) runSlash(sc slashCommand) (tea.Model, tea.Cmd) {
	switch sc.Name {
	case "clear":
		cmd := m.startClear()
		return m, cmd

	case "rag":
		switch strings.ToLower(sc.Arg) {
		case "", "toggle":
			cmd := m.startToggle(m.client.BeginToggle())
			return m, cmd
		case "on", "enable":
			cmd := m.startToggle(chatclient.ToggleRequest{Enable: true})
			return m, cmd
		case "off", "disable":
			cmd := m.startToggle(chatclient.ToggleRequest{Enable: false})
			return m, cmd
		}
		cmd := m.setNotice("Usage: /rag [on|off]", true)
		return m, cmd

	case "upload":
		if sc.Arg == "" {
			cmd := m.openPicker()
			return m, cmd
		}
		cmd := m.startUpload(expandHome(sc.Arg))
		return m, cmd

	case "export":
		path := sc.Arg
		if path == "" {
			path = export.DefaultFilename(m.client.State().ModelLabel(), ".md", time.Now())
		}
		return m, ExportCmd(m.client.State().Snapshot(), expandHome(path))

	case "help":
		if !m.showHelp {
			m.showHelp = true
			m.layout()
			m.refresh()
		}
		cmd := m.setNotice(slashHelp, false)
		return m, cmd

	case "quit", "exit", "q":
		return m, tea.Quit
	}

	cmd := m.setNotice("Unknown command /"+sc.Name+". Try /help", true)
	return m, cmd
}

func (m *Model) startClear() tea.Cmd {
	m.inflight++
	return tea.Batch(ClearCmd(m.ctx, m.client), m.startSpinner())
}

func (m *Model) startToggle(req chatclient.ToggleRequest) tea.Cmd {
	m.inflight++
	return tea.Batch(ToggleCmd(m.ctx, m.client, req), m.startSpinner())
}

func (m *Model) startUpload(path string) tea.Cmd {
	req, ok := m.client.BeginUpload(path)
	if !ok {
		return nil
	}
	m.logger.Debug("upload started", zap.String("path", req.Path))
	return tea.Batch(UploadCmd(m.ctx, m.client, req), m.startSpinner())
}

func (m *Model) openPicker() tea.Cmd {
	m.pickerOpen = true
	m.picker.Height = max(m.viewport.Height-5, 3)
	return m.picker.Init()
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	m.notice = util.OneLine(text)
	m.noticeErr = isErr
	return expireNotice(m.noticeSeq)
}

// applyReload picks up the live-tunable UI settings. Server settings need a
// restart because the HTTP client is built once.
func (m *Model) applyReload(r config.Reload) tea.Cmd {
	if r.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(r.Err))
		return m.setNotice("Config reload failed: "+r.Err.Error(), true)
	}
	if r.Config == nil {
		return nil
	}
	if label := r.Config.UI.ModelLabel; label != "" {
		m.client.State().SetModelLabel(label)
	}
	m.showTimestamps = r.Config.UI.ShowTimestamps
	m.renderMarkdown = r.Config.UI.RenderMarkdown
	m.refresh()
	m.logger.Info("config reloaded")
	return m.setNotice("Config reloaded", false)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// busy reports whether any request is in flight.
func (m Model) busy() bool {
	snap := m.client.State().Snapshot()
	return snap.PendingSend > 0 || snap.Upload.Phase == session.UploadInProgress || m.inflight > 0
}

// layout sizes the components from the window size.
func (m *Model) layout() {
	const (
		headerHeight     = 2 // title + border
		statusLineHeight = 1 // upload status / notice
		inputHeight      = 2 // border + input line
		statusBarHeight  = 1
	)

	reserved := headerHeight + statusLineHeight + inputHeight + statusBarHeight
	if m.showHelp {
		m.help.ShowAll = true
		reserved += strings.Count(m.help.View(m.keyMap), "\n") + 1
	}

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-reserved, 1)
	m.input.Width = max(m.width-4-len(m.input.Prompt), 10)
	m.help.Width = m.width
	m.picker.Height = max(m.viewport.Height-5, 3)
}

// refresh re-renders the transcript, following new content when the view
// was already at the bottom.
func (m *Model) refresh() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) refreshToBottom() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Client returns the chat client backing the view.
func (m Model) Client() *chatclient.Client { return m.client }

// Alert returns the blocking alert text, or "" when none is shown.
func (m Model) Alert() string { return m.alert }

// Notice returns the transient notice line.
func (m Model) Notice() string { return m.notice }

// PickerOpen reports whether the document picker is visible.
func (m Model) PickerOpen() bool { return m.pickerOpen }

// InputValue returns the current input text.
func (m Model) InputValue() string { return m.input.Value() }

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
