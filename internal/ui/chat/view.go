// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat-tui/internal/chatclient"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// renderChat renders the complete chat interface.
func (m Model) renderChat() string {
	var body string
	switch {
	case m.alert != "":
		body = m.renderAlert()
	case m.pickerOpen:
		body = m.renderPicker()
	default:
		body = m.viewport.View()
	}

	parts := []string{
		m.renderHeader(),
		body,
		m.renderStatusLine(),
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keyMap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	st := m.client.State()

	label := util.TruncateWidth(st.ModelLabel(), max(m.width/2, 8))
	left := m.theme.HeaderTitle.Render("ragchat") + "  " + m.theme.HeaderModel.Render(label)

	badge := m.theme.RAGOff
	if st.RAGEnabled() {
		badge = m.theme.RAGOn
	}
	right := badge.Render("RAG: " + st.RAGLabel())

	// Header padding takes one column on each side
	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every entry, or the empty-state placeholder.
func (m *Model) renderTranscript() string {
	entries := m.client.State().Entries()
	if len(entries) == 0 {
		m.cache.prune(nil)
		return lipgloss.Place(m.viewport.Width, m.viewport.Height,
			lipgloss.Center, lipgloss.Center,
			m.theme.EmptyState.Render(chatclient.EmptyStateText))
	}

	width := max(m.viewport.Width-2, 10)
	m.cache.reset(width, m.renderMarkdown, m.showTimestamps)

	blocks := make([]string, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Pending {
			blocks = append(blocks, m.renderEntry(e, width))
			continue
		}
		block, ok := m.cache.blocks[e.ID]
		if !ok {
			block = m.renderEntry(e, width)
			m.cache.blocks[e.ID] = block
		}
		blocks = append(blocks, block)
	}
	m.cache.prune(entries)
	return strings.Join(blocks, "\n\n")
}

// renderCache holds rendered entries by ID. Entries never change once
// committed, so a block only goes stale when the width or a display
// setting does.
type renderCache struct {
	width      int
	markdown   bool
	timestamps bool
	blocks     map[string]string
}

func newRenderCache() *renderCache {
	return &renderCache{blocks: make(map[string]string)}
}

// reset drops every block when the render settings changed.
func (c *renderCache) reset(width int, markdown, timestamps bool) {
	if c.width == width && c.markdown == markdown && c.timestamps == timestamps {
		return
	}
	c.width = width
	c.markdown = markdown
	c.timestamps = timestamps
	c.blocks = make(map[string]string)
}

// prune forgets blocks of entries that left the transcript.
func (c *renderCache) prune(entries []model.Entry) {
	if len(c.blocks) <= len(entries) {
		return
	}
	keep := make(map[string]string, len(entries))
	for _, e := range entries {
		if block, ok := c.blocks[e.ID]; ok {
			keep[e.ID] = block
		}
	}
	c.blocks = keep
}

// renderEntry renders one entry; border and padding take two columns of
// the viewport, so width is the viewport width less two.
func (m *Model) renderEntry(e *model.Entry, width int) string {
	label := m.theme.RoleLabel.Render(e.Role.DisplayName())
	if m.showTimestamps {
		label += " " + m.theme.Timestamp.Render(e.FormatTime())
	}

	var body string
	switch {
	case e.Pending:
		body = m.spinner.View() + " " + m.theme.Pending.Render(model.PendingText+"...")
	case e.IsAssistant() && m.renderMarkdown:
		body = m.markdown(e.Text, width)
	default:
		body = e.Text
	}

	var bubble lipgloss.Style
	switch {
	case e.IsUser():
		bubble = m.theme.UserBubble
	case e.IsSystem():
		bubble = m.theme.SystemBubble
	default:
		bubble = m.theme.AssistantBubble
	}

	return label + "\n" + bubble.Width(width).Render(body)
}

// markdown renders text with glamour, falling back to the raw text.
func (m *Model) markdown(text string, width int) string {
	if m.md == nil || m.mdWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width-2),
		)
		if err != nil {
			return text
		}
		m.md = r
		m.mdWidth = width
	}

	out, err := m.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// STATUS AREA
// =============================================================================

// renderStatusLine shows upload progress and the transient notice.
func (m Model) renderStatusLine() string {
	var parts []string

	st := m.client.State()
	if text := st.UploadStatusText(); text != "" {
		switch st.UploadStatus().Phase {
		case session.UploadInProgress:
			parts = append(parts, m.theme.WarningStyle.Render(m.spinner.View()+" "+text))
		case session.UploadSucceeded:
			parts = append(parts, m.theme.SuccessStyle.Render(text))
		case session.UploadFailed:
			parts = append(parts, m.theme.ErrorStyle.Render(text))
		}
	}

	if m.notice != "" {
		style := m.theme.InfoStyle
		if m.noticeErr {
			style = m.theme.ErrorStyle
		}
		parts = append(parts, style.Render(m.notice))
	}

	line := strings.Join(parts, "  ")
	if line == "" {
		line = " "
	}
	return lipgloss.NewStyle().Padding(0, 1).MaxWidth(m.width).Render(line)
}

func (m Model) renderStatusBar() string {
	st := m.client.State()

	toggle := m.theme.ToggleOff.Render(st.ToggleLabel())
	if st.ToggleVariant() == session.ToggleOn {
		toggle = m.theme.ToggleOn.Render(st.ToggleLabel())
	}

	parts := []string{toggle}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	if !m.showHelp {
		parts = append(parts, m.help.ShortHelpView(m.keyMap.ShortHelp()))
	}
	return m.theme.StatusBar.Width(m.width).MaxWidth(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderAlert() string {
	msgWidth := min(60, max(m.width-10, 20))
	box := m.theme.AlertBox.Render(
		m.theme.AlertTitle.Render(styles.StatusIndicators.Error+" Error") + "\n\n" +
			m.theme.AlertMessage.Width(msgWidth).Render(m.alert) + "\n\n" +
			m.theme.AlertHint.Render("Press enter or esc to dismiss"),
	)
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderPicker() string {
	dir := util.TruncateWidth(m.picker.CurrentDirectory, max(m.width-8, 10))
	box := m.theme.PickerBox.Width(max(m.width-2, 20)).Render(
		m.theme.PickerTitle.Render("Select a document to upload") + "\n" +
			m.theme.Timestamp.Render(dir) + "\n\n" +
			m.picker.View() + "\n" +
			m.theme.AlertHint.Render("enter select · h back · esc cancel"),
	)
	return lipgloss.PlaceVertical(m.viewport.Height, lipgloss.Top, box)
}
