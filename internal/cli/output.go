// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// PRINTER
// =============================================================================

// printer writes styled line output for the REPL and one-shot commands.
// Colors and markdown are dropped when out is not a terminal or NO_COLOR
// is set, so piped output stays plain text.
type printer struct {
	out    io.Writer
	errOut io.Writer

	color bool
	width int
	// glamour style name
	mdStyle string
	md      *glamour.TermRenderer

	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	dim     lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
	system  lipgloss.Style
	prompt  lipgloss.Style
}

func newPrinter(out, errOut io.Writer, theme styles.Mode) *printer {
	profile := colorProfile(out)

	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	switch theme {
	case styles.ModeDark:
		r.SetHasDarkBackground(true)
	case styles.ModeLight:
		r.SetHasDarkBackground(false)
	}

	p := &printer{
		out:    out,
		errOut: errOut,
		color:  profile != termenv.Ascii,
		width:  terminalWidth(out),

		success: r.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true),
		failure: r.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true),
		warning: r.NewStyle().Foreground(styles.WarningHighContrast).Bold(true),
		info:    r.NewStyle().Foreground(styles.InfoHighContrast),
		dim:     r.NewStyle().Foreground(styles.TextMuted),
		user:    r.NewStyle().Foreground(styles.UserBubbleBorder).Bold(true),
		bot:     r.NewStyle().Foreground(styles.AssistantBubbleBorder).Bold(true),
		system:  r.NewStyle().Foreground(styles.SystemBubbleBorder).Bold(true),
		prompt:  r.NewStyle().Foreground(styles.Purple).Bold(true),
	}

	switch {
	case !p.color:
		p.mdStyle = glamourstyles.NoTTYStyle
	case r.HasDarkBackground():
		p.mdStyle = glamourstyles.DarkStyle
	default:
		p.mdStyle = glamourstyles.LightStyle
	}
	return p
}

// Successf prints an [OK] line to stdout.
func (p *printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, p.success.Render(styles.StatusIndicators.Success+" "+fmt.Sprintf(format, args...)))
}

// Errorf prints an [X] line to stderr.
func (p *printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.errOut, p.failure.Render(styles.StatusIndicators.Error+" "+fmt.Sprintf(format, args...)))
}

// Warnf prints a [!] line to stderr.
func (p *printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.errOut, p.warning.Render(styles.StatusIndicators.Warning+" "+fmt.Sprintf(format, args...)))
}

// Infof prints an [i] line to stdout.
func (p *printer) Infof(format string, args ...any) {
	fmt.Fprintln(p.out, p.info.Render(styles.StatusIndicators.Info+" "+fmt.Sprintf(format, args...)))
}

// Plain prints text unstyled.
func (p *printer) Plain(text string) {
	fmt.Fprintln(p.out, text)
}

// Dim prints muted text.
func (p *printer) Dim(text string) {
	fmt.Fprintln(p.out, p.dim.Render(text))
}

// Prompt returns the styled REPL prompt.
func (p *printer) Prompt(label string) string {
	if !p.color {
		return label
	}
	return p.prompt.Render(label)
}

// Reply prints an assistant reply, rendered as markdown on a terminal.
func (p *printer) Reply(text string) {
	fmt.Fprintln(p.out, p.markdown(text))
}

// Entry prints one transcript entry with its role label.
func (p *printer) Entry(e model.Entry, showTime bool) {
	var label lipgloss.Style
	switch {
	case e.IsUser():
		label = p.user
	case e.IsSystem():
		label = p.system
	default:
		label = p.bot
	}

	head := label.Render(e.Role.DisplayName())
	if showTime {
		head += " " + p.dim.Render(e.FormatTime())
	}
	fmt.Fprintln(p.out, head)

	if e.IsAssistant() {
		fmt.Fprintln(p.out, p.markdown(e.Text))
		return
	}
	fmt.Fprintln(p.out, e.Text)
	fmt.Fprintln(p.out)
}

// markdown renders text with glamour. Plain output and render failures
// return the text as is.
func (p *printer) markdown(text string) string {
	if !p.color {
		return text
	}
	if p.md == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(p.mdStyle),
			glamour.WithWordWrap(p.width-4),
		)
		if err != nil {
			return text
		}
		p.md = r
	}
	out, err := p.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}
