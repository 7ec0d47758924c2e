// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPaletteColorsDefined(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Purple":                Purple,
		"Cyan":                  Cyan,
		"Emerald":               Emerald,
		"Rose":                  Rose,
		"Amber":                 Amber,
		"TextPrimary":           TextPrimary,
		"TextMuted":             TextMuted,
		"UserBubbleFg":          UserBubbleFg,
		"AssistantBubbleFg":     AssistantBubbleFg,
		"SystemBubbleFg":        SystemBubbleFg,
		"AssistantBubbleBorder": AssistantBubbleBorder,
	}

	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s should define both Light and Dark", name)
		}
		if !strings.HasPrefix(c.Light, "#") || !strings.HasPrefix(c.Dark, "#") {
			t.Errorf("%s should use hex colors, got %+v", name, c)
		}
	}
}

func TestStatusIndicatorsUnique(t *testing.T) {
	indicators := []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
		StatusIndicators.Active,
	}

	seen := make(map[string]bool)
	for _, ind := range indicators {
		if ind == "" {
			t.Error("empty status indicator")
		}
		if seen[ind] {
			t.Errorf("Duplicate status indicator: %q", ind)
		}
		seen[ind] = true
	}
}

func TestRenderFunctions(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.render("Document uploaded")
			if !strings.Contains(got, "Document uploaded") {
				t.Errorf("result %q missing message", got)
			}
			if !strings.Contains(got, tc.indicator) {
				t.Errorf("result %q missing indicator %q", got, tc.indicator)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	if got := RenderStatus(true, "ok"); !strings.Contains(got, StatusIndicators.Success) {
		t.Errorf("RenderStatus(true) = %q", got)
	}
	if got := RenderStatus(false, "bad"); !strings.Contains(got, StatusIndicators.Error) {
		t.Errorf("RenderStatus(false) = %q", got)
	}
}
