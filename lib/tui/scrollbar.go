// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar draws a one-column bar of height rows for a window of
// visible items starting at offset within total. When everything fits
// the thumb fills the bar.
func RenderScrollbar(renderer *lipgloss.Renderer, theme Theme, height, total, visible, offset int) string {
	if height <= 0 {
		return ""
	}
	track := renderer.NewStyle().Foreground(theme.BorderColor).Render("│")
	thumb := renderer.NewStyle().Foreground(theme.Accent).Render("┃")

	thumbSize, thumbStart := height, 0
	if total > visible && total > 0 {
		thumbSize = max(1, height*visible/total)
		if scrollable, room := total-visible, height-thumbSize; room > 0 {
			thumbStart = min(offset*room/scrollable, room)
		}
	}

	rows := make([]string, height)
	for row := range rows {
		if row >= thumbStart && row < thumbStart+thumbSize {
			rows[row] = thumb
		} else {
			rows[row] = track
		}
	}
	return strings.Join(rows, "\n")
}
