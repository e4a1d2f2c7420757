// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is the color palette for pickers and status lines. Colors are
// ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Accent marks the cursor, chosen items, and the scrollbar thumb.
	Accent lipgloss.Color

	// MatchForeground colors characters matched by the filter.
	MatchForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Stock levels.
	InStock  lipgloss.Color
	LowStock lipgloss.Color
	SoldOut  lipgloss.Color
}

// StockColor picks a color for a tier's remaining count. Low means at
// most lowWater left.
func (theme Theme) StockColor(remainder, lowWater int) lipgloss.Color {
	switch {
	case remainder <= 0:
		return theme.SoldOut
	case remainder <= lowWater:
		return theme.LowStock
	default:
		return theme.InStock
	}
}

// DefaultTheme targets dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Accent:          lipgloss.Color("213"), // pink
	MatchForeground: lipgloss.Color("220"), // amber

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	InStock:  lipgloss.Color("114"),
	LowStock: lipgloss.Color("208"),
	SoldOut:  lipgloss.Color("240"),
}

// NewRenderer returns a lipgloss renderer for w. Color is dropped when
// NO_COLOR is set or w is not a terminal.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(w)
	if termenv.EnvNoColor() {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return renderer
}
