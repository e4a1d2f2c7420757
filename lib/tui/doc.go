// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal pickers used to choose buyers,
// events and tiers. Built on bubbletea (Elm architecture): a Picker is a
// tea.Model that filters its items with fzf's fuzzy matcher as the user
// types, highlights the matched characters, and returns the chosen
// indices.
//
// Rendering is ANSI-aware throughout (x/ansi widths and truncation), so
// CJK titles line up with their detail columns. The color profile comes
// from the output terminal via termenv; NO_COLOR is honored.
package tui
