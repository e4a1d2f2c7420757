// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		text    string
		pattern string
		match   bool
	}{
		{"CP31 第一天 普通票", "普通", true},
		{"Comicup Premium", "cup", true},
		{"Comicup Premium", "CPM", true},
		{"pooling leak", "plk", true},
		{"普通票", "vip", false},
		{"anything", "", false},
	}
	for _, test := range tests {
		result := FuzzyMatch(test.text, []rune(test.pattern), nil)
		if got := result.Score > 0; got != test.match {
			t.Errorf("FuzzyMatch(%q, %q) score = %d, want match=%v", test.text, test.pattern, result.Score, test.match)
		}
		if !test.match && len(result.Positions) != 0 {
			t.Errorf("FuzzyMatch(%q, %q) positions = %v on a miss", test.text, test.pattern, result.Positions)
		}
		if test.match && !slices.IsSorted(result.Positions) {
			t.Errorf("positions not ascending: %v", result.Positions)
		}
	}
}

func TestFuzzyMatchPositionsAreRunes(t *testing.T) {
	result := FuzzyMatch("第一天 普通票", []rune("普通"), NewSlab())
	if !slices.Equal(result.Positions, []int{4, 5}) {
		t.Errorf("positions = %v, want [4 5]", result.Positions)
	}
}

func TestHighlight(t *testing.T) {
	wrap := func(open, close string) func(...string) string {
		return func(parts ...string) string { return open + strings.Join(parts, "") + close }
	}
	got := Highlight("abcde", []int{1, 2, 4}, wrap("", ""), wrap("[", "]"))
	if got != "a[bc]d[e]" {
		t.Errorf("Highlight = %q", got)
	}
	if got := Highlight("abc", nil, wrap("<", ">"), wrap("[", "]")); got != "<abc>" {
		t.Errorf("Highlight without positions = %q", got)
	}
}

func TestStockColor(t *testing.T) {
	theme := DefaultTheme
	if theme.StockColor(0, 5) != theme.SoldOut {
		t.Error("zero stock is not sold out")
	}
	if theme.StockColor(3, 5) != theme.LowStock {
		t.Error("3 of low water 5 is not low")
	}
	if theme.StockColor(50, 5) != theme.InStock {
		t.Error("50 is not in stock")
	}
}

func TestRenderScrollbar(t *testing.T) {
	renderer := NewRenderer(io.Discard)
	bar := RenderScrollbar(renderer, DefaultTheme, 4, 2, 4, 0)
	if strings.Count(bar, "┃") != 4 {
		t.Errorf("fitting content should fill the bar: %q", bar)
	}
	bar = RenderScrollbar(renderer, DefaultTheme, 4, 40, 4, 36)
	lines := strings.Split(bar, "\n")
	if len(lines) != 4 || !strings.Contains(lines[3], "┃") || strings.Contains(lines[0], "┃") {
		t.Errorf("scrolled to the end: %q", lines)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(p *Picker, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = p.Update(msg)
	}
	return cmd
}

var tiers = []Item{
	{Title: "VIP", Detail: "第一天 200.00元"},
	{Title: "普通票", Detail: "第一天 75.00元"},
	{Title: "普通票", Detail: "第二天 75.00元", Disabled: true},
	{Title: "早鸟票", Detail: "第二天 60.00元"},
}

func TestPickerSingle(t *testing.T) {
	p := NewPicker(PickerConfig{Title: "选择票档", Items: tiers})
	cmd := press(p, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter did not quit")
	}
	got, err := p.Result()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1}) {
		t.Errorf("Result = %v, want [1]", got)
	}
}

func TestPickerFilterRanksMatches(t *testing.T) {
	p := NewPicker(PickerConfig{Items: tiers})
	press(p, runes("早鸟"))
	if len(p.visible) != 1 || p.visible[0].index != 3 {
		t.Fatalf("visible = %+v", p.visible)
	}
	view := ansi.Strip(p.View())
	if !strings.Contains(view, "1/4") || !strings.Contains(view, "早鸟票") {
		t.Errorf("view:\n%s", view)
	}
	press(p, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	if len(p.visible) != len(tiers) {
		t.Errorf("cleared query shows %d items", len(p.visible))
	}
}

func TestPickerDisabledCannotBeChosen(t *testing.T) {
	p := NewPicker(PickerConfig{Items: tiers})
	cmd := press(p, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("confirming a disabled item quit the picker")
	}
	if !strings.Contains(p.View(), "不可选择") {
		t.Error("no notice for a disabled item")
	}
	if _, err := p.Result(); !errors.Is(err, ErrCancelled) {
		t.Errorf("unfinished picker Result error = %v", err)
	}
}

func TestPickerMulti(t *testing.T) {
	buyers := []Item{{Title: "张*"}, {Title: "李*"}, {Title: "王*"}}
	p := NewPicker(PickerConfig{Items: buyers, Multi: true, Max: 2, Preselected: []int{2}})
	press(p,
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyTab},
	)
	if !strings.Contains(p.View(), "最多选择 2 项") {
		t.Error("cap not enforced")
	}
	press(p, tea.KeyMsg{Type: tea.KeyEnter})
	got, err := p.Result()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 2}) {
		t.Errorf("Result = %v, want [0 2]", got)
	}
}

func TestPickerCancel(t *testing.T) {
	p := NewPicker(PickerConfig{Items: tiers})
	if cmd := press(p, tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Fatal("esc did not quit")
	}
	if _, err := p.Result(); !errors.Is(err, ErrCancelled) {
		t.Errorf("Result error = %v", err)
	}
	if p.View() != "" {
		t.Error("finished picker still renders")
	}
}
