// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"
)

// ErrCancelled is returned by Pick when the user backs out.
var ErrCancelled = errors.New("tui: selection cancelled")

// Item is one choice. Disabled items are shown but cannot be chosen.
type Item struct {
	Title    string
	Detail   string
	Disabled bool
}

// PickerConfig configures a Picker. Items must not be empty.
type PickerConfig struct {
	Title string
	Items []Item

	// Multi allows choosing several items with Toggle. Max caps the
	// number chosen (0 means no cap).
	Multi bool
	Max   int

	// Preselected indices start chosen in multi mode.
	Preselected []int

	// Height is the number of list rows. Defaults to 10.
	Height int

	Theme *Theme
	Keys  *KeyMap

	Input  io.Reader
	Output io.Writer
}

type match struct {
	index     int
	score     int
	positions []int
}

// Picker is the tea.Model behind Pick.
type Picker struct {
	title  string
	items  []Item
	multi  bool
	max    int
	height int
	theme  Theme
	keys   KeyMap
	help   help.Model

	renderer *lipgloss.Renderer
	slab     *util.Slab

	query   []rune
	visible []match
	cursor  int
	offset  int
	chosen  map[int]bool
	notice  string

	done      bool
	cancelled bool
}

// NewPicker builds a picker model. Most callers want Pick.
func NewPicker(cfg PickerConfig) *Picker {
	theme := DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	keys := DefaultKeyMap
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}
	height := cfg.Height
	if height <= 0 {
		height = 10
	}
	output := cfg.Output
	if output == nil {
		output = io.Discard
	}
	picker := &Picker{
		title:    cfg.Title,
		items:    cfg.Items,
		multi:    cfg.Multi,
		max:      cfg.Max,
		height:   height,
		theme:    theme,
		keys:     keys,
		help:     help.New(),
		renderer: NewRenderer(output),
		slab:     NewSlab(),
		chosen:   make(map[int]bool),
	}
	picker.help.Styles.ShortKey = picker.renderer.NewStyle().Foreground(theme.FaintText)
	picker.help.Styles.ShortDesc = picker.renderer.NewStyle().Foreground(theme.HelpText)
	picker.help.Styles.ShortSeparator = picker.renderer.NewStyle().Foreground(theme.BorderColor)
	if cfg.Multi {
		for _, index := range cfg.Preselected {
			if index >= 0 && index < len(cfg.Items) && !cfg.Items[index].Disabled {
				picker.chosen[index] = true
			}
		}
	}
	picker.refilter()
	return picker
}

// Pick runs an interactive picker and returns the chosen item indices
// in item order. A single-select picker returns exactly one index.
func Pick(ctx context.Context, cfg PickerConfig) ([]int, error) {
	if len(cfg.Items) == 0 {
		return nil, errors.New("tui: nothing to pick from")
	}
	picker := NewPicker(cfg)
	options := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		options = append(options, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		options = append(options, tea.WithOutput(cfg.Output))
	}
	final, err := tea.NewProgram(picker, options...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tui: %w", err)
	}
	return final.(*Picker).Result()
}

// Result reports what the user chose once the program has exited.
func (p *Picker) Result() ([]int, error) {
	if p.cancelled || !p.done {
		return nil, ErrCancelled
	}
	if p.multi {
		chosen := make([]int, 0, len(p.chosen))
		for index := range p.chosen {
			chosen = append(chosen, index)
		}
		slices.Sort(chosen)
		return chosen, nil
	}
	return []int{p.visible[p.cursor].index}, nil
}

// Init implements tea.Model.
func (p *Picker) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	p.notice = ""
	switch {
	case key.Matches(keyMsg, p.keys.Quit):
		p.cancelled = true
		return p, tea.Quit
	case key.Matches(keyMsg, p.keys.Up):
		p.move(-1)
	case key.Matches(keyMsg, p.keys.Down):
		p.move(1)
	case key.Matches(keyMsg, p.keys.PageUp):
		p.move(-p.height)
	case key.Matches(keyMsg, p.keys.PageDown):
		p.move(p.height)
	case key.Matches(keyMsg, p.keys.Toggle):
		if p.multi {
			p.toggle()
		}
	case key.Matches(keyMsg, p.keys.Confirm):
		if p.confirm() {
			return p, tea.Quit
		}
	case key.Matches(keyMsg, p.keys.ClearFilter):
		p.query = p.query[:0]
		p.refilter()
	case key.Matches(keyMsg, p.keys.Backspace):
		if len(p.query) > 0 {
			p.query = p.query[:len(p.query)-1]
			p.refilter()
		}
	case keyMsg.Type == tea.KeyRunes || keyMsg.Type == tea.KeySpace:
		p.query = append(p.query, keyMsg.Runes...)
		p.refilter()
	}
	return p, nil
}

func (p *Picker) move(delta int) {
	if len(p.visible) == 0 {
		return
	}
	p.cursor = max(0, min(p.cursor+delta, len(p.visible)-1))
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+p.height {
		p.offset = p.cursor - p.height + 1
	}
}

func (p *Picker) current() (int, bool) {
	if len(p.visible) == 0 {
		return 0, false
	}
	return p.visible[p.cursor].index, true
}

func (p *Picker) toggle() {
	index, ok := p.current()
	if !ok {
		return
	}
	switch {
	case p.items[index].Disabled:
		p.notice = "不可选择"
	case p.chosen[index]:
		delete(p.chosen, index)
	case p.max > 0 && len(p.chosen) >= p.max:
		p.notice = fmt.Sprintf("最多选择 %d 项", p.max)
	default:
		p.chosen[index] = true
	}
}

// confirm finishes the pick if the current state is a valid answer.
// In multi mode with nothing toggled, the cursor item is taken.
func (p *Picker) confirm() bool {
	if p.multi && len(p.chosen) > 0 {
		p.done = true
		return true
	}
	index, ok := p.current()
	if !ok {
		return false
	}
	if p.items[index].Disabled {
		p.notice = "不可选择"
		return false
	}
	if p.multi {
		p.chosen[index] = true
	}
	p.done = true
	return true
}

// refilter recomputes the visible list. Without a query every item is
// shown in order; with one, matches are ranked by score, ties keeping
// item order.
func (p *Picker) refilter() {
	p.visible = p.visible[:0]
	for index, item := range p.items {
		if len(p.query) == 0 {
			p.visible = append(p.visible, match{index: index})
			continue
		}
		text := item.Title
		if item.Detail != "" {
			text += " " + item.Detail
		}
		result := FuzzyMatch(text, p.query, p.slab)
		if result.Score > 0 {
			p.visible = append(p.visible, match{index: index, score: result.Score, positions: result.Positions})
		}
	}
	if len(p.query) > 0 {
		slices.SortStableFunc(p.visible, func(a, b match) int { return b.score - a.score })
	}
	p.cursor, p.offset = 0, 0
}

// View implements tea.Model.
func (p *Picker) View() string {
	if p.done || p.cancelled {
		return ""
	}
	r := p.renderer
	header := r.NewStyle().Bold(true).Foreground(p.theme.HeaderForeground)
	faint := r.NewStyle().Foreground(p.theme.FaintText)
	normal := r.NewStyle().Foreground(p.theme.NormalText)
	hit := r.NewStyle().Foreground(p.theme.MatchForeground).Bold(true)
	accent := r.NewStyle().Foreground(p.theme.Accent)
	selected := r.NewStyle().Background(p.theme.SelectedBackground).Foreground(p.theme.SelectedForeground)

	var b strings.Builder
	if p.title != "" {
		b.WriteString(header.Render(p.title))
		b.WriteByte('\n')
	}
	b.WriteString(accent.Render("> "))
	b.WriteString(string(p.query))
	b.WriteString(faint.Render(fmt.Sprintf("  %d/%d", len(p.visible), len(p.items))))
	if p.multi {
		b.WriteString(faint.Render(fmt.Sprintf("  已选 %d", len(p.chosen))))
	}
	b.WriteByte('\n')

	titleWidth := 0
	for _, item := range p.items {
		titleWidth = max(titleWidth, ansi.StringWidth(item.Title))
	}
	titleWidth = min(titleWidth, 40)

	rows := make([]string, 0, p.height)
	end := min(p.offset+p.height, len(p.visible))
	for position := p.offset; position < end; position++ {
		entry := p.visible[position]
		item := p.items[entry.index]

		marker := "  "
		if position == p.cursor {
			marker = accent.Render("▌ ")
		}
		if p.multi {
			if p.chosen[entry.index] {
				marker += accent.Render("◉ ")
			} else {
				marker += faint.Render("○ ")
			}
		}

		base := normal.Render
		if item.Disabled {
			base = faint.Render
		} else if position == p.cursor {
			base = selected.Render
		}
		title := ansi.Truncate(item.Title, titleWidth, "…")
		titlePositions := entry.positions
		if cut := len([]rune(title)); len(titlePositions) > 0 {
			titlePositions = slices.DeleteFunc(slices.Clone(titlePositions), func(i int) bool { return i >= cut })
		}
		line := marker + Highlight(title, titlePositions, base, hit.Render)
		if pad := titleWidth - ansi.StringWidth(title); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		if item.Detail != "" {
			line += "  " + faint.Render(item.Detail)
		}
		rows = append(rows, line)
	}
	for len(rows) < p.height {
		rows = append(rows, "")
	}
	scrollbar := RenderScrollbar(r, p.theme, p.height, len(p.visible), p.height, p.offset)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(rows, "\n"), " ", scrollbar))
	b.WriteByte('\n')

	if p.notice != "" {
		b.WriteString(r.NewStyle().Foreground(p.theme.LowStock).Render(p.notice))
		b.WriteByte('\n')
	}
	b.WriteString(p.help.View(helpKeys{keys: p.keys, multi: p.multi}))
	return b.String()
}
