// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	algo.Init("default")
}

// FuzzyResult is a match score and the matched rune positions in the
// text, ascending. A zero Score means no match.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// NewSlab allocates scratch space for repeated FuzzyMatch calls on one
// goroutine.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyMatch scores text against pattern, case-insensitively. An empty
// pattern matches nothing; callers treat it as "no filter". slab may be
// nil.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = slices.Clone(*positions)
		slices.Sort(match.Positions)
	}
	return match
}

// Highlight renders text with the runes at positions (ascending) in
// match style and the rest in base style.
func Highlight(text string, positions []int, base, match func(...string) string) string {
	if len(positions) == 0 {
		return base(text)
	}
	var (
		out   strings.Builder
		run   []rune
		next  int
		inHit bool
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		if inHit {
			out.WriteString(match(string(run)))
		} else {
			out.WriteString(base(string(run)))
		}
		run = run[:0]
	}
	for index, r := range []rune(text) {
		hit := next < len(positions) && positions[next] == index
		if hit {
			next++
		}
		if hit != inHit {
			flush()
			inHit = hit
		}
		run = append(run, r)
	}
	flush()
	return out.String()
}
