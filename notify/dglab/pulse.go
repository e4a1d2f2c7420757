// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package dglab

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/tidwall/jsonc"
)

//go:embed pulses.jsonc
var pulsesSource []byte

// FrameDuration is how long the device plays one pulse frame.
const FrameDuration = 100 * time.Millisecond

// PulseTable maps preset names to frames.
type PulseTable struct {
	Version int
	pulses  map[string][]string
}

// ParsePulseTable reads a JSONC pulse table. Every frame must be eight
// hex-encoded bytes with intensities of at most 100.
func ParsePulseTable(data []byte) (*PulseTable, error) {
	var document struct {
		Version int                 `json:"version"`
		Pulses  map[string][]string `json:"pulses"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing pulse table: %w", err)
	}
	var errs []error
	for name, frames := range document.Pulses {
		if len(frames) == 0 {
			errs = append(errs, fmt.Errorf("pulse %q has no frames", name))
		}
		for index, frame := range frames {
			if err := checkFrame(frame); err != nil {
				errs = append(errs, fmt.Errorf("pulse %q frame %d: %w", name, index, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("pulse table: %w", errors.Join(errs...))
	}
	return &PulseTable{Version: document.Version, pulses: document.Pulses}, nil
}

func checkFrame(frame string) error {
	decoded, err := hex.DecodeString(frame)
	if err != nil {
		return err
	}
	if len(decoded) != 8 {
		return fmt.Errorf("want 8 bytes, got %d", len(decoded))
	}
	for _, intensity := range decoded[4:] {
		if intensity > 100 {
			return fmt.Errorf("intensity %d above 100", intensity)
		}
	}
	return nil
}

// DefaultPulseTable returns the embedded presets.
func DefaultPulseTable() *PulseTable {
	table, err := ParsePulseTable(pulsesSource)
	if err != nil {
		panic(err)
	}
	return table
}

// Frames returns a copy of the named preset.
func (t *PulseTable) Frames(name string) ([]string, bool) {
	frames, ok := t.pulses[name]
	return slices.Clone(frames), ok
}

// Names lists the presets, sorted.
func (t *PulseTable) Names() []string {
	names := make([]string, 0, len(t.pulses))
	for name := range t.pulses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extended repeats a preset until it plays for at least a second, so
// short presets are still felt.
func (t *PulseTable) Extended(name string) ([]string, bool) {
	frames, ok := t.pulses[name]
	if !ok {
		return nil, false
	}
	duration := time.Duration(len(frames)) * FrameDuration
	copies := max(1, int(time.Second/duration)+1)
	extended := make([]string, 0, len(frames)*copies)
	for range copies {
		extended = append(extended, frames...)
	}
	return extended, true
}
