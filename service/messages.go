// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
)

//go:embed ordermessages.jsonc
var orderMessagesSource []byte

// MessageEntry maps one platform message.
type MessageEntry struct {
	Message  string      `json:"message"`
	Code     OrderStatus `json:"code"`
	Category Category    `json:"category"`
}

// MessageTable maps order messages to codes by exact match.
type MessageTable struct {
	Version int
	entries map[string]MessageEntry
}

// ParseMessageTable reads a JSONC table and checks it: no empty or
// repeated messages, known categories only, one category per code.
func ParseMessageTable(data []byte) (*MessageTable, error) {
	var document struct {
		Version  int            `json:"version"`
		Messages []MessageEntry `json:"messages"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing order message table: %w", err)
	}

	var errs []error
	entries := make(map[string]MessageEntry, len(document.Messages))
	codeCategory := make(map[OrderStatus]Category)
	for _, entry := range document.Messages {
		if entry.Message == "" {
			errs = append(errs, errors.New("entry with empty message"))
			continue
		}
		if _, exists := entries[entry.Message]; exists {
			errs = append(errs, fmt.Errorf("message %q listed twice", entry.Message))
		}
		if !entry.Category.known() {
			errs = append(errs, fmt.Errorf("message %q: unknown category %q", entry.Message, entry.Category))
		}
		if previous, ok := codeCategory[entry.Code]; ok && previous != entry.Category {
			errs = append(errs, fmt.Errorf("code %d is both %s and %s", entry.Code, previous, entry.Category))
		}
		codeCategory[entry.Code] = entry.Category
		entries[entry.Message] = entry
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("order message table: %w", errors.Join(errs...))
	}
	return &MessageTable{Version: document.Version, entries: entries}, nil
}

// DefaultMessageTable returns the embedded table.
func DefaultMessageTable() *MessageTable {
	table, err := ParseMessageTable(orderMessagesSource)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup finds message. The second result is false for an unmapped
// message.
func (t *MessageTable) Lookup(message string) (MessageEntry, bool) {
	entry, ok := t.entries[message]
	return entry, ok
}

// Entries returns the table's entries in no particular order.
func (t *MessageTable) Entries() []MessageEntry {
	entries := make([]MessageEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		entries = append(entries, entry)
	}
	return entries
}
