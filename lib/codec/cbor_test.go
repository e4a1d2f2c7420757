// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

type tierSnapshot struct {
	ID        int    `cbor:"id"`
	Name      string `cbor:"name"`
	Remainder int    `cbor:"remainder"`
}

type eventSnapshot struct {
	EventID int            `json:"eventMainId"`
	Tiers   []tierSnapshot `json:"tiers"`
}

func sampleEvent() eventSnapshot {
	return eventSnapshot{
		EventID: 3001,
		Tiers: []tierSnapshot{
			{ID: 1, Name: "普通票", Remainder: 0},
			{ID: 2, Name: "VIP", Remainder: 12},
		},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	original := sampleEvent()
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded eventSnapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.EventID != original.EventID || len(decoded.Tiers) != 2 || decoded.Tiers[1] != original.Tiers[1] {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": "a", "mid": []int{3, 2, 1}}
	first, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	for range 20 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("equal values produced different encodings")
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(sampleEvent())
	if err != nil {
		t.Fatal(err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diagnostic, `"eventMainId"`) {
		t.Errorf("diagnostic %s lacks the json-tagged key", diagnostic)
	}
}

func TestAnyDecodesToStringMap(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": 1}})
	if err != nil {
		t.Fatal(err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := top["outer"].(map[string]any); !ok {
		t.Errorf("nested value %T, want map[string]any", top["outer"])
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{"id": 5, "name": "x", "remainder": 1, "added": true})
	if err != nil {
		t.Fatal(err)
	}
	var tier tierSnapshot
	if err := Unmarshal(data, &tier); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tier.ID != 5 {
		t.Errorf("id = %d", tier.ID)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	original := sampleEvent()
	for range 50 {
		original.Tiers = append(original.Tiers, tierSnapshot{ID: 9, Name: "重复档位", Remainder: 3})
	}
	blob, err := MarshalCompressed(original)
	if err != nil {
		t.Fatalf("MarshalCompressed: %v", err)
	}
	plain, _ := Marshal(original)
	if len(blob) >= len(plain) {
		t.Errorf("compressed %d bytes, plain %d", len(blob), len(plain))
	}
	var decoded eventSnapshot
	if err := UnmarshalCompressed(blob, &decoded); err != nil {
		t.Fatalf("UnmarshalCompressed: %v", err)
	}
	if len(decoded.Tiers) != len(original.Tiers) {
		t.Errorf("tiers = %d, want %d", len(decoded.Tiers), len(original.Tiers))
	}
}

func TestUnmarshalCompressedRejectsGarbage(t *testing.T) {
	var decoded eventSnapshot
	if err := UnmarshalCompressed([]byte("not zstd"), &decoded); err == nil {
		t.Error("expected error for non-zstd input")
	}
}
