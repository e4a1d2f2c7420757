// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for journal
// snapshots.
//
// JSON is the format of everything the platform and the push services
// see. CBOR is the format of what cppticketer keeps for itself: the
// product and purchase snapshots stored in the attempt journal. The
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so equal
// snapshots produce equal bytes and the journal can compare them
// without decoding.
//
// Snapshots are written compressed:
//
//	blob, err := codec.MarshalCompressed(snapshot)
//	err = codec.UnmarshalCompressed(blob, &snapshot)
//
// Diagnose renders the uncompressed form for people:
//
//	data, err := codec.Marshal(snapshot)
//	text, err := codec.Diagnose(data)
//
// Types that only live in the journal carry `cbor` tags. Types that
// also travel as JSON keep their `json` tags; fxamacker/cbor falls back
// to them.
package codec
