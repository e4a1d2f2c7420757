// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal keeps a SQLite record of purchase attempts and stock
// samples.
//
// A run is one purchase loop execution. BeginRun stores the selection
// the loop started with (event, tier, buyers, pacing) as a CBOR+zstd
// snapshot keyed by its BLAKE3 digest, so identical selections across
// runs share one row. Credentials never enter the journal. Each state
// change the loop reports becomes a transitions row with a per-run
// sequence number; Finish stamps the run with its final state.
//
// Monitor samples go to their own table, one row per tier per sample.
//
// Schema:
//
//	snapshots(digest PK, body BLOB)
//	runs(id PK, started, finished, event_id, ticket_type_id, snapshot, state, message)
//	transitions(run_id, seq, at, from_state, to_state, delay_ms, submissions, budget, category, message)
//	samples(at, event_id, ticket_type_id, name, square, price, remainder, locked)
package journal
