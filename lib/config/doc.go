// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds cppticketer's persistent state and keeps it on
// disk.
//
// [Config] is the whole document: five sections (setting, account,
// buyer, notification, product) serialized as YAML. [Default] returns
// a complete document; a file is unmarshalled on top of it so fields
// missing from the file keep their defaults and unknown keys are
// ignored.
//
// [Store] owns the single in-memory copy. Every change goes through
// [Store.Update] (or a typed setter built on it), which applies the
// change to a copy, persists once if anything differs, and then
// publishes it. Loading never persists except to create a missing
// file. Writes are atomic (temporary file, fsync, rename) and, when
// setting.isEncrypt is on, sealed with a machine-bound key from
// lib/sealbox.
//
// Key exports:
//
//   - [Config] and its section types
//   - [Default], [Config.Validate], [Config.Clone]
//   - [Open], [Store.Load], [Store.Save], [Store.Update]
//   - [LoadError], [SaveError]
package config
