// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for cppticketer: a tree of
// [Command] values dispatched by name, pflag flag sets built from
// tagged parameter structs, typo suggestions for unknown commands and
// flags, and the terminal plumbing shared by commands (logger,
// prompts, exit codes).
package cli
