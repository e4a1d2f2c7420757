// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Cppticketer buys allcpp tickets from the command line. It keeps the
// account, the chosen buyers, and the selected event tier in an
// optionally encrypted config file, then polls the tier's stock and
// submits orders until one succeeds.
//
// Run without arguments for the interactive menu, or see
// "cppticketer --help" for the commands.
package main
