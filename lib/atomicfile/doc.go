// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so that readers see either the
// previous content or the new content, never a partial write.
//
// WriteFile writes to a sibling temporary file (path + ".tmp"), fsyncs
// it, renames it over the target and fsyncs the parent directory. Any
// failure removes the temporary file. The config store persists every
// mutation through this path.
package atomicfile
