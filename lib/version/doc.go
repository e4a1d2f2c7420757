// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build information for the cppticketer
// binary. The variables are injected with -ldflags -X:
//
//	go build -ldflags "-X github.com/ticketzako/cppticketer/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds report "0.0.0-dev" and "unknown".
package version
