// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with fixed pragmas.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers Take a
// connection, work on it, and Put it back; a connection is never
// shared between goroutines. Every connection starts with:
//
//   - journal_mode=WAL, so the monitor can read while the purchase loop
//     writes.
//   - synchronous=NORMAL: commits survive a process crash.
//   - busy_timeout=5000.
//   - temp_store=MEMORY.
//
// Schema setup belongs in Config.OnConnect:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(dataDir, "journal.db"),
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
package sqlitepool
