// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ticketzako/cppticketer/lib/sqlitepool"
)

func TestPragmasApplied(t *testing.T) {
	pool := openTestPool(t, nil)

	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		var journalMode string
		var synchronous int
		if err := sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				journalMode = stmt.ColumnText(0)
				return nil
			},
		}); err != nil {
			return err
		}
		if err := sqlitex.Execute(conn, "PRAGMA synchronous", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				synchronous = stmt.ColumnInt(0)
				return nil
			},
		}); err != nil {
			return err
		}
		if journalMode != "wal" {
			t.Errorf("journal_mode = %q, want wal", journalMode)
		}
		if synchronous != 1 {
			t.Errorf("synchronous = %d, want 1 (NORMAL)", synchronous)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestOnConnectCreatesSchema(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, `
			CREATE TABLE IF NOT EXISTS attempts (
				id INTEGER PRIMARY KEY,
				state TEXT NOT NULL
			);
		`, nil)
	})

	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "INSERT INTO attempts (state) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{"checking_stock"},
		})
	})
	if err != nil {
		t.Fatalf("insert after OnConnect: %v", err)
	}
}

func TestOnConnectErrorFailsTake(t *testing.T) {
	pool := openTestPool(t, func(*sqlite.Conn) error {
		return errors.New("schema broken")
	})
	if _, err := pool.Take(context.Background()); err == nil {
		t.Fatal("Take succeeded despite OnConnect failure")
	}
}

func TestConcurrentReaders(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, `CREATE TABLE IF NOT EXISTS remainders (value INTEGER NOT NULL);`, nil)
	})
	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, `INSERT INTO remainders (value) VALUES (1), (2), (3), (4);`, nil)
	})
	if err != nil {
		t.Fatal(err)
	}

	const readers = 6
	var waitGroup sync.WaitGroup
	failures := make(chan error, readers)
	for range readers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			var sum int64
			err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
				return sqlitex.Execute(conn, "SELECT value FROM remainders", &sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						sum += stmt.ColumnInt64(0)
						return nil
					},
				})
			})
			if err != nil {
				failures <- err
				return
			}
			if sum != 10 {
				failures <- errors.New("wrong sum")
			}
		}()
	}
	waitGroup.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestTakeHonorsContext(t *testing.T) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "cancel.db"),
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("Take on an exhausted pool ignored the cancelled context")
	}
	pool.Put(conn)
}

func openTestPool(t *testing.T, onConnect func(*sqlite.Conn) error) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		OnConnect: onConnect,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}
