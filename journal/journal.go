// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/codec"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/sqlitepool"
)

// FileName is the journal's name inside the data directory.
const FileName = "journal.db"

// ErrNoRun is returned for a run id the journal does not hold.
var ErrNoRun = errors.New("journal: no such run")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	digest TEXT PRIMARY KEY,
	body   BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	started        INTEGER NOT NULL,
	finished       INTEGER,
	event_id       INTEGER NOT NULL,
	ticket_type_id INTEGER NOT NULL,
	snapshot       TEXT NOT NULL REFERENCES snapshots(digest),
	state          TEXT NOT NULL DEFAULT '',
	message        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transitions (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	seq         INTEGER NOT NULL,
	at          INTEGER NOT NULL,
	from_state  TEXT NOT NULL,
	to_state    TEXT NOT NULL,
	delay_ms    INTEGER NOT NULL,
	submissions INTEGER NOT NULL,
	budget      INTEGER NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS samples (
	at             INTEGER NOT NULL,
	event_id       INTEGER NOT NULL,
	ticket_type_id INTEGER NOT NULL,
	name           TEXT NOT NULL,
	square         TEXT NOT NULL,
	price          INTEGER NOT NULL,
	remainder      INTEGER NOT NULL,
	locked         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS samples_event_at ON samples(event_id, at);
`

// Snapshot is the selection a run started with.
type Snapshot struct {
	Event    config.TicketMain `json:"event"`
	Tier     config.TicketType `json:"tier"`
	Method   string            `json:"method"`
	BuyerIDs []int             `json:"buyer_ids"`
	Setting  config.Setting    `json:"setting"`
}

// SnapshotOf extracts the journaled part of a configuration.
func SnapshotOf(c *config.Config) Snapshot {
	return Snapshot{
		Event:    c.Product.TicketMain,
		Tier:     c.Product.TicketType,
		Method:   c.Product.TicketMethod,
		BuyerIDs: c.Buyer.IDs(),
		Setting:  c.Setting,
	}
}

// Config holds the parameters for Open. Path is required.
type Config struct {
	Path     string
	PoolSize int
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Journal is the SQLite-backed record. Safe for concurrent use.
type Journal struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens or creates the journal and applies the schema.
func Open(ctx context.Context, cfg Config) (*Journal, error) {
	if cfg.Path == "" {
		return nil, errors.New("journal: Path is required")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	err = pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, schema, nil)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal: applying schema: %w", err)
	}
	return &Journal{pool: pool, clock: clk, logger: logger}, nil
}

// Close waits for in-flight writes and closes the database.
func (j *Journal) Close() error {
	return j.pool.Close()
}

// BeginRun records the start of a purchase run for c's selection.
func (j *Journal) BeginRun(ctx context.Context, c *config.Config) (_ *Run, err error) {
	snapshot := SnapshotOf(c)
	body, err := codec.MarshalCompressed(snapshot)
	if err != nil {
		return nil, fmt.Errorf("journal: encoding snapshot: %w", err)
	}
	// The digest covers the uncompressed CBOR, which is deterministic.
	plain, err := codec.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("journal: encoding snapshot: %w", err)
	}
	sum := blake3.Sum256(plain)
	digest := hex.EncodeToString(sum[:])
	started := j.clock.Now()

	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: begin run: %w", err)
	}
	defer j.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("journal: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		`INSERT OR IGNORE INTO snapshots (digest, body) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{digest, body}})
	if err != nil {
		return nil, fmt.Errorf("journal: storing snapshot: %w", err)
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO runs (started, event_id, ticket_type_id, snapshot) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{started.UnixMilli(), snapshot.Event.ID, snapshot.Tier.ID, digest}})
	if err != nil {
		return nil, fmt.Errorf("journal: inserting run: %w", err)
	}
	id := conn.LastInsertRowID()
	j.logger.Debug("journal run started", "run", id, "snapshot", digest[:12])
	return &Run{journal: j, id: id, ctx: context.WithoutCancel(ctx)}, nil
}

// RunRecord is a stored run.
type RunRecord struct {
	ID           int64
	Started      time.Time
	Finished     time.Time // zero while the run is open
	EventID      int
	TicketTypeID int
	Digest       string
	State        string
	Message      string
}

// Runs lists runs newest first, at most limit of them (all if limit
// is not positive).
func (j *Journal) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	var records []RunRecord
	err := j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, started, finished, event_id, ticket_type_id, snapshot, state, message
			 FROM runs ORDER BY id DESC LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{limit},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					record := RunRecord{
						ID:           stmt.ColumnInt64(0),
						Started:      time.UnixMilli(stmt.ColumnInt64(1)),
						EventID:      stmt.ColumnInt(3),
						TicketTypeID: stmt.ColumnInt(4),
						Digest:       stmt.ColumnText(5),
						State:        stmt.ColumnText(6),
						Message:      stmt.ColumnText(7),
					}
					if !stmt.ColumnIsNull(2) {
						record.Finished = time.UnixMilli(stmt.ColumnInt64(2))
					}
					records = append(records, record)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: listing runs: %w", err)
	}
	return records, nil
}

// Snapshot loads the selection run id started with.
func (j *Journal) Snapshot(ctx context.Context, runID int64) (Snapshot, error) {
	var (
		snapshot Snapshot
		found    bool
	)
	err := j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT s.body FROM runs r JOIN snapshots s ON s.digest = r.snapshot WHERE r.id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{runID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					body := make([]byte, stmt.ColumnLen(0))
					stmt.ColumnBytes(0, body)
					found = true
					return codec.UnmarshalCompressed(body, &snapshot)
				},
			})
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("journal: loading snapshot of run %d: %w", runID, err)
	}
	if !found {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrNoRun, runID)
	}
	return snapshot, nil
}
