// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ticketzako/cppticketer/monitor"
)

// RecordSample stores one row per tier of sample.
func (j *Journal) RecordSample(ctx context.Context, sample monitor.Sample) (err error) {
	if len(sample.Tiers) == 0 {
		return nil
	}
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("journal: record sample: %w", err)
	}
	defer j.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("journal: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	at := sample.At.UnixMilli()
	for _, tier := range sample.Tiers {
		err = sqlitex.Execute(conn,
			`INSERT INTO samples (at, event_id, ticket_type_id, name, square, price, remainder, locked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				at, sample.Event.ID, tier.ID, tier.Name, tier.Square, tier.Price, tier.RemainderNum, tier.LockNum,
			}})
		if err != nil {
			return fmt.Errorf("journal: inserting sample of tier %d: %w", tier.ID, err)
		}
	}
	return nil
}

// SampleObserver records every reported monitor sample, logging
// failures.
func (j *Journal) SampleObserver() monitor.Observer {
	return monitor.ObserverFunc(func(ctx context.Context, sample monitor.Sample) {
		if err := j.RecordSample(ctx, sample); err != nil {
			j.logger.Warn("journal sample not recorded", "event", sample.Event.ID, "error", err)
		}
	})
}

// SampleRecord is one tier's stock at one moment.
type SampleRecord struct {
	At           time.Time `json:"at"`
	EventID      int       `json:"event_id"`
	TicketTypeID int       `json:"ticket_type_id"`
	Name         string    `json:"name"`
	Square       string    `json:"square"`
	Price        int       `json:"price"`
	Remainder    int       `json:"remainder"`
	Locked       int       `json:"locked"`
}

// Samples returns eventID's samples taken at or after since, oldest
// first.
func (j *Journal) Samples(ctx context.Context, eventID int, since time.Time) ([]SampleRecord, error) {
	var records []SampleRecord
	err := j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT at, event_id, ticket_type_id, name, square, price, remainder, locked
			 FROM samples WHERE event_id = ? AND at >= ? ORDER BY at, ticket_type_id`,
			&sqlitex.ExecOptions{
				Args: []any{eventID, since.UnixMilli()},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					records = append(records, SampleRecord{
						At:           time.UnixMilli(stmt.ColumnInt64(0)),
						EventID:      stmt.ColumnInt(1),
						TicketTypeID: stmt.ColumnInt(2),
						Name:         stmt.ColumnText(3),
						Square:       stmt.ColumnText(4),
						Price:        stmt.ColumnInt(5),
						Remainder:    stmt.ColumnInt(6),
						Locked:       stmt.ColumnInt(7),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: listing samples of event %d: %w", eventID, err)
	}
	return records, nil
}
