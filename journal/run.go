// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ticketzako/cppticketer/purchase"
)

// Run records one purchase loop execution. It is a purchase.Observer;
// write failures are logged, never returned to the loop.
type Run struct {
	journal *Journal
	id      int64

	// ctx outlives the caller's cancellation so the final
	// transitions of an interrupted run are still written.
	ctx context.Context

	mu  sync.Mutex
	seq int
}

// ID is the run's row id.
func (r *Run) ID() int64 { return r.id }

// Transition implements purchase.Observer.
func (r *Run) Transition(transition purchase.Transition) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	var category, message string
	switch {
	case transition.Result != nil:
		category = string(transition.Result.Category)
		message = transition.Result.Message
	case transition.From == purchase.CheckingStock:
		message = transition.Stock.String()
	}

	err := r.journal.pool.With(r.context(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO transitions
			 (run_id, seq, at, from_state, to_state, delay_ms, submissions, budget, category, message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				r.id, seq, transition.At.UnixMilli(),
				transition.From.String(), transition.To.String(),
				transition.Delay.Milliseconds(), transition.Submissions, transition.Budget,
				category, message,
			}})
	})
	if err != nil {
		r.journal.logger.Warn("journal transition not recorded", "run", r.id, "seq", seq, "error", err)
	}
}

// Finish stamps the run with its outcome.
func (r *Run) Finish(outcome purchase.Outcome) error {
	finished := outcome.Finished
	if finished.IsZero() {
		finished = r.journal.clock.Now()
	}
	err := r.journal.pool.With(r.context(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`UPDATE runs SET finished = ?, state = ?, message = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{
				finished.UnixMilli(), outcome.State.String(), outcome.Result.Message, r.id,
			}})
	})
	if err != nil {
		return fmt.Errorf("journal: finishing run %d: %w", r.id, err)
	}
	return nil
}

func (r *Run) context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// TransitionRecord is a stored transition.
type TransitionRecord struct {
	Seq         int           `json:"seq"`
	At          time.Time     `json:"at"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Delay       time.Duration `json:"delay"`
	Submissions int           `json:"submissions"`
	Budget      int           `json:"budget"`
	Category    string        `json:"category"`
	Message     string        `json:"message"`
}

// Transitions returns run id's transitions in the order they happened.
func (j *Journal) Transitions(ctx context.Context, runID int64) ([]TransitionRecord, error) {
	var records []TransitionRecord
	err := j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT seq, at, from_state, to_state, delay_ms, submissions, budget, category, message
			 FROM transitions WHERE run_id = ? ORDER BY seq`,
			&sqlitex.ExecOptions{
				Args: []any{runID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					records = append(records, TransitionRecord{
						Seq:         stmt.ColumnInt(0),
						At:          time.UnixMilli(stmt.ColumnInt64(1)),
						From:        stmt.ColumnText(2),
						To:          stmt.ColumnText(3),
						Delay:       time.Duration(stmt.ColumnInt64(4)) * time.Millisecond,
						Submissions: stmt.ColumnInt(5),
						Budget:      stmt.ColumnInt(6),
						Category:    stmt.ColumnText(7),
						Message:     stmt.ColumnText(8),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("journal: listing transitions of run %d: %w", runID, err)
	}
	return records, nil
}
