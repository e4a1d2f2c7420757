// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/monitor"
	"github.com/ticketzako/cppticketer/purchase"
	"github.com/ticketzako/cppticketer/service"
)

var epoch = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func openTestJournal(t *testing.T) (*Journal, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	j, err := Open(context.Background(), Config{
		Path:  filepath.Join(t.TempDir(), FileName),
		Clock: fake,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j, fake
}

func testConfig() *config.Config {
	c := config.Default()
	token := "secret-token"
	c.Account = config.Account{Account: "13800000000", Password: "pw", Token: &token}
	c.Buyer = config.Buyers{Buyer: []config.Buyer{{ID: 11, RealName: "张三"}, {ID: 12, RealName: "李四"}}, Count: 2}
	c.Product.TicketMain = config.TicketMain{ID: 4000, Name: "CP31"}
	c.Product.TicketType = config.TicketType{ID: 4321, Name: "普通票", Square: "第一天", Price: 7500}
	return c
}

func TestRunRecordsTransitionsInOrder(t *testing.T) {
	j, fake := openTestJournal(t)
	ctx := context.Background()

	run, err := j.BeginRun(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	result := service.OrderResult{Category: service.CategorySuccess, Message: "订单创建成功", OutTradeNo: "T9"}
	steps := []purchase.Transition{
		{From: purchase.Idle, To: purchase.CheckingStock},
		{From: purchase.CheckingStock, To: purchase.CheckingStock, Stock: service.ProductNoStock, Delay: 150 * time.Millisecond},
		{From: purchase.CheckingStock, To: purchase.Submitting, Stock: service.ProductSuccess, Budget: 3},
		{From: purchase.Submitting, To: purchase.Succeeded, Submissions: 1, Budget: 2, Result: &result},
	}
	for _, step := range steps {
		step.At = fake.Now()
		run.Transition(step)
		fake.Advance(time.Second)
	}
	if err := run.Finish(purchase.Outcome{State: purchase.Succeeded, Result: result, Finished: fake.Now()}); err != nil {
		t.Fatal(err)
	}

	records, err := j.Transitions(ctx, run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(steps) {
		t.Fatalf("got %d transitions, want %d", len(records), len(steps))
	}
	for i, record := range records {
		if record.Seq != i+1 {
			t.Errorf("transition %d: seq = %d", i, record.Seq)
		}
		if record.From != steps[i].From.String() || record.To != steps[i].To.String() {
			t.Errorf("transition %d: %s -> %s", i, record.From, record.To)
		}
		if !record.At.Equal(epoch.Add(time.Duration(i) * time.Second)) {
			t.Errorf("transition %d: at = %v", i, record.At)
		}
	}
	if records[1].Delay != 150*time.Millisecond || records[1].Message != service.ProductNoStock.String() {
		t.Errorf("stock transition = %+v", records[1])
	}
	if records[3].Category != "success" || records[3].Message != "订单创建成功" {
		t.Errorf("order transition = %+v", records[3])
	}

	runs, err := j.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs", len(runs))
	}
	got := runs[0]
	if got.State != "succeeded" || got.EventID != 4000 || got.TicketTypeID != 4321 {
		t.Errorf("run = %+v", got)
	}
	if !got.Finished.Equal(epoch.Add(4 * time.Second)) {
		t.Errorf("finished = %v", got.Finished)
	}
}

func TestSnapshotRoundTripWithoutCredentials(t *testing.T) {
	j, _ := openTestJournal(t)
	ctx := context.Background()

	first, err := j.BeginRun(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := j.BeginRun(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	snapshot, err := j.Snapshot(ctx, first.ID())
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Tier.ID != 4321 || snapshot.Event.Name != "CP31" {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if len(snapshot.BuyerIDs) != 2 || snapshot.BuyerIDs[0] != 11 {
		t.Errorf("buyer ids = %v", snapshot.BuyerIDs)
	}

	runs, err := j.Runs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID() {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Digest != runs[1].Digest {
		t.Error("identical selections stored under different digests")
	}
	if !runs[0].Finished.IsZero() {
		t.Error("open run has a finish time")
	}

	if _, err := j.Snapshot(ctx, 999); !errors.Is(err, ErrNoRun) {
		t.Errorf("missing run: err = %v, want ErrNoRun", err)
	}
}

func TestTransitionAfterCancelIsRecorded(t *testing.T) {
	j, fake := openTestJournal(t)
	ctx, cancel := context.WithCancel(context.Background())
	run, err := j.BeginRun(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	run.Transition(purchase.Transition{From: purchase.CheckingStock, To: purchase.Cancelled, At: fake.Now()})

	records, err := j.Transitions(context.Background(), run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].To != "cancelled" {
		t.Errorf("records = %+v", records)
	}
}

func TestSamples(t *testing.T) {
	j, fake := openTestJournal(t)
	ctx := context.Background()
	observer := j.SampleObserver()

	event := config.TicketMain{ID: 77, Name: "CP31"}
	for i, remainder := range []int{10, 8} {
		observer.Sample(ctx, monitor.Sample{
			At:    fake.Now(),
			Event: event,
			Tiers: []config.TicketType{
				{ID: 2, Name: "VIP", Price: 20000, RemainderNum: remainder},
				{ID: 1, Name: "普通票", Price: 7500, RemainderNum: remainder * 2, LockNum: i},
			},
		})
		fake.Advance(time.Minute)
	}

	records, err := j.Samples(ctx, 77, epoch)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d samples, want 4", len(records))
	}
	if records[0].TicketTypeID != 1 || records[0].Remainder != 20 {
		t.Errorf("first sample = %+v", records[0])
	}
	if records[3].TicketTypeID != 2 || records[3].Remainder != 8 {
		t.Errorf("last sample = %+v", records[3])
	}

	later, err := j.Samples(ctx, 77, epoch.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(later) != 2 {
		t.Errorf("got %d samples since +30s, want 2", len(later))
	}
	if other, _ := j.Samples(ctx, 78, epoch); len(other) != 0 {
		t.Errorf("other event has %d samples", len(other))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("empty path accepted")
	}
}
