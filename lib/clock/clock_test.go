// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(3 * time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(d):
		default:
			t.Errorf("After(%v) should deliver immediately", d)
		}
	}
	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", clock.PendingCount())
	}
}

func TestFakeSleepWithWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		clock.Sleep(150 * time.Millisecond)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(150 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeTickerFiresPerPeriod(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	clock.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after one period")
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired mid-period")
	default:
	}

	ticker.Stop()
	clock.Advance(10 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeTickerReset(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	ticker.Reset(5 * time.Second)

	clock.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired on the old period after Reset")
	default:
	}

	clock.Advance(4 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire on the new period")
	}
}

func TestSleepContext(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		clock := Fake(epoch)
		result := make(chan error, 1)
		go func() { result <- SleepContext(context.Background(), clock, time.Minute) }()

		clock.WaitForTimers(1)
		clock.Advance(time.Minute)
		select {
		case err := <-result:
			if err != nil {
				t.Fatalf("SleepContext: %v", err)
			}
		case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
			t.Fatal("SleepContext did not return")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		clock := Fake(epoch)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := SleepContext(ctx, clock, time.Hour); err != context.Canceled {
			t.Fatalf("SleepContext = %v, want context.Canceled", err)
		}
	})
}
