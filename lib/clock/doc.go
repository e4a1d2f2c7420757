// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source for everything that
// waits: the purchase poll loop, the stock monitor, the stress tester
// and the DG-Lab bridge's bounded waits.
//
// Components keep a Clock field. Production wiring passes Real(); tests
// pass Fake(start) and drive time with Advance, using WaitForTimers to
// make sure the goroutine under test has registered its wait before
// time moves:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx)
//	fake.WaitForTimers(1)
//	fake.Advance(150 * time.Millisecond)
package clock
