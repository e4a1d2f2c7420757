// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package stresstest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/service"
)

func classify(message string) service.OrderResult {
	return service.NewOrderService(nil, nil, nil, nil).Classify(allcpp.OrderReply{Message: message})
}

// cyclingProber answers with messages in turn and tracks how many
// probes were in flight at once.
type cyclingProber struct {
	messages []string
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu    sync.Mutex
	tiers []int
}

func (p *cyclingProber) Probe(_ context.Context, tierID int) service.OrderResult {
	current := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	p.mu.Lock()
	p.tiers = append(p.tiers, tierID)
	p.mu.Unlock()
	n := p.calls.Add(1) - 1
	return classify(p.messages[int(n)%len(p.messages)])
}

func TestRunCountsOutcomes(t *testing.T) {
	prober := &cyclingProber{messages: []string{"请求过于频繁，请稍后再试", "库存不足"}}
	var results atomic.Int64
	report, err := Run(context.Background(), Config{
		Prober:      prober,
		Requests:    20,
		Concurrency: 4,
		OnResult: func(int, service.OrderResult, time.Duration) {
			results.Add(1)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Total != 20 || report.Success+report.Failed != 20 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failed != 10 || report.Success != 10 {
		t.Errorf("failed/success = %d/%d, want 10/10", report.Failed, report.Success)
	}
	if results.Load() != 20 {
		t.Errorf("OnResult called %d times", results.Load())
	}
	if peak := prober.peak.Load(); peak > 4 {
		t.Errorf("peak concurrency %d exceeds 4", peak)
	}
	for _, tier := range prober.tiers {
		if tier < 1000 || tier > 9999 {
			t.Errorf("tier id %d out of range", tier)
		}
	}
	if report.SuccessRate() != 50 {
		t.Errorf("success rate = %v", report.SuccessRate())
	}
}

func TestRunUsesTierID(t *testing.T) {
	prober := &cyclingProber{messages: []string{"库存不足"}}
	_, err := Run(context.Background(), Config{
		Prober:   prober,
		Requests: 3,
		TierID:   func() int { return 42 },
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, tier := range prober.tiers {
		if tier != 42 {
			t.Errorf("tier id = %d, want 42", tier)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prober := &cyclingProber{messages: []string{"库存不足"}}
	report, err := Run(ctx, Config{Prober: prober, Requests: 50, Concurrency: 2})
	if err != nil {
		t.Fatal(err)
	}
	if report.Total != 0 {
		t.Errorf("cancelled run completed %d probes", report.Total)
	}
}

func TestRunRequiresProber(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Fatal("missing prober accepted")
	}
}

func TestFailed(t *testing.T) {
	tests := []struct {
		result service.OrderResult
		want   bool
	}{
		{service.OrderResult{Category: service.CategoryTransport, Message: "请求错误: 502"}, true},
		{service.OrderResult{Category: service.CategoryRateLimit}, true},
		{service.OrderResult{Category: service.CategoryUnknown, Message: "请求错误: timeout"}, true},
		{service.OrderResult{Category: service.CategoryStock, Message: "库存不足"}, false},
		{service.OrderResult{Category: service.CategoryUnknown, Message: "票种不存在"}, false},
	}
	for _, test := range tests {
		if got := Failed(test.result); got != test.want {
			t.Errorf("Failed(%+v) = %v, want %v", test.result, got, test.want)
		}
	}
}

func TestReportString(t *testing.T) {
	report := Report{Total: 4, Success: 3, Failed: 1, Elapsed: 2 * time.Second, Latency: 400 * time.Millisecond}
	text := report.String()
	for _, want := range []string{"总请求数: 4", "成功率: 75.00%", "平均耗时: 0.100秒", "QPS: 2.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	if (Report{}).QPS() != 0 || (Report{}).AverageLatency() != 0 {
		t.Error("empty report should have zero rates")
	}
}
