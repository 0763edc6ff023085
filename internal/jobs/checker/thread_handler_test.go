package checker

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"proxycheck/internal/domain"
)

func addressList(n int) []domain.ProxyAddress {
	addresses := make([]domain.ProxyAddress, n)
	for i := range addresses {
		addresses[i] = domain.ProxyAddress(fmt.Sprintf("10.0.0.%d:8080", i+1))
	}
	return addresses
}

func TestDispatcherProducesOneOutcomePerAddress(t *testing.T) {
	addresses := addressList(12)

	for _, maxConcurrent := range []int{1, 3, 12} {
		prober := &countingProber{delay: 5 * time.Millisecond}
		observer := &recordingObserver{}

		dispatcher, err := NewDispatcher(runConfig(maxConcurrent, time.Second), prober, WithObserver(observer))
		if err != nil {
			t.Fatalf("NewDispatcher returned error: %v", err)
		}

		report := dispatcher.Run(context.Background(), addresses)
		if report.Completed != len(addresses) {
			t.Fatalf("M=%d: completed %d, want %d", maxConcurrent, report.Completed, len(addresses))
		}
		if len(observer.progress) != len(addresses) {
			t.Fatalf("M=%d: %d progress calls, want %d", maxConcurrent, len(observer.progress), len(addresses))
		}
		for i, completed := range observer.progress {
			if completed != i+1 || observer.totals[i] != len(addresses) {
				t.Fatalf("M=%d: progress call %d was (%d, %d)", maxConcurrent, i, completed, observer.totals[i])
			}
		}
		if peak := prober.peak.Load(); peak > int64(maxConcurrent) {
			t.Fatalf("M=%d: %d probes ran concurrently", maxConcurrent, peak)
		}
		if peak := dispatcher.Admission().Peak(); peak > maxConcurrent {
			t.Fatalf("M=%d: admission peak %d exceeds capacity", maxConcurrent, peak)
		}
		if dispatcher.Admission().InFlight() != 0 {
			t.Fatalf("M=%d: %d admission slots leaked", maxConcurrent, dispatcher.Admission().InFlight())
		}
	}
}

func TestDispatcherScenarioTwoOfThree(t *testing.T) {
	network := stubNetwork{routes: map[domain.ProxyAddress]stubRoute{
		"1.1.1.1:8080": {latency: 120 * time.Millisecond},
		"2.2.2.2:3128": {latency: 340 * time.Millisecond},
		"bad:0":        {hang: true},
	}}

	cfg := runConfig(2, 600*time.Millisecond)
	prober := NewHTTPProber(cfg, WithTransportFactory(network.factory))
	observer := &recordingObserver{}

	dispatcher, err := NewDispatcher(cfg, prober, WithObserver(observer))
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	report := dispatcher.Run(context.Background(), []domain.ProxyAddress{"1.1.1.1:8080", "2.2.2.2:3128", "bad:0"})

	got := report.Results.Strings()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "1.1.1.1:8080" || got[1] != "2.2.2.2:3128" {
		t.Fatalf("result set = %v, want the two working proxies", got)
	}
	if len(observer.progress) != 3 {
		t.Fatalf("%d progress calls, want 3", len(observer.progress))
	}
	if len(observer.successes) != 2 {
		t.Fatalf("%d success notifications, want 2", len(observer.successes))
	}
	if report.Failures[domain.ReasonTimeout] != 1 {
		t.Fatalf("failures = %v, want one timeout", report.Failures)
	}
	if report.Succeeded != 2 || report.Interrupted {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.AverageLatency < 100*time.Millisecond {
		t.Fatalf("AverageLatency = %s, want at least 100ms", report.AverageLatency)
	}
}

func TestDispatcherSequentialWhenCapacityIsOne(t *testing.T) {
	addresses := addressList(5)
	prober := &countingProber{delay: 10 * time.Millisecond}

	dispatcher, err := NewDispatcher(runConfig(1, time.Second), prober)
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	report := dispatcher.Run(context.Background(), addresses)
	if peak := prober.peak.Load(); peak != 1 {
		t.Fatalf("peak concurrency = %d, want 1", peak)
	}
	if report.Results.Len() != 5 {
		t.Fatalf("result set has %d entries, want 5", report.Results.Len())
	}
}

func TestDispatcherEmptyInput(t *testing.T) {
	prober := &countingProber{}
	observer := &recordingObserver{}

	dispatcher, err := NewDispatcher(runConfig(3, time.Second), prober, WithObserver(observer))
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	report := dispatcher.Run(context.Background(), nil)
	if report.Total != 0 || report.Completed != 0 || report.Results.Len() != 0 {
		t.Fatalf("unexpected report for empty input: %+v", report)
	}
	if len(observer.progress) != 0 {
		t.Fatalf("%d progress calls for empty input", len(observer.progress))
	}
}

func TestDispatcherProbesDuplicatesIndependently(t *testing.T) {
	prober := &countingProber{delay: time.Millisecond}
	dispatcher, err := NewDispatcher(runConfig(2, time.Second), prober)
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	report := dispatcher.Run(context.Background(), []domain.ProxyAddress{"1.1.1.1:80", "1.1.1.1:80"})
	if report.Completed != 2 || report.Results.Len() != 2 {
		t.Fatalf("duplicates were not probed independently: %+v", report)
	}
}

func TestDispatcherIsRepeatableOnDeterministicNetwork(t *testing.T) {
	addresses := addressList(6)
	fail := map[domain.ProxyAddress]bool{addresses[1]: true, addresses[4]: true}

	run := func() domain.ResultSet {
		prober := &countingProber{delay: time.Millisecond, fail: fail}
		dispatcher, err := NewDispatcher(runConfig(1, time.Second), prober)
		if err != nil {
			t.Fatalf("NewDispatcher returned error: %v", err)
		}
		return dispatcher.Run(context.Background(), addresses).Results
	}

	first, second := run(), run()
	if first.Len() != 4 || first.Text() != second.Text() {
		t.Fatalf("runs differ: %v vs %v", first, second)
	}
	for address := range fail {
		if first.Contains(address) {
			t.Fatalf("result set contains failed proxy %s", address)
		}
	}
}

func TestDispatcherInterruptKeepsPartialResults(t *testing.T) {
	addresses := addressList(20)
	prober := &countingProber{delay: 30 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	observer := ObserverFuncs{Progress: func(completed, total int) {
		if completed == 2 {
			cancel()
		}
	}}

	dispatcher, err := NewDispatcher(runConfig(2, time.Second), prober, WithObserver(observer))
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	report := dispatcher.Run(ctx, addresses)
	if !report.Interrupted {
		t.Fatal("report not marked as interrupted")
	}
	if report.Completed >= len(addresses) {
		t.Fatalf("completed %d probes after interrupt, want fewer than %d", report.Completed, len(addresses))
	}
	if report.Results.Len() < 2 {
		t.Fatalf("partial result set has %d entries, want at least 2", report.Results.Len())
	}
	if dispatcher.Admission().InFlight() != 0 {
		t.Fatalf("%d admission slots leaked after interrupt", dispatcher.Admission().InFlight())
	}
}

func TestDispatcherRespectsStartRate(t *testing.T) {
	cfg := runConfig(5, time.Second)
	cfg.StartRate = 20

	dispatcher, err := NewDispatcher(cfg, &countingProber{})
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	timeStart := time.Now()
	report := dispatcher.Run(context.Background(), addressList(5))
	if report.Completed != 5 {
		t.Fatalf("completed %d, want 5", report.Completed)
	}
	if elapsed := time.Since(timeStart); elapsed < 150*time.Millisecond {
		t.Fatalf("5 starts at 20/s took %s, want at least 150ms", elapsed)
	}
}

func TestNewDispatcherRejectsZeroCapacity(t *testing.T) {
	if _, err := NewDispatcher(runConfig(0, time.Second), &countingProber{}); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}
