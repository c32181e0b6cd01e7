package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockChecker struct {
	result CheckResult
}

func (m mockChecker) Check(context.Context) CheckResult {
	return m.result
}

func TestProbeRunnerReady(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		mockChecker{result: CheckResult{Name: "db", Healthy: true}},
		mockChecker{result: CheckResult{Name: "redis", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "db" || results[1].Name != "redis" {
		t.Fatalf("expected sorted results, got %+v", results)
	}
}

func TestProbeRunnerUnready(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		mockChecker{result: CheckResult{Name: "db", Healthy: true}},
		mockChecker{result: CheckResult{Name: "redis", Healthy: false, Error: errors.New("down").Error()}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestProbeRunnerStartupGrace(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 2*time.Second,
		mockChecker{result: CheckResult{Name: "db", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready during grace period")
	}
	if len(results) != 1 || results[0].Name != "startup_grace" {
		t.Fatalf("unexpected grace results: %+v", results)
	}
}

func TestProbeRunnerSkipsNilCheckers(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		nil,
		mockChecker{result: CheckResult{Name: "db", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(results) != 1 {
		t.Fatalf("expected nil checker dropped, got %+v", results)
	}
}

type slowChecker struct {
	name    string
	delay   time.Duration
	started *atomic.Int32
}

func (c slowChecker) Check(ctx context.Context) CheckResult {
	c.started.Add(1)
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
	return CheckResult{Name: c.name, Healthy: true}
}

func TestProbeRunnerRunsChecksConcurrently(t *testing.T) {
	var started atomic.Int32
	runner := NewProbeRunner(time.Second, 0,
		slowChecker{name: "a", delay: 50 * time.Millisecond, started: &started},
		slowChecker{name: "b", delay: 50 * time.Millisecond, started: &started},
		slowChecker{name: "c", delay: 50 * time.Millisecond, started: &started},
	)

	begin := time.Now()
	ready, results := runner.Ready(context.Background())
	elapsed := time.Since(begin)

	if !ready || len(results) != 3 {
		t.Fatalf("expected 3 healthy results, ready=%v results=%+v", ready, results)
	}
	if started.Load() != 3 {
		t.Fatalf("expected all checks started, got %d", started.Load())
	}
	// Serial execution would take at least 150ms.
	if elapsed > 140*time.Millisecond {
		t.Fatalf("checks appear to run serially, took %v", elapsed)
	}
}
